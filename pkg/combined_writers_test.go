package pkg

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCombinedWriter_Write(t *testing.T) {
	sb1 := &strings.Builder{}
	sb2 := &strings.Builder{}

	cw := NewCombinedWriter(sb1, sb2)
	require.NotNil(t, cw)
	assert.Len(t, cw.Writers, 2)

	msg := "a log line"
	n, err := cw.Write([]byte(msg))
	require.NoError(t, err)
	assert.Equal(t, len(msg)*len(cw.Writers), n)

	assert.Equal(t, msg, sb1.String())
	assert.Equal(t, msg, sb2.String())
}

func TestCombinedWriter_Write_WithError(t *testing.T) {
	fw := &faultyWriter{}
	sb := &strings.Builder{}

	cw := NewCombinedWriter(fw, sb)

	msg := "a log line"
	n, err := cw.Write([]byte(msg))
	assert.Error(t, err)

	// written only to the string builder
	assert.Equal(t, len(msg), n)
	assert.Equal(t, msg, sb.String())
}

type faultyWriter struct{}

func (fw *faultyWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("broken pipe")
}
