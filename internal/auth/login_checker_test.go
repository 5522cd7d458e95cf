package auth

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginChecker_IsLogged(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	defer rdb.Close()

	checker := NewLoginChecker(time.Hour, rdb)

	freshToken := "fresh"
	staleToken := "stale"
	now := time.Now()

	mock.ExpectGet(sessionKeyPrefix + freshToken).SetVal(fmt.Sprintf("%d", now.Add(-time.Minute).Unix()))
	logged, err := checker.IsLogged(context.Background(), freshToken)
	require.NoError(t, err)
	assert.True(t, logged)

	mock.ExpectGet(sessionKeyPrefix + staleToken).SetVal(fmt.Sprintf("%d", now.Add(-2*time.Hour).Unix()))
	logged, err = checker.IsLogged(context.Background(), staleToken)
	require.NoError(t, err)
	assert.False(t, logged)

	mock.ExpectGet(sessionKeyPrefix + "unknown").RedisNil()
	_, err = checker.IsLogged(context.Background(), "unknown")
	assert.Error(t, err)
}
