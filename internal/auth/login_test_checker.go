package auth

import "context"

// TestLoginChecker is used in handler unit tests in place of the
// redis backed LoginChecker.
type TestLoginChecker struct {
	LoggedSessions map[string]bool
}

func NewTestLoginChecker() *TestLoginChecker {
	return &TestLoginChecker{
		LoggedSessions: make(map[string]bool),
	}
}

func (c *TestLoginChecker) IsLogged(_ context.Context, token string) (bool, error) {
	return c.LoggedSessions[token], nil
}
