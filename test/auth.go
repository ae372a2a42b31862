//go:build integration_test || all_tests

package test

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// newSession registers a session for the user the way the identity provider
// bridge does, and returns its token.
func (s *IntegrationTestSuite) newSession(ctx context.Context, userID string) string {
	token := uuid.NewString()
	s.Require().NoError(s.authService.Register(ctx, token, userID, time.Now()))
	return token
}
