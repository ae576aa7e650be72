package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"example.com/meetup/internal/auth"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetArgs(append([]string{"--env-file", "testdata-missing.env"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestTokenIssueSignsVerifiableToken(t *testing.T) {
	t.Setenv("MEETUP_JWT_SECRET", "cli-secret")
	t.Setenv("MEETUP_JWT_ISSUER", "meetup-test")

	out, err := run(t, "token", "issue", "--login", "alice", "--scope", auth.ScopeUsersAdmin)
	require.NoError(t, err)

	claims, err := auth.Parse(strings.TrimSpace(out), auth.Config{Secret: "cli-secret", Issuer: "meetup-test"})
	require.NoError(t, err)
	require.Equal(t, "alice", claims.Subject)
	require.True(t, claims.HasScope(auth.ScopeUsersAdmin))
}

func TestTokenIssueRequiresLogin(t *testing.T) {
	_, err := run(t, "token", "issue")
	require.ErrorContains(t, err, `required flag(s) "login" not set`)
}

func TestUserCreateRejectsMemoryDriver(t *testing.T) {
	t.Setenv("MEETUP_STORE_DRIVER", "memory")

	_, err := run(t, "user", "create", "--login", "bob")
	require.ErrorContains(t, err, "needs the postgres store driver")
}
