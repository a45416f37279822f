package main

import (
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	domainauth "github.com/foliohq/folio-auth/internal/domain/auth"
)

func captureStdout(t *testing.T, fn func() error) string {
	t.Helper()
	oldStdout := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer func() {
		os.Stdout = oldStdout
	}()

	os.Stdout = w
	require.NoError(t, fn())
	require.NoError(t, w.Close())
	os.Stdout = oldStdout

	output, err := io.ReadAll(r)
	require.NoError(t, err)
	require.NoError(t, r.Close())
	return string(output)
}

func TestPrintUserFormatsIdentity(t *testing.T) {
	out := captureStdout(t, func() error {
		return printUser(&domainauth.User{
			ID:        "u-1",
			Email:     "ada@example.com",
			FirstName: "Ada",
			LastName:  "Lovelace",
			Role:      domainauth.RoleAdmin,
		})
	})

	require.Contains(t, out, "ada@example.com")
	require.Contains(t, out, "Ada Lovelace")
	require.Contains(t, out, "admin")
}

func TestPrintUserNilSession(t *testing.T) {
	require.Error(t, printUser(nil))
}

func TestPrintSnapshotShowsLastError(t *testing.T) {
	out := captureStdout(t, func() error {
		return printSnapshot(domainauth.Snapshot{
			LoggedIn:  false,
			LastError: "Your session has expired. Please log in again.",
		})
	})

	require.Contains(t, out, "Logged in:")
	require.Contains(t, out, "session has expired")
}

func TestCommandsAreRegistered(t *testing.T) {
	cmds := commands()
	for _, name := range []string{"login", "signup", "whoami", "status", "refresh", "logout", "purge", "migrate"} {
		cmd, ok := cmds[name]
		require.True(t, ok, "missing command %q", name)
		require.Equal(t, name, cmd.name)
		require.NotNil(t, cmd.run)
		require.NotEmpty(t, cmd.description)
	}
}
