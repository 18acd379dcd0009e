package commands

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sudeepta/portfolio/internal/auth"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	var out, errOut bytes.Buffer
	root := NewRootCmd()
	root.SetArgs(append(args, "--env-file", ""))
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&out)
	root.SetErr(&errOut)

	err := root.Execute()
	return out.String(), err
}

func TestExperienceCommand(t *testing.T) {
	t.Setenv("EXPERIENCE_START", "2024-04-01")
	t.Setenv("CURRENT_ROLE_START", "2025-07-01")

	out, err := run(t, "", "experience", "--at", "2025-10-16")
	require.NoError(t, err)

	assert.Contains(t, out, "Experience:   1.5+ Years (since 2024-04-01)")
	assert.Contains(t, out, "Current role: 3 Months 15 Days (since 2025-07-01)")
}

func TestExperienceCommand_BadDate(t *testing.T) {
	_, err := run(t, "", "experience", "--at", "16/10/2025")
	assert.Error(t, err)
}

func TestConfigErrorsStopCommands(t *testing.T) {
	t.Setenv("PORT", "eighty")

	_, err := run(t, "", "experience")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PORT")
}

func TestHashPasswordCommand(t *testing.T) {
	tests := map[string]struct {
		stdin string
		args  []string
	}{
		"argument": {args: []string{"hash-password", "s3cret"}},
		"stdin":    {stdin: "s3cret\n", args: []string{"hash-password"}},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			out, err := run(t, tt.stdin, tt.args...)
			require.NoError(t, err)

			hash := strings.TrimSpace(out)
			assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("s3cret")))

			cost, err := bcrypt.Cost([]byte(hash))
			require.NoError(t, err)
			assert.Equal(t, 12, cost, "hashes for ADMIN_PASSWORD_HASH use the production cost")
		})
	}
}

func TestHashPasswordCommand_RejectsOver72Bytes(t *testing.T) {
	out, err := run(t, "", "hash-password", strings.Repeat("x", 73))

	require.Error(t, err)
	assert.ErrorIs(t, err, auth.ErrPasswordTooLong)
	assert.Empty(t, out)
}

func TestHashPasswordCommand_Empty(t *testing.T) {
	_, err := run(t, "\n", "hash-password")
	assert.Error(t, err)
}
