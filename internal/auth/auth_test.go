package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testUsersYAML = `
users:
  - username: analyst
    password_hash: ` + "df733656293a19c54f69093ba916f0a1a2a3c151fc95c13f3a794c2631eeb3a6" + `
    role: privileged
  - username: viewer
    password_hash: ` + "5994471abb01112afcc18159f6cc74b4f511b99806da59b3caf5a9c173cacfc5" + `
    role: general
  - username: legacy
    password_hash: ` + "5994471abb01112afcc18159f6cc74b4f511b99806da59b3caf5a9c173cacfc5" + `
    role: admin
`

func TestHashPassword(t *testing.T) {
	// sha256("12345") hex
	assert.Equal(t, "5994471abb01112afcc18159f6cc74b4f511b99806da59b3caf5a9c173cacfc5", HashPassword("12345"))
}

func TestParseCredentialsAndVerify(t *testing.T) {
	creds, err := ParseCredentials([]byte(testUsersYAML))
	require.NoError(t, err)

	role, ok := creds.Verify("viewer", "12345")
	require.True(t, ok)
	assert.Equal(t, RoleGeneral, role)

	// Wrong password and unknown user both fail the same way.
	_, ok = creds.Verify("viewer", "wrong")
	assert.False(t, ok)
	_, ok = creds.Verify("nobody", "12345")
	assert.False(t, ok)

	// Unknown roles downgrade to general.
	role, ok = creds.Verify("legacy", "12345")
	require.True(t, ok)
	assert.Equal(t, RoleGeneral, role)
}

func TestVerifyPrivileged(t *testing.T) {
	creds, err := ParseCredentials([]byte(testUsersYAML))
	require.NoError(t, err)

	// The analyst hash is sha256("secreto").
	role, ok := creds.Verify("analyst", "secreto")
	require.True(t, ok)
	assert.Equal(t, RolePrivileged, role)
}

func TestParseCredentialsRejectsEmpty(t *testing.T) {
	_, err := ParseCredentials([]byte("users: []"))
	assert.Error(t, err)

	_, err = ParseCredentials([]byte("users:\n  - username: x\n"))
	assert.Error(t, err)
}

func TestSessionLifecycle(t *testing.T) {
	m := NewSessionManager()

	sess := m.Login("analyst", RolePrivileged)
	require.NotEmpty(t, sess.Token)
	assert.True(t, sess.Privileged())

	got, ok := m.Get(sess.Token)
	require.True(t, ok)
	assert.Equal(t, "analyst", got.Username)

	m.Logout(sess.Token)
	_, ok = m.Get(sess.Token)
	assert.False(t, ok)
}

func TestGuestSession(t *testing.T) {
	m := NewSessionManager()
	sess := m.Guest()
	assert.True(t, sess.Guest)
	assert.False(t, sess.Privileged())

	// Guests are ordinary general-role sessions; the role set is closed
	// over {privileged, general}.
	assert.Equal(t, RoleGeneral, sess.Role)

	// Tokens are unique per session.
	other := m.Guest()
	assert.NotEqual(t, sess.Token, other.Token)
	assert.Equal(t, 2, m.Count())
}

func TestGetEmptyToken(t *testing.T) {
	m := NewSessionManager()
	_, ok := m.Get("")
	assert.False(t, ok)
}

func TestLoginThrottle(t *testing.T) {
	// 1/sec with burst 2: third immediate attempt is rejected.
	th := NewLoginThrottle(1, 2)
	assert.True(t, th.Allow("10.0.0.1"))
	assert.True(t, th.Allow("10.0.0.1"))
	assert.False(t, th.Allow("10.0.0.1"))

	// Addresses throttle independently.
	assert.True(t, th.Allow("10.0.0.2"))
}
