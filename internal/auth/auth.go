// Package auth implements the dashboard's credential check and session
// tracking. Credentials live in a YAML table of username, SHA-256
// password hash, and role; sessions are in-memory and keyed by opaque
// UUID tokens carried in a cookie.
package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Role gates what a logged-in user can see.
type Role string

const (
	// RolePrivileged unlocks the detailed-analysis views.
	RolePrivileged Role = "privileged"
	// RoleGeneral sees the standard dashboard only. Guest sessions carry
	// this role too; Session.Guest records their anonymity.
	RoleGeneral Role = "general"
)

// User is one credential-table entry.
type User struct {
	Username     string `yaml:"username"`
	PasswordHash string `yaml:"password_hash"`
	Role         Role   `yaml:"role"`
}

// Credentials is the loaded credential table.
type Credentials struct {
	users map[string]User
}

// LoadCredentials reads the YAML credential file. Unknown roles
// downgrade to general rather than failing the load.
func LoadCredentials(path string) (*Credentials, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "auth: read credentials file")
	}
	return ParseCredentials(data)
}

// ParseCredentials decodes a credential table from YAML bytes.
func ParseCredentials(data []byte) (*Credentials, error) {
	var doc struct {
		Users []User `yaml:"users"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, eris.Wrap(err, "auth: parse credentials file")
	}
	if len(doc.Users) == 0 {
		return nil, eris.New("auth: credentials file has no users")
	}

	users := make(map[string]User, len(doc.Users))
	for _, u := range doc.Users {
		if u.Username == "" || u.PasswordHash == "" {
			return nil, eris.Errorf("auth: incomplete entry for user %q", u.Username)
		}
		if u.Role != RolePrivileged {
			u.Role = RoleGeneral
		}
		u.PasswordHash = strings.ToLower(u.PasswordHash)
		users[u.Username] = u
	}
	return &Credentials{users: users}, nil
}

// HashPassword returns the hex SHA-256 digest stored in the credential
// table.
func HashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

// Verify checks a username/password pair and returns the user's role.
// The comparison is constant-time over the hash.
func (c *Credentials) Verify(username, password string) (Role, bool) {
	u, ok := c.users[username]
	if !ok {
		return "", false
	}
	got := HashPassword(password)
	if subtle.ConstantTimeCompare([]byte(got), []byte(u.PasswordHash)) != 1 {
		return "", false
	}
	return u.Role, true
}
