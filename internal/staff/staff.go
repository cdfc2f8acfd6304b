// Package staff decides who may look up other players.
package staff

import (
	"os"
	"strings"
)

// EnvKey is the environment variable holding the staff role IDs.
const EnvKey = "STAFF_ROLE_IDS"

// Caller is the invoking user. Roles is nil when role data is unavailable
// (for example in direct messages).
type Caller struct {
	ID    string
	Roles []string
}

// RoleSource returns the current allow-list of role IDs.
type RoleSource func() []string

// EnvRoleSource reads key from the environment on every call, so edits to the
// allow-list apply without a restart.
func EnvRoleSource(key string) RoleSource {
	return func() []string {
		return ParseRoleIDs(os.Getenv(key))
	}
}

// StaticRoleSource always returns ids.
func StaticRoleSource(ids ...string) RoleSource {
	return func() []string { return ids }
}

// ParseRoleIDs splits a comma separated list, dropping blanks.
func ParseRoleIDs(s string) []string {
	var ids []string
	for _, part := range strings.Split(s, ",") {
		if id := strings.TrimSpace(part); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// Authorize reports whether caller holds any role in allow. An empty
// allow-list or unknown caller roles deny.
func Authorize(caller Caller, allow []string) bool {
	if len(allow) == 0 || caller.Roles == nil {
		return false
	}
	held := make(map[string]struct{}, len(caller.Roles))
	for _, r := range caller.Roles {
		held[r] = struct{}{}
	}
	for _, id := range allow {
		if _, ok := held[id]; ok {
			return true
		}
	}
	return false
}

// Gate evaluates callers against a RoleSource.
type Gate struct {
	source RoleSource
}

func NewGate(source RoleSource) *Gate {
	if source == nil {
		source = EnvRoleSource(EnvKey)
	}
	return &Gate{source: source}
}

// IsStaff reports whether caller is on the allow-list right now.
func (g *Gate) IsStaff(caller Caller) bool {
	return Authorize(caller, g.source())
}
