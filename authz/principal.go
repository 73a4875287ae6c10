package authz

import (
	"github.com/aisgo/workshop-server/utils/id-generator/ulid"

	"github.com/aisgo/workshop-server/model"
)

// Principal represents an authenticated user with resolved roles and permissions.
type Principal struct {
	UserID     int64       `json:"user_id,string"`
	WorkshopID ulid.ULID `json:"workshop_id"`
	Roles      []string    `json:"roles"`

	// capabilities 合并后的能力集: 角色派生 + 直接授权
	capabilities map[Capability]struct{}
}

// NewPrincipal constructs a principal from a loaded user.
// Role-derived capabilities and per-role permission grants are merged
// into one set so callers never need to know where a capability came from.
func NewPrincipal(user *model.User) Principal {
	p := Principal{
		UserID:       user.ID,
		WorkshopID:   user.WorkshopID,
		Roles:        make([]string, 0, len(user.Roles)),
		capabilities: make(map[Capability]struct{}),
	}

	for _, role := range user.Roles {
		p.Roles = append(p.Roles, role.Name)
		for _, cap := range roleCapabilities[role.Name] {
			p.capabilities[cap] = struct{}{}
		}
		for _, perm := range role.Permissions {
			p.capabilities[Capability(perm.Key)] = struct{}{}
		}
	}

	return p
}

// NewPrincipalFromClaims rebuilds a principal from cached claims
// (principal cache, gateway headers). Capability strings are taken as-is.
func NewPrincipalFromClaims(userID int64, workshopID ulid.ULID, roles []string, capabilities []string) Principal {
	p := Principal{
		UserID:       userID,
		WorkshopID:   workshopID,
		Roles:        roles,
		capabilities: make(map[Capability]struct{}, len(capabilities)),
	}
	for _, c := range capabilities {
		p.capabilities[Capability(c)] = struct{}{}
	}
	return p
}

// Has reports whether the principal holds the capability,
// regardless of whether it came from a role or a direct permission grant.
func (p Principal) Has(cap Capability) bool {
	_, ok := p.capabilities[cap]
	return ok
}

// HasRole reports whether the principal holds the named role.
func (p Principal) HasRole(role string) bool {
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Capabilities returns the merged capability set; ordering is unspecified.
// Used when caching the principal.
func (p Principal) Capabilities() []string {
	out := make([]string, 0, len(p.capabilities))
	for c := range p.capabilities {
		out = append(out, string(c))
	}
	return out
}
