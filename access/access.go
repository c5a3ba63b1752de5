// Package access holds the owner allowlist check gating every command and event.
package access

// Guard answers whether an acting identity is the configured owner.
// It is stateless; the zero value denies everyone.
type Guard struct {
	OwnerID string
}

func NewGuard(ownerID string) *Guard {
	return &Guard{OwnerID: ownerID}
}

// IsOwner reports whether actorID is the configured owner. An empty owner
// configuration denies all actors rather than allowing them.
func (g *Guard) IsOwner(actorID string) bool {
	return g.OwnerID != "" && actorID == g.OwnerID
}
