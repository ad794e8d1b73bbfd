package producer

import "context"

// RoleRouter routes each request to a per-role producer, falling back to a
// default. This is how agent-level configuration (a role pinned to a
// specific endpoint or model) reaches the coordinator without the
// coordinator knowing about configuration at all.
type RoleRouter struct {
	byRole   map[string]Producer
	fallback Producer
}

// NewRoleRouter creates a router. fallback must not be nil.
func NewRoleRouter(fallback Producer) *RoleRouter {
	return &RoleRouter{
		byRole:   make(map[string]Producer),
		fallback: fallback,
	}
}

// Route assigns a producer to a role.
func (r *RoleRouter) Route(role string, p Producer) {
	r.byRole[role] = p
}

// Generate dispatches to the role's producer, or the fallback.
func (r *RoleRouter) Generate(ctx context.Context, req Request) (string, error) {
	if p, ok := r.byRole[req.Role]; ok {
		return p.Generate(ctx, req)
	}
	return r.fallback.Generate(ctx, req)
}
