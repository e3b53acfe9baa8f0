// Package sessioninfo carries the resolved Principal through the request
// context between the session middleware and the handlers behind it.
package sessioninfo

import (
	"context"
	"fmt"
	"net/http"

	"github.com/castlebar/fieldops/principal"
)

// ctxKey is a type for storing values in the request context
type ctxKey string

// CtxPrincipal is the key used to store the resolved Principal in the context.
const CtxPrincipal ctxKey = "principal"

// WithPrincipal returns a context carrying the resolved Principal.
func WithPrincipal(ctx context.Context, p *principal.Principal) context.Context {
	return context.WithValue(ctx, CtxPrincipal, p)
}

// Lookup returns the Principal attached to the context, if any. Handlers
// behind RequireAuthenticated can use FromCtx instead.
func Lookup(ctx context.Context) (*principal.Principal, bool) {
	p, ok := ctx.Value(CtxPrincipal).(*principal.Principal)

	return p, ok
}

// FromRequest returns the Principal from the request context.
func FromRequest(r *http.Request) *principal.Principal {
	return FromCtx(r.Context())
}

// FromCtx returns the Principal from the context. It panics when no
// Principal is attached; callers must sit behind the authentication gate.
func FromCtx(ctx context.Context) *principal.Principal {
	p, ok := Lookup(ctx)
	if !ok {
		panic(fmt.Sprintf("failed to find %s in request context", CtxPrincipal))
	}

	return p
}
