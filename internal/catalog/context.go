package catalog

import "context"

type ctxKey struct{}

// NewContext returns a copy of ctx that carries c.
func NewContext(ctx context.Context, c *Catalog) context.Context {
	return context.WithValue(ctx, ctxKey{}, c)
}

func FromContext(ctx context.Context) (*Catalog, bool) {
	c, ok := ctx.Value(ctxKey{}).(*Catalog)
	return c, ok && c != nil
}

// MustFromContext panics when ctx was not derived from NewContext.
func MustFromContext(ctx context.Context) *Catalog {
	c, ok := FromContext(ctx)
	if !ok {
		panic("catalog: MustFromContext called outside a catalog provider scope")
	}
	return c
}
