package model

import (
	"context"

	"github.com/roach88/recstore/internal/backend"
	"github.com/roach88/recstore/internal/filter"
)

// None is the absence-check variant. It holds no records.
type None struct {
	session
}

// NewNone creates an absence-check variant.
func NewNone(e *Engine) *None {
	return &None{session: session{engine: e}}
}

// LoadNone succeeds when nothing matches f and fails with DoesExist
// otherwise.
func (n *None) LoadNone(ctx context.Context, f filter.Filter) error {
	recs, err := n.load(ctx, func() (backend.Cursor, error) {
		return n.engine.collection.Find(ctx, f, filter.Options{Limit: 2})
	})
	if err != nil {
		return loadCodes.translate(n.engine.Collection(), f, err)
	}
	if len(recs) > 0 {
		return newError(KindDoesExist, n.engine.Collection(), f, nil)
	}
	return nil
}
