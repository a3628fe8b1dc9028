package store

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"

	perr "github.com/nkint/yttrex/internal/platform/errors"
)

// Many runs a find and decodes every match into T. Errors propagate
func Many[T any](ctx context.Context, c Collection, sel bson.M, sort bson.D) ([]T, error) {
	var out []T
	err := c.st.scoped(ctx, func(ctx context.Context, conn Conn) error {
		cur, err := conn.Docs(c.name).Find(ctx, sel, FindOpts{Sort: sort})
		if err != nil {
			return err
		}
		return cur.All(ctx, &out)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// One decodes the first match into T, or returns perr.ErrNotFound when nothing
// matches
func One[T any](ctx context.Context, c Collection, sel bson.M) (T, error) {
	var zero T
	var out []T
	err := c.st.scoped(ctx, func(ctx context.Context, conn Conn) error {
		cur, err := conn.Docs(c.name).Find(ctx, sel, FindOpts{Limit: 1})
		if err != nil {
			return err
		}
		return cur.All(ctx, &out)
	})
	if err != nil {
		return zero, err
	}
	if len(out) == 0 {
		return zero, perr.ErrNotFound
	}
	return out[0], nil
}
