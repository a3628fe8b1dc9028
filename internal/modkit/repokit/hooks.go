package repokit

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/nkint/yttrex/internal/platform/store"
)

// SetupHook prepares a collection before a module starts serving,
// e.g. index creation
type SetupHook func(ctx context.Context, c store.Collection) error

// Setup resolves name through src and runs every hook against it in order,
// stopping at the first failure
func Setup(ctx context.Context, src Collections, name string, hooks ...SetupHook) error {
	c := RequireCollections(src).Collection(name)
	for _, hk := range hooks {
		if err := hk(ctx, c); err != nil {
			return err
		}
	}
	return nil
}

// EnsureIndex returns a hook that creates the given index on the collection
func EnsureIndex(keys bson.D, opt IndexOpts) SetupHook {
	return func(ctx context.Context, c store.Collection) error {
		_, err := c.EnsureIndex(ctx, keys, opt)
		return err
	}
}
