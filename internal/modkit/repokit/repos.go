// Package repokit provides common types and helpers for repository implementations
package repokit

import (
	"github.com/nkint/yttrex/internal/platform/config"
	"github.com/nkint/yttrex/internal/platform/store"
)

// Collections is the minimal surface a document repo binds against
type Collections interface {
	Collection(name string) store.Collection
}

// IndexOpts is re-exported so setup hooks read naturally at call sites
type IndexOpts = store.IndexOpts

// Named wraps src so logical collection names resolve through schema before
// reaching the store. Repos keep using their logical names; deployments remap
// them with SCHEMA_* env vars
func Named(schema config.Schema, src Collections) Collections {
	return named{schema: schema, src: src}
}

type named struct {
	schema config.Schema
	src    Collections
}

func (n named) Collection(name string) store.Collection {
	return n.src.Collection(n.schema.Collection(name))
}
