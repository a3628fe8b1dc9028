package repokit

// Binder is a tiny factory that binds a domain repo to a specific Collections
type Binder[T any] interface {
	Bind(Collections) T
}

// BindFunc lets you create a Binder from a function
type BindFunc[T any] func(Collections) T

// Bind calls the underlying function
func (f BindFunc[T]) Bind(c Collections) T { return f(c) }

// RequireCollections panics early on programmer error (nil c)
func RequireCollections(c Collections) Collections {
	if c == nil {
		panic("repokit: nil Collections")
	}
	return c
}

// MustBind is a convenience that validates c then binds
func MustBind[T any](b Binder[T], c Collections) T {
	return b.Bind(RequireCollections(c))
}
