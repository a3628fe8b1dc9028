package store

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"

	perr "github.com/nkint/yttrex/internal/platform/errors"
)

// UpdateBatch applies one update per element, in order, using each element's
// id field as the selector. The whole batch is validated before the first
// write, so a malformed element fails fast with nothing applied. After that,
// elements run strictly sequentially, each in its own connection scope, and
// the first failing element halts the rest; there is no rollback of the
// elements already applied. Returns how many elements were applied
func (c Collection) UpdateBatch(ctx context.Context, elems []bson.M) (int, error) {
	for i, e := range elems {
		if !hasID(e) {
			return 0, perr.WithOp(
				perr.InvalidArgf("batch element %d of %d has no id field", i, len(elems)), "updateMany")
		}
	}

	done := 0
	for _, e := range elems {
		if _, err := c.UpdateOne(ctx, bson.M{"id": e["id"]}, e); err != nil {
			return done, err
		}
		done++
	}
	c.st.Log.Debug().Str("collection", c.name).Int("applied", done).Msg("updateMany")
	return done, nil
}

func hasID(e bson.M) bool {
	v, ok := e["id"]
	if !ok || v == nil {
		return false
	}
	if s, isStr := v.(string); isStr && s == "" {
		return false
	}
	return true
}
