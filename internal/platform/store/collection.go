package store

import (
	"context"
	"math"

	"go.mongodb.org/mongo-driver/v2/bson"

	perr "github.com/nkint/yttrex/internal/platform/errors"
)

// Collection is a handle bound to one named collection. The zero value is
// unusable; get handles from Store.Collection
type Collection struct {
	st   *Store
	name string
}

// Name returns the bound collection name
func (c Collection) Name() string { return c.name }

// WriteOne inserts doc and echoes it back on success. Errors propagate
func (c Collection) WriteOne(ctx context.Context, doc bson.M) (bson.M, error) {
	err := c.st.scoped(ctx, func(ctx context.Context, conn Conn) error {
		return conn.Docs(c.name).InsertOne(ctx, doc)
	})
	if err != nil {
		return nil, err
	}
	c.st.Log.Debug().Str("collection", c.name).Msg("writeOne")
	return doc, nil
}

// WriteMany inserts docs and returns how many the driver acknowledged. Errors propagate
func (c Collection) WriteMany(ctx context.Context, docs []bson.M) (int, error) {
	raw := make([]any, len(docs))
	for i, d := range docs {
		raw[i] = d
	}
	var n int
	err := c.st.scoped(ctx, func(ctx context.Context, conn Conn) error {
		var err error
		n, err = conn.Docs(c.name).InsertMany(ctx, raw)
		return err
	})
	if err != nil {
		return n, err
	}
	c.st.Log.Debug().Str("collection", c.name).Int("inserted", n).Msg("writeMany")
	return n, nil
}

// UpdateOne applies update (as a $set) to the first document matching sel and
// echoes the update document back. Errors propagate
func (c Collection) UpdateOne(ctx context.Context, sel, update bson.M) (bson.M, error) {
	if err := c.updateOne(ctx, sel, update, false); err != nil {
		return nil, err
	}
	return update, nil
}

// UpsertOne is UpdateOne that creates the document when nothing matches sel
func (c Collection) UpsertOne(ctx context.Context, sel, update bson.M) (bson.M, error) {
	if err := c.updateOne(ctx, sel, update, true); err != nil {
		return nil, err
	}
	return update, nil
}

func (c Collection) updateOne(ctx context.Context, sel, update bson.M, upsert bool) error {
	return c.st.scoped(ctx, func(ctx context.Context, conn Conn) error {
		ack, err := conn.Docs(c.name).UpdateOne(ctx, sel, bson.M{"$set": update}, upsert)
		if err != nil {
			return err
		}
		c.st.Log.Debug().Str("collection", c.name).Bool("upsert", upsert).
			Int64("matched", ack.Matched).Int64("modified", ack.Modified).Msg("updateOne")
		return nil
	})
}

// Delete removes every document matching sel and returns the delete count.
// An empty selector is rejected before touching the store: deleting with no
// filter would wipe the collection
func (c Collection) Delete(ctx context.Context, sel bson.M) (int64, error) {
	if len(sel) == 0 {
		return 0, perr.WithOp(perr.InvalidArgf("refusing delete with empty selector on %q", c.name), "delete")
	}
	var n int64
	err := c.st.scoped(ctx, func(ctx context.Context, conn Conn) error {
		var err error
		n, err = conn.Docs(c.name).DeleteMany(ctx, sel)
		return err
	})
	if err != nil {
		return 0, err
	}
	c.st.Log.Debug().Str("collection", c.name).Int64("deleted", n).Msg("delete")
	return n, nil
}

// Read returns every document matching sel, sorted when sort is non-nil.
// Errors propagate
func (c Collection) Read(ctx context.Context, sel bson.M, sort bson.D) ([]bson.M, error) {
	var out []bson.M
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
	c.st.Log.Debug().Str("collection", c.name).Interface("selector", sel).Int("results", len(out)).Msg("read")
	return out, nil
}

// ReadLimited returns up to amount documents after skipping past documents in
// sort order. A NaN past behaves as zero. Unlike the other reads this one
// degrades on failure: it reports an alarm and returns an empty slice, because
// it feeds paginated reporting surfaces that prefer an empty page to a failed
// one. The alarm channel is the only place the failure stays visible
func (c Collection) ReadLimited(ctx context.Context, sel bson.M, sort bson.D, amount int64, past float64) ([]bson.M, error) {
	skip := int64(0)
	if !math.IsNaN(past) && past > 0 {
		skip = int64(past)
	}
	info := map[string]any{"collection": c.name, "selector": sel, "amount": amount, "past": past}
	return c.contained(ctx, "readLimit", info, func(ctx context.Context, d Docs) ([]bson.M, error) {
		cur, err := d.Find(ctx, sel, FindOpts{Sort: sort, Limit: amount, Skip: skip})
		if err != nil {
			return nil, err
		}
		var out []bson.M
		if err := cur.All(ctx, &out); err != nil {
			return nil, err
		}
		return out, nil
	})
}

// DistinctValues returns the distinct values of field among documents matching
// sel. Errors propagate
func (c Collection) DistinctValues(ctx context.Context, field string, sel bson.M) ([]any, error) {
	var out []any
	err := c.st.scoped(ctx, func(ctx context.Context, conn Conn) error {
		var err error
		out, err = conn.Docs(c.name).Distinct(ctx, field, sel)
		return err
	})
	if err != nil {
		return nil, err
	}
	c.st.Log.Debug().Str("collection", c.name).Str("field", field).Int("values", len(out)).Msg("distinct")
	return out, nil
}

// EnsureIndex creates an index over keys and returns its name. Errors propagate
func (c Collection) EnsureIndex(ctx context.Context, keys bson.D, opt IndexOpts) (string, error) {
	var name string
	err := c.st.scoped(ctx, func(ctx context.Context, conn Conn) error {
		var err error
		name, err = conn.Docs(c.name).CreateIndex(ctx, keys, opt)
		return err
	})
	if err != nil {
		return "", err
	}
	c.st.Log.Debug().Str("collection", c.name).Str("index", name).Msg("createIndex")
	return name, nil
}

// Save upserts doc by its _id: documents with identity replace their stored
// version, documents without identity are inserted fresh
func (c Collection) Save(ctx context.Context, doc bson.M) (Ack, error) {
	var ack Ack
	err := c.st.scoped(ctx, func(ctx context.Context, conn Conn) error {
		d := conn.Docs(c.name)
		id, ok := doc["_id"]
		if !ok {
			if err := d.InsertOne(ctx, doc); err != nil {
				return err
			}
			ack = Ack{Upserted: 1}
			return nil
		}
		var err error
		ack, err = d.ReplaceOne(ctx, bson.M{"_id": id}, doc, true)
		return err
	})
	if err != nil {
		return Ack{}, err
	}
	c.st.Log.Debug().Str("collection", c.name).
		Int64("matched", ack.Matched).Int64("upserted", ack.Upserted).Msg("save")
	return ack, nil
}
