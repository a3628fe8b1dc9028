package store

import (
	"context"
	"strings"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	perr "github.com/nkint/yttrex/internal/platform/errors"
)

// CountByMatch returns the number of documents matching sel. Errors propagate:
// a count is cheap for the caller to retry, and an authoritative number must
// not silently degrade
func (c Collection) CountByMatch(ctx context.Context, sel bson.M) (int64, error) {
	var n int64
	err := c.st.scoped(ctx, func(ctx context.Context, conn Conn) error {
		var err error
		n, err = conn.Docs(c.name).CountDocuments(ctx, sel)
		return err
	})
	if err != nil {
		return 0, err
	}
	c.st.Log.Debug().Str("collection", c.name).Int64("count", n).Msg("countByMatch")
	return n, nil
}

// Aggregate runs the two-stage pipeline [$match, $group] and returns the group
// documents. Errors propagate
func (c Collection) Aggregate(ctx context.Context, match, group bson.M) ([]bson.M, error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: match}},
		bson.D{{Key: "$group", Value: group}},
	}
	var out []bson.M
	err := c.st.scoped(ctx, func(ctx context.Context, conn Conn) error {
		cur, err := conn.Docs(c.name).Aggregate(ctx, pipeline)
		if err != nil {
			return err
		}
		return cur.All(ctx, &out)
	})
	if err != nil {
		return nil, err
	}
	c.st.Log.Debug().Str("collection", c.name).Int("results", len(out)).Msg("aggregate")
	return out, nil
}

// CountByDay buckets documents matching filter by the calendar day of
// timeField, optionally extended with extra grouping dimensions (e.g. a user
// identifier). timeField must be a field reference like "$savingTime", not a
// bare field name; anything else fails fast before contacting the store.
// Degrades on execution failure
func (c Collection) CountByDay(ctx context.Context, timeField string, filter, extra bson.M) ([]bson.M, error) {
	if !strings.HasPrefix(timeField, "$") {
		return nil, perr.WithOp(
			perr.InvalidArgf("time field %q must be a $-prefixed field reference", timeField), "countByDay")
	}

	key := bson.M{
		"year":  bson.M{"$year": timeField},
		"month": bson.M{"$month": timeField},
		"day":   bson.M{"$dayOfMonth": timeField},
	}
	for k, v := range extra {
		key[k] = v
	}
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: filter}},
		bson.D{{Key: "$group", Value: bson.M{"_id": key, "count": bson.M{"$sum": 1}}}},
	}

	info := map[string]any{"collection": c.name, "timeField": timeField, "filter": filter, "extra": extra}
	return c.contained(ctx, "countByDay", info, func(ctx context.Context, d Docs) ([]bson.M, error) {
		return allDocs(ctx, d, pipeline)
	})
}

// CountByObject buckets every document by the given group key and returns the
// buckets sorted by descending count. A nil key collapses to a single bucket
// whose count is the collection total. Degrades on execution failure
func (c Collection) CountByObject(ctx context.Context, key bson.M) ([]bson.M, error) {
	if key == nil {
		key = bson.M{}
	}
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$group", Value: bson.M{"_id": key, "count": bson.M{"$sum": 1}}}},
		bson.D{{Key: "$sort", Value: bson.M{"count": -1}}},
	}

	info := map[string]any{"collection": c.name, "key": key}
	return c.contained(ctx, "countByObject", info, func(ctx context.Context, d Docs) ([]bson.M, error) {
		return allDocs(ctx, d, pipeline)
	})
}

// Lookup runs the two caller-supplied stages verbatim. It is the escape hatch
// for join-style pipelines this layer has no named operation for. Degrades on
// execution failure
func (c Collection) Lookup(ctx context.Context, stageA, stageB bson.D) ([]bson.M, error) {
	pipeline := mongo.Pipeline{stageA, stageB}

	info := map[string]any{"collection": c.name, "stageA": stageA, "stageB": stageB}
	return c.contained(ctx, "lookup", info, func(ctx context.Context, d Docs) ([]bson.M, error) {
		return allDocs(ctx, d, pipeline)
	})
}

// allDocs executes pipeline and drains the cursor
func allDocs(ctx context.Context, d Docs, pipeline mongo.Pipeline) ([]bson.M, error) {
	cur, err := d.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	var out []bson.M
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
