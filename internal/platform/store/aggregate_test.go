package store

import (
	"context"
	stderrs "errors"
	"testing"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	perr "github.com/nkint/yttrex/internal/platform/errors"
)

func TestCountByMatchPropagatesErrors(t *testing.T) {
	t.Parallel()

	s, fd, sink := testStore(t)
	ctx := context.Background()
	col := s.Collection("metadata")

	if _, err := col.WriteOne(ctx, bson.M{"watcher": "pk"}); err != nil {
		t.Fatalf("WriteOne: %v", err)
	}
	n, err := col.CountByMatch(ctx, bson.M{"watcher": "pk"})
	if err != nil || n != 1 {
		t.Fatalf("n=%d err=%v", n, err)
	}

	fd.db.execErr = stderrs.New("count failed")
	if _, err := col.CountByMatch(ctx, bson.M{}); err == nil {
		t.Fatalf("count failures must propagate")
	}
	if sink.Len() != 0 {
		t.Fatalf("counts never degrade, got %d alarms", sink.Len())
	}
}

func TestCountByDayRejectsBareFieldName(t *testing.T) {
	t.Parallel()

	s, fd, sink := testStore(t)

	_, err := s.Collection("supporters").CountByDay(context.Background(), "savingTime", bson.M{}, nil)
	if !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
		t.Fatalf("expected precondition error, got %v", err)
	}
	if fd.dials.Value() != 0 {
		t.Fatalf("precondition must fail before contacting the store")
	}
	if sink.Len() != 0 {
		t.Fatalf("programmer errors are never alarmed")
	}
}

func TestCountByDayBuildsCalendarKeyWithExtraDims(t *testing.T) {
	t.Parallel()

	s, fd, _ := testStore(t)
	_, err := s.Collection("supporters").CountByDay(
		context.Background(), "$savingTime", bson.M{"version": "1.4.2"}, bson.M{"supporter": "$publicKey"})
	if err != nil {
		t.Fatalf("CountByDay: %v", err)
	}

	if len(fd.db.pipelines) != 1 {
		t.Fatalf("pipelines: %d", len(fd.db.pipelines))
	}
	p := fd.db.pipelines[0].(mongo.Pipeline)
	if len(p) != 2 || p[0][0].Key != "$match" || p[1][0].Key != "$group" {
		t.Fatalf("stage shape: %v", p)
	}
	group := p[1][0].Value.(bson.M)
	key := group["_id"].(bson.M)
	if !hasKeyExpr(key, "year", "$year") || !hasKeyExpr(key, "month", "$month") || !hasKeyExpr(key, "day", "$dayOfMonth") {
		t.Fatalf("calendar key: %v", key)
	}
	if key["supporter"] != "$publicKey" {
		t.Fatalf("extra dim lost: %v", key)
	}
	if count := group["count"].(bson.M); count["$sum"] != 1 {
		t.Fatalf("count spec: %v", count)
	}
}

func hasKeyExpr(key bson.M, name, op string) bool {
	m, ok := key[name].(bson.M)
	if !ok {
		return false
	}
	_, ok = m[op]
	return ok
}

func TestCountByObjectDefaultsToSingleBucket(t *testing.T) {
	t.Parallel()

	s, fd, _ := testStore(t)
	ctx := context.Background()
	col := s.Collection("supporters")

	for i := 0; i < 4; i++ {
		if _, err := col.WriteOne(ctx, bson.M{"n": int32(i)}); err != nil {
			t.Fatalf("WriteOne: %v", err)
		}
	}

	out, err := col.CountByObject(ctx, nil)
	if err != nil {
		t.Fatalf("CountByObject: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected one bucket, got %v", out)
	}
	if out[0]["count"] != int64(4) {
		t.Fatalf("bucket count: %v", out[0])
	}

	p := fd.db.pipelines[len(fd.db.pipelines)-1].(mongo.Pipeline)
	group := p[0][0].Value.(bson.M)
	if id, ok := group["_id"].(bson.M); !ok || len(id) != 0 {
		t.Fatalf("nil key must group by the empty object, got %v", group["_id"])
	}
	if sort := p[1][0].Value.(bson.M); sort["count"] != -1 {
		t.Fatalf("sort stage: %v", sort)
	}
}

// The containment-governed set must report exactly one alarm carrying the
// operation name and original inputs, and hand back an empty sequence
func TestContainmentDegradesPipelineFailures(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	stageA := bson.D{{Key: "$match", Value: bson.M{"watcher": "pk"}}}
	stageB := bson.D{{Key: "$limit", Value: 10}}

	cases := []struct {
		name   string
		caller string
		run    func(c Collection) ([]bson.M, error)
		check  func(t *testing.T, info map[string]any)
	}{
		{
			name:   "countByDay",
			caller: "countByDay",
			run: func(c Collection) ([]bson.M, error) {
				return c.CountByDay(ctx, "$savingTime", bson.M{"version": "1"}, bson.M{"u": "$uid"})
			},
			check: func(t *testing.T, info map[string]any) {
				if info["timeField"] != "$savingTime" {
					t.Fatalf("timeField: %v", info)
				}
				if info["filter"].(bson.M)["version"] != "1" {
					t.Fatalf("filter: %v", info)
				}
			},
		},
		{
			name:   "countByObject",
			caller: "countByObject",
			run: func(c Collection) ([]bson.M, error) {
				return c.CountByObject(ctx, bson.M{"lang": "$lang"})
			},
			check: func(t *testing.T, info map[string]any) {
				if info["key"].(bson.M)["lang"] != "$lang" {
					t.Fatalf("key: %v", info)
				}
			},
		},
		{
			name:   "lookup",
			caller: "lookup",
			run: func(c Collection) ([]bson.M, error) {
				return c.Lookup(ctx, stageA, stageB)
			},
			check: func(t *testing.T, info map[string]any) {
				if _, ok := info["stageA"]; !ok {
					t.Fatalf("stageA missing: %v", info)
				}
				if _, ok := info["stageB"]; !ok {
					t.Fatalf("stageB missing: %v", info)
				}
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s, fd, sink := testStore(t)
			fd.db.execErr = stderrs.New("pipeline stage rejected")

			out, err := tc.run(s.Collection("metadata"))
			if err != nil {
				t.Fatalf("must degrade, got %v", err)
			}
			if out == nil || len(out) != 0 {
				t.Fatalf("expected empty non-nil slice, got %v", out)
			}

			recs := sink.Records()
			if len(recs) != 1 {
				t.Fatalf("expected exactly one alarm, got %d", len(recs))
			}
			if recs[0].Caller != tc.caller {
				t.Fatalf("caller: %q", recs[0].Caller)
			}
			if recs[0].What == "" {
				t.Fatalf("missing failure cause")
			}
			if recs[0].Info["collection"] != "metadata" {
				t.Fatalf("collection missing from info: %v", recs[0].Info)
			}
			tc.check(t, recs[0].Info)

			if got, want := fd.releases.Value(), fd.dials.Value(); got != want {
				t.Fatalf("releases=%d dials=%d", got, want)
			}
		})
	}
}

func TestAggregatePropagatesAndReturnsGroups(t *testing.T) {
	t.Parallel()

	s, fd, sink := testStore(t)
	ctx := context.Background()
	col := s.Collection("metadata")

	if _, err := col.WriteOne(ctx, bson.M{"watcher": "pk"}); err != nil {
		t.Fatalf("WriteOne: %v", err)
	}
	out, err := col.Aggregate(ctx, bson.M{"watcher": "pk"}, bson.M{"_id": "$watcher", "count": bson.M{"$sum": 1}})
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("results: %v", out)
	}

	fd.db.execErr = stderrs.New("bad group")
	if _, err := col.Aggregate(ctx, bson.M{}, bson.M{"_id": nil}); err == nil {
		t.Fatalf("generic aggregate must propagate")
	}
	if sink.Len() != 0 {
		t.Fatalf("generic aggregate never alarms")
	}
}

func TestLookupRunsStagesVerbatim(t *testing.T) {
	t.Parallel()

	s, fd, _ := testStore(t)
	stageA := bson.D{{Key: "$match", Value: bson.M{"id": "x"}}}
	stageB := bson.D{{Key: "$lookup", Value: bson.M{"from": "supporters", "localField": "p", "foreignField": "publicKey", "as": "supporter"}}}

	if _, err := s.Collection("metadata").Lookup(context.Background(), stageA, stageB); err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	p := fd.db.pipelines[len(fd.db.pipelines)-1].(mongo.Pipeline)
	if len(p) != 2 || p[0][0].Key != "$match" || p[1][0].Key != "$lookup" {
		t.Fatalf("stages were not passed verbatim: %v", p)
	}
}
