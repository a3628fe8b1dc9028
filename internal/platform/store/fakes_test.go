package store

import (
	"context"
	"reflect"
	"sync"
	"testing"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/nkint/yttrex/internal/platform/alarm"
	"github.com/nkint/yttrex/internal/platform/testkit"
)

// fakeDB is the shared in-memory backend behind every fake dial. Setting
// execErr makes every store interaction fail, simulating pipeline/query
// failures without touching acquisition
type fakeDB struct {
	mu   sync.Mutex
	cols map[string][]bson.M

	execErr error

	pipelines []any      // every pipeline passed to Aggregate
	finds     []FindOpts // every FindOpts passed to Find
	updates   int
	deletes   int
}

func newFakeDB() *fakeDB { return &fakeDB{cols: map[string][]bson.M{}} }

type fakeDialer struct {
	db      *fakeDB
	dialErr error

	dials    testkit.Counter
	releases testkit.Counter
}

func newFakeDialer() *fakeDialer { return &fakeDialer{db: newFakeDB()} }

func (f *fakeDialer) Dial(context.Context) (Conn, error) {
	if f.dialErr != nil {
		return nil, f.dialErr
	}
	f.dials.Inc()
	return &fakeConn{d: f}, nil
}

type fakeConn struct{ d *fakeDialer }

func (c *fakeConn) Docs(name string) Docs       { return &fakeDocs{db: c.d.db, name: name} }
func (c *fakeConn) Ping(context.Context) error  { return c.d.db.execErr }
func (c *fakeConn) Close(context.Context) error { c.d.releases.Inc(); return nil }

type fakeDocs struct {
	db   *fakeDB
	name string
}

func matches(doc, filter bson.M) bool {
	for k, v := range filter {
		if !reflect.DeepEqual(doc[k], v) {
			return false
		}
	}
	return true
}

func (f *fakeDocs) InsertOne(_ context.Context, doc any) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if f.db.execErr != nil {
		return f.db.execErr
	}
	f.db.cols[f.name] = append(f.db.cols[f.name], doc.(bson.M))
	return nil
}

func (f *fakeDocs) InsertMany(_ context.Context, docs []any) (int, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if f.db.execErr != nil {
		return 0, f.db.execErr
	}
	for _, d := range docs {
		f.db.cols[f.name] = append(f.db.cols[f.name], d.(bson.M))
	}
	return len(docs), nil
}

func (f *fakeDocs) UpdateOne(_ context.Context, filter, update any, upsert bool) (Ack, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	f.db.updates++
	if f.db.execErr != nil {
		return Ack{}, f.db.execErr
	}

	sel := filter.(bson.M)
	set, _ := update.(bson.M)["$set"].(bson.M)
	for i, doc := range f.db.cols[f.name] {
		if matches(doc, sel) {
			for k, v := range set {
				doc[k] = v
			}
			f.db.cols[f.name][i] = doc
			return Ack{Matched: 1, Modified: 1}, nil
		}
	}
	if upsert {
		merged := bson.M{}
		for k, v := range sel {
			merged[k] = v
		}
		for k, v := range set {
			merged[k] = v
		}
		f.db.cols[f.name] = append(f.db.cols[f.name], merged)
		return Ack{Upserted: 1}, nil
	}
	return Ack{}, nil
}

func (f *fakeDocs) ReplaceOne(_ context.Context, filter, doc any, upsert bool) (Ack, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if f.db.execErr != nil {
		return Ack{}, f.db.execErr
	}
	sel := filter.(bson.M)
	for i, cur := range f.db.cols[f.name] {
		if matches(cur, sel) {
			f.db.cols[f.name][i] = doc.(bson.M)
			return Ack{Matched: 1, Modified: 1}, nil
		}
	}
	if upsert {
		f.db.cols[f.name] = append(f.db.cols[f.name], doc.(bson.M))
		return Ack{Upserted: 1}, nil
	}
	return Ack{}, nil
}

func (f *fakeDocs) DeleteMany(_ context.Context, filter any) (int64, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	f.db.deletes++
	if f.db.execErr != nil {
		return 0, f.db.execErr
	}
	sel := filter.(bson.M)
	var kept []bson.M
	var n int64
	for _, doc := range f.db.cols[f.name] {
		if matches(doc, sel) {
			n++
			continue
		}
		kept = append(kept, doc)
	}
	f.db.cols[f.name] = kept
	return n, nil
}

func (f *fakeDocs) Find(_ context.Context, filter any, opt FindOpts) (Cursor, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	f.db.finds = append(f.db.finds, opt)
	if f.db.execErr != nil {
		return nil, f.db.execErr
	}
	sel := filter.(bson.M)
	var hits []bson.M
	for _, doc := range f.db.cols[f.name] {
		if matches(doc, sel) {
			hits = append(hits, doc)
		}
	}
	if opt.Skip > 0 {
		if opt.Skip >= int64(len(hits)) {
			hits = nil
		} else {
			hits = hits[opt.Skip:]
		}
	}
	if opt.Limit > 0 && int64(len(hits)) > opt.Limit {
		hits = hits[:opt.Limit]
	}
	return &fakeCursor{docs: hits}, nil
}

func (f *fakeDocs) Distinct(_ context.Context, field string, filter any) ([]any, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if f.db.execErr != nil {
		return nil, f.db.execErr
	}
	sel := filter.(bson.M)
	seen := map[any]bool{}
	var out []any
	for _, doc := range f.db.cols[f.name] {
		if !matches(doc, sel) {
			continue
		}
		v, ok := doc[field]
		if !ok || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out, nil
}

func (f *fakeDocs) CountDocuments(_ context.Context, filter any) (int64, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if f.db.execErr != nil {
		return 0, f.db.execErr
	}
	sel := filter.(bson.M)
	var n int64
	for _, doc := range f.db.cols[f.name] {
		if matches(doc, sel) {
			n++
		}
	}
	return n, nil
}

func (f *fakeDocs) Aggregate(_ context.Context, pipeline any) (Cursor, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	f.db.pipelines = append(f.db.pipelines, pipeline)
	if f.db.execErr != nil {
		return nil, f.db.execErr
	}
	// the fake only evaluates the single-bucket count shape; anything richer is
	// asserted through the recorded pipeline
	n := int64(len(f.db.cols[f.name]))
	return &fakeCursor{docs: []bson.M{{"_id": bson.M{}, "count": n}}}, nil
}

func (f *fakeDocs) CreateIndex(_ context.Context, _ any, opt IndexOpts) (string, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if f.db.execErr != nil {
		return "", f.db.execErr
	}
	if opt.Name != "" {
		return opt.Name, nil
	}
	return "idx_1", nil
}

// fakeCursor decodes through bson so typed destinations work the same way
// they do against the real driver
type fakeCursor struct{ docs []bson.M }

func (c *fakeCursor) All(_ context.Context, out any) error {
	rv := reflect.ValueOf(out).Elem()
	for _, d := range c.docs {
		raw, err := bson.Marshal(d)
		if err != nil {
			return err
		}
		ev := reflect.New(rv.Type().Elem())
		if err := bson.Unmarshal(raw, ev.Interface()); err != nil {
			return err
		}
		rv.Set(reflect.Append(rv, ev.Elem()))
	}
	return nil
}

// testStore wires a Store to a fresh fake dialer and an in-memory alarm sink
func testStore(t *testing.T) (*Store, *fakeDialer, *alarm.MemSink) {
	t.Helper()
	fd := newFakeDialer()
	sink := alarm.NewMemSink()
	s, err := Open(testConfig(), WithDialer(fd), WithAlarms(sink))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return s, fd, sink
}

func testConfig() Config {
	return Config{
		AppName: "yttrex-test",
		Mongo:   MongoConfig{URL: "mongodb://localhost:27017", Database: "yttrex"},
	}
}
