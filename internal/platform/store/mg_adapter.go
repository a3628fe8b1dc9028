package store

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	perr "github.com/nkint/yttrex/internal/platform/errors"
	"github.com/nkint/yttrex/internal/platform/store/mg"
)

// mgDialer acquires one driver client per Dial and wraps it in our seams
type mgDialer struct {
	cfg mg.Config
	db  string
}

func newMGDialer(cfg Config) *mgDialer {
	return &mgDialer{
		cfg: mg.Config{
			URL:            cfg.Mongo.URL,
			AppName:        cfg.AppName,
			ConnectTimeout: cfg.Mongo.ConnectTimeout,
			PingTimeout:    cfg.Mongo.PingTimeout,
		},
		db: cfg.Mongo.Database,
	}
}

func (d *mgDialer) Dial(ctx context.Context) (Conn, error) {
	cli, err := mg.Dial(ctx, d.cfg)
	if err != nil {
		return nil, err
	}
	return &mgConn{cli: cli, db: cli.Database(d.db)}, nil
}

type mgConn struct {
	cli *mongo.Client
	db  *mongo.Database
}

func (c *mgConn) Docs(name string) Docs           { return mgDocs{col: c.db.Collection(name)} }
func (c *mgConn) Ping(ctx context.Context) error  { return c.cli.Ping(ctx, readpref.Primary()) }
func (c *mgConn) Close(ctx context.Context) error { return c.cli.Disconnect(ctx) }

// mgDocs adapts one *mongo.Collection to the Docs seam. Driver errors leave
// here already mapped to project error codes
type mgDocs struct{ col *mongo.Collection }

func (d mgDocs) InsertOne(ctx context.Context, doc any) error {
	_, err := d.col.InsertOne(ctx, doc)
	return perr.FromMongof(err, "insert into %q", d.col.Name())
}

func (d mgDocs) InsertMany(ctx context.Context, docs []any) (int, error) {
	res, err := d.col.InsertMany(ctx, docs)
	if res == nil {
		return 0, perr.FromMongof(err, "insert many into %q", d.col.Name())
	}
	return len(res.InsertedIDs), perr.FromMongof(err, "insert many into %q", d.col.Name())
}

func (d mgDocs) UpdateOne(ctx context.Context, filter, update any, upsert bool) (Ack, error) {
	res, err := d.col.UpdateOne(ctx, filter, update, options.UpdateOne().SetUpsert(upsert))
	if err != nil {
		return Ack{}, perr.FromMongof(err, "update in %q", d.col.Name())
	}
	return Ack{Matched: res.MatchedCount, Modified: res.ModifiedCount, Upserted: res.UpsertedCount}, nil
}

func (d mgDocs) ReplaceOne(ctx context.Context, filter, doc any, upsert bool) (Ack, error) {
	res, err := d.col.ReplaceOne(ctx, filter, doc, options.Replace().SetUpsert(upsert))
	if err != nil {
		return Ack{}, perr.FromMongof(err, "replace in %q", d.col.Name())
	}
	return Ack{Matched: res.MatchedCount, Modified: res.ModifiedCount, Upserted: res.UpsertedCount}, nil
}

func (d mgDocs) DeleteMany(ctx context.Context, filter any) (int64, error) {
	res, err := d.col.DeleteMany(ctx, filter)
	if err != nil {
		return 0, perr.FromMongof(err, "delete from %q", d.col.Name())
	}
	return res.DeletedCount, nil
}

func (d mgDocs) Find(ctx context.Context, filter any, opt FindOpts) (Cursor, error) {
	fo := options.Find()
	if opt.Sort != nil {
		fo = fo.SetSort(opt.Sort)
	}
	if opt.Limit > 0 {
		fo = fo.SetLimit(opt.Limit)
	}
	if opt.Skip > 0 {
		fo = fo.SetSkip(opt.Skip)
	}
	cur, err := d.col.Find(ctx, filter, fo)
	if err != nil {
		return nil, perr.FromMongof(err, "find in %q", d.col.Name())
	}
	return mgCursor{cur: cur}, nil
}

func (d mgDocs) Distinct(ctx context.Context, field string, filter any) ([]any, error) {
	res := d.col.Distinct(ctx, field, filter)
	if err := res.Err(); err != nil {
		return nil, perr.FromMongof(err, "distinct %q in %q", field, d.col.Name())
	}
	var vals []any
	if err := res.Decode(&vals); err != nil {
		return nil, perr.FromMongof(err, "distinct %q in %q", field, d.col.Name())
	}
	return vals, nil
}

func (d mgDocs) CountDocuments(ctx context.Context, filter any) (int64, error) {
	n, err := d.col.CountDocuments(ctx, filter)
	if err != nil {
		return 0, perr.FromMongof(err, "count in %q", d.col.Name())
	}
	return n, nil
}

func (d mgDocs) Aggregate(ctx context.Context, pipeline any) (Cursor, error) {
	cur, err := d.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, perr.FromMongof(err, "aggregate in %q", d.col.Name())
	}
	return mgCursor{cur: cur}, nil
}

func (d mgDocs) CreateIndex(ctx context.Context, keys any, opt IndexOpts) (string, error) {
	io := options.Index()
	if opt.Unique {
		io = io.SetUnique(true)
	}
	if opt.Name != "" {
		io = io.SetName(opt.Name)
	}
	name, err := d.col.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: keys, Options: io})
	if err != nil {
		return "", perr.FromMongof(err, "create index on %q", d.col.Name())
	}
	return name, nil
}

// mgCursor adapts *mongo.Cursor; the driver's All drains and closes it
type mgCursor struct{ cur *mongo.Cursor }

func (c mgCursor) All(ctx context.Context, out any) error { return c.cur.All(ctx, out) }
