// Package mg provides a MongoDB client opener using the official v2 driver
package mg

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

// Config configures one dial
type Config struct {
	URL            string
	AppName        string
	ConnectTimeout time.Duration
	PingTimeout    time.Duration
}

var connect = mongo.Connect

// Dial opens a fresh client for the configured URL and verifies it with a
// primary ping before handing it out. The caller owns the Disconnect
func Dial(ctx context.Context, cfg Config) (*mongo.Client, error) {
	opts := options.Client().ApplyURI(cfg.URL)
	if cfg.AppName != "" {
		opts = opts.SetAppName(cfg.AppName)
	}
	if cfg.ConnectTimeout > 0 {
		opts = opts.SetConnectTimeout(cfg.ConnectTimeout)
	}

	cli, err := connect(opts) // use seam
	if err != nil {
		return nil, err
	}

	pt := cfg.PingTimeout
	if pt <= 0 {
		pt = 5 * time.Second
	}
	pctx, cancel := context.WithTimeout(ctx, pt)
	defer cancel()
	if err := cli.Ping(pctx, readpref.Primary()); err != nil {
		_ = cli.Disconnect(context.WithoutCancel(ctx))
		return nil, err
	}
	return cli, nil
}
