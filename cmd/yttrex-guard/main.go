// Command yttrex-guard verifies the configured mongo deployment is reachable
// and optionally prepares the indexes the collectors rely on. It exits zero on
// a healthy deployment, nonzero otherwise, so it slots into container
// healthchecks and CI gates
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/nkint/yttrex/internal/modkit/repokit"
	"github.com/nkint/yttrex/internal/platform/config"
	"github.com/nkint/yttrex/internal/platform/logger"
	"github.com/nkint/yttrex/internal/platform/store"
)

func main() {
	logger.Init(logger.FromEnv())
	l := logger.Named("guard")

	root := config.New()
	dbCfg := root.Prefix("MONGO_")

	var (
		fTimeout = flag.Duration("timeout", 10*time.Second, "overall deadline for the guard run")
		fEnsure  = flag.Bool("ensure-indexes", false, "create the collector indexes after the ping")
	)
	flag.Parse()

	st, err := store.Open(store.Config{
		AppName: root.MayString("APP_NAME", "yttrex-guard"),
		Mongo: store.MongoConfig{
			URL:            dbCfg.MustString("URL"),
			Database:       dbCfg.MayString("DATABASE", "yttrex"),
			ConnectTimeout: dbCfg.MayDuration("CONNECT_TIMEOUT", 5*time.Second),
			PingTimeout:    dbCfg.MayDuration("PING_TIMEOUT", 5*time.Second),
		},
	}, store.WithLogger(*l))
	if err != nil {
		l.Error().Err(err).Msg("store.Open failed")
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *fTimeout)
	defer cancel()

	if err := repokit.Ready(ctx, st, *fTimeout); err != nil {
		l.Error().Err(err).Msg("mongo unreachable")
		os.Exit(1)
	}
	l.Info().Msg("mongo reachable")

	if *fEnsure {
		cols := repokit.Named(config.SchemaFromEnv(), st)
		if err := ensureIndexes(ctx, cols); err != nil {
			l.Error().Err(err).Msg("index setup failed")
			os.Exit(1)
		}
		l.Info().Msg("indexes ensured")
	}
}

// ensureIndexes creates the lookup paths the collectors query on
func ensureIndexes(ctx context.Context, cols repokit.Collections) error {
	if err := repokit.Setup(ctx, cols, "supporters",
		repokit.EnsureIndex(bson.D{{Key: "publicKey", Value: 1}}, repokit.IndexOpts{Name: "publicKey_1", Unique: true}),
	); err != nil {
		return err
	}
	return repokit.Setup(ctx, cols, "metadata",
		repokit.EnsureIndex(bson.D{{Key: "id", Value: 1}}, repokit.IndexOpts{Name: "id_1", Unique: true}),
		repokit.EnsureIndex(bson.D{{Key: "savingTime", Value: -1}}, repokit.IndexOpts{Name: "savingTime_-1"}),
	)
}
