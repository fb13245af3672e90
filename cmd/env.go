package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/zebutron/turbine-scoring-engine/internal/configsync"
	"github.com/zebutron/turbine-scoring-engine/internal/fetcher"
	"github.com/zebutron/turbine-scoring-engine/internal/scoring"
	"github.com/zebutron/turbine-scoring-engine/internal/store"
)

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "turbine.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

func newSyncer() *configsync.Syncer {
	f := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		UserAgent: "turbine-scoring/1.0",
		Timeout:   60 * time.Second,
	})
	syncer := configsync.New(f, cfg.Tuning.Dir, cfg.Tuning.RemoteURL)
	syncer.SetWindow(time.Duration(cfg.Tuning.FreshnessMins) * time.Minute)
	return syncer
}

// loadScoringRules resolves the rule table: an explicit --config path wins,
// then the newest tuning snapshot (fetching one when a remote is configured),
// then the built-in defaults.
func loadScoringRules(ctx context.Context, path string) (*scoring.Rules, string, error) {
	if path != "" {
		rules, err := scoring.LoadRules(path)
		if err != nil {
			return nil, "", err
		}
		return rules, path, nil
	}

	syncer := newSyncer()
	if snapshot, ok := syncer.LatestPath(); ok || cfg.Tuning.RemoteURL != "" {
		rules, err := syncer.LoadLatest(ctx)
		if err != nil {
			return nil, "", err
		}
		if snapshot == "" {
			snapshot, _ = syncer.LatestPath()
		}
		return rules, snapshot, nil
	}

	zap.L().Info("scoring config: using built-in defaults")
	return scoring.DefaultRules(), "builtin", nil
}
