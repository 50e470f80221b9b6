// Command example syncs a local CSV file into a Feishu Bitable table using
// the library directly, without the tablesync CLI. Credentials come from
// the environment:
//
//	TABLESYNC_APP_ID, TABLESYNC_APP_SECRET, TABLESYNC_APP_TOKEN,
//	TABLESYNC_TABLE_ID
package main

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"

	tablesync "github.com/tablekit/go-tablesync"
	"github.com/tablekit/go-tablesync/adapters/bitable"
	"github.com/tablekit/go-tablesync/source"
)

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		With().Timestamp().Logger()

	dataset, err := source.Read("testdata/users.csv", source.Options{})
	if err != nil {
		logger.Fatal().Err(err).Msg("loading source file")
	}

	service, err := bitable.New(bitable.Config{
		AppID:     os.Getenv("TABLESYNC_APP_ID"),
		AppSecret: os.Getenv("TABLESYNC_APP_SECRET"),
		AppToken:  os.Getenv("TABLESYNC_APP_TOKEN"),
		TableID:   os.Getenv("TABLESYNC_TABLE_ID"),
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("configuring bitable service")
	}

	cfg := tablesync.DefaultConfig()
	cfg.Mode = tablesync.SyncFull
	cfg.KeyColumn = "id"
	cfg.RateLimit = tablesync.LimitConfig{
		Kind:        tablesync.LimitSlidingWindow,
		Window:      time.Second,
		MaxRequests: 10,
	}

	ctrl, err := cfg.Controller(logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("building request controller")
	}
	engine, err := tablesync.NewEngine(service, ctrl, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("building engine")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	if err := engine.Sync(ctx, dataset.Rows); err != nil {
		logger.Fatal().Err(err).Msg("sync failed")
	}
	logger.Info().Int("rows", len(dataset.Rows)).Msg("sync complete")
}
