package app

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	tablesync "github.com/tablekit/go-tablesync"
	"github.com/tablekit/go-tablesync/adapters/bitable"
	"github.com/tablekit/go-tablesync/adapters/googlesheets"
	"github.com/tablekit/go-tablesync/source"
)

var (
	flagTarget    string
	flagSheetName string
	flagMode      string
	flagKeyColumn string
	flagBatchSize int
)

var syncCmd = &cobra.Command{
	Use:   "sync <file>",
	Short: "Sync a local file to the configured remote table",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadRunConfig()
		if err != nil {
			return err
		}

		dataset, err := source.Read(args[0], source.Options{SheetName: flagSheetName})
		if err != nil {
			return fmt.Errorf("loading %s: %w", args[0], err)
		}
		logger.Info().
			Str("file", args[0]).
			Int("rows", len(dataset.Rows)).
			Int("columns", len(dataset.Header)).
			Stringer("mode", cfg.Mode).
			Msg("source loaded")

		ctrl, err := cfg.Controller(logger)
		if err != nil {
			return err
		}

		switch flagTarget {
		case "bitable":
			service, err := newBitableService()
			if err != nil {
				return err
			}
			engine, err := tablesync.NewEngine(service, ctrl, cfg, logger)
			if err != nil {
				return err
			}
			return engine.Sync(cmd.Context(), dataset.Rows)

		case "sheets":
			grid, err := newSheetsGrid(cmd)
			if err != nil {
				return err
			}
			syncer, err := tablesync.NewGridSyncer(grid, ctrl, cfg, viper.GetString("sheet_id"), 1, 1, logger)
			if err != nil {
				return err
			}
			return syncer.Sync(cmd.Context(), dataset.Values())

		default:
			return tablesync.NewConfigError("target", fmt.Sprintf("unknown target %q (want bitable or sheets)", flagTarget))
		}
	},
}

func init() {
	syncCmd.Flags().StringVar(&flagTarget, "target", "bitable", "remote target: bitable or sheets")
	syncCmd.Flags().StringVar(&flagSheetName, "sheet-name", "", "worksheet to read from workbook sources")
	syncCmd.Flags().StringVar(&flagMode, "mode", "", "sync mode: full, incremental, overwrite, or clone")
	syncCmd.Flags().StringVar(&flagKeyColumn, "key-column", "", "column used to match local rows to remote records")
	syncCmd.Flags().IntVar(&flagBatchSize, "batch-size", 0, "rows per write batch")
	rootCmd.AddCommand(syncCmd)
}

// loadRunConfig resolves the task file against the defaults, then applies
// flag overrides on top.
func loadRunConfig() (*tablesync.Config, error) {
	var cfg *tablesync.Config
	if flagTaskFile != "" {
		loaded, err := tablesync.LoadConfig(flagTaskFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		cfg = tablesync.DefaultConfig()
	}

	if flagMode != "" {
		mode, err := tablesync.ParseSyncMode(flagMode)
		if err != nil {
			return nil, err
		}
		cfg.Mode = mode
	}
	if flagKeyColumn != "" {
		cfg.KeyColumn = flagKeyColumn
	}
	if flagBatchSize > 0 {
		cfg.BatchSize = flagBatchSize
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newBitableService builds the bitable target from the environment
// (TABLESYNC_APP_ID, TABLESYNC_APP_SECRET, TABLESYNC_APP_TOKEN,
// TABLESYNC_TABLE_ID).
func newBitableService() (*bitable.Service, error) {
	return bitable.New(bitable.Config{
		AppID:     viper.GetString("app_id"),
		AppSecret: viper.GetString("app_secret"),
		AppToken:  viper.GetString("app_token"),
		TableID:   viper.GetString("table_id"),
	})
}

// newSheetsGrid builds the sheets target from the environment
// (TABLESYNC_SPREADSHEET_ID, TABLESYNC_SHEET_ID) and Google credentials
// (GOOGLE_APPLICATION_CREDENTIALS or Application Default Credentials).
func newSheetsGrid(cmd *cobra.Command) (*googlesheets.Grid, error) {
	cfg := googlesheets.Config{SpreadsheetID: viper.GetString("spreadsheet_id")}
	if path := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); path != "" {
		return googlesheets.NewWithJSONKeyFile(cmd.Context(), cfg, path)
	}
	return googlesheets.NewWithDefaultCredentials(cmd.Context(), cfg)
}
