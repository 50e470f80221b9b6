package app

import (
	"fmt"

	"github.com/spf13/cobra"

	tablesync "github.com/tablekit/go-tablesync"
	"github.com/tablekit/go-tablesync/source"
)

var planCmd = &cobra.Command{
	Use:   "plan <file>",
	Short: "Compute the sync delta without writing to the remote table",
	Long: `plan loads the local file, reads the current remote state, and
prints how many records a sync would create, update, and delete. The remote
table is never modified. Only the bitable target supports planning; the grid
target rewrites in place and has no record-level delta.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadRunConfig()
		if err != nil {
			return err
		}

		dataset, err := source.Read(args[0], source.Options{SheetName: flagSheetName})
		if err != nil {
			return fmt.Errorf("loading %s: %w", args[0], err)
		}

		ctrl, err := cfg.Controller(logger)
		if err != nil {
			return err
		}
		service, err := newBitableService()
		if err != nil {
			return err
		}
		engine, err := tablesync.NewEngine(service, ctrl, cfg, logger)
		if err != nil {
			return err
		}

		plan, err := engine.Plan(cmd.Context(), dataset.Rows)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "mode:    %s\n", cfg.Mode)
		fmt.Fprintf(cmd.OutOrStdout(), "create:  %d\n", len(plan.ToCreate))
		fmt.Fprintf(cmd.OutOrStdout(), "update:  %d\n", len(plan.ToUpdate))
		fmt.Fprintf(cmd.OutOrStdout(), "delete:  %d\n", len(plan.ToDelete))
		return nil
	},
}

func init() {
	planCmd.Flags().StringVar(&flagSheetName, "sheet-name", "", "worksheet to read from workbook sources")
	planCmd.Flags().StringVar(&flagMode, "mode", "", "sync mode: full, incremental, overwrite, or clone")
	planCmd.Flags().StringVar(&flagKeyColumn, "key-column", "", "column used to match local rows to remote records")
	rootCmd.AddCommand(planCmd)
}
