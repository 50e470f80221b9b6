package app

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const sampleTask = `# tablesync task file
sync_mode: full          # full | incremental | overwrite | clone
key_column: id           # column used to match rows; required for overwrite
batch_size: 500          # rows per write batch
column_batch_size: 80    # columns per grid band (sheets target)
rate_limit_delay: 0.05   # seconds to pause between successful batches
# columns:               # selective sync; omit to sync every column
#   - id
#   - name

retry:
  strategy: exponential_backoff   # exponential_backoff | linear_growth | fixed_wait
  initial_delay: 0.5              # seconds
  max_retries: 3
  # max_wait_time: 60             # seconds; omit for no ceiling

rate_limit:
  strategy: fixed_wait            # fixed_wait | sliding_window | fixed_window
  delay: 0.1                      # seconds between calls (fixed_wait)
  # window_size: 1                # seconds (windowed strategies)
  # max_requests: 10              # per window (windowed strategies)
`

var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a sample task file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "tablesync.yaml"
		if len(args) == 1 {
			path = args[0]
		}

		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists", path)
		}
		if err := os.WriteFile(path, []byte(sampleTask), 0644); err != nil {
			return fmt.Errorf("writing task file: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
