// Package app wires the tablesync command tree. Configuration comes from
// flags, then environment variables, then .env files, then the task file.
package app

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	flagTaskFile  string
	flagEnvFile   string
	flagVerbose   bool
	flagLogFormat string

	logger = zerolog.Nop()
)

var rootCmd = &cobra.Command{
	Use:   "tablesync",
	Short: "Sync local tabular files to remote table services",
	Long: `tablesync reconciles a local .xlsx or .csv file against a remote
table service (a Feishu Bitable table or a Google Sheets worksheet) in one
of four modes: full, incremental, overwrite, or clone.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loadEnvFiles()

		viper.SetEnvPrefix("TABLESYNC")
		viper.AutomaticEnv()
		viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

		logger = newLogger(flagVerbose, flagLogFormat)
		return nil
	},
}

// Execute runs the command tree, logging the failure before returning it.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		logger.Error().Err(err).Msg("command failed")
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagTaskFile, "task", "t", "", "task file (YAML) with sync settings")
	rootCmd.PersistentFlags().StringVar(&flagEnvFile, "env-file", "", "extra .env file to load")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&flagLogFormat, "log-format", "auto", "log format: auto, console, or json")
}

// loadEnvFiles loads .env files without overriding variables already set in
// the environment.
func loadEnvFiles() {
	if flagEnvFile != "" {
		_ = godotenv.Load(flagEnvFile)
	}
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load(".env")
}
