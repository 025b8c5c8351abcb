package main

import (
	"fmt"
	"log/slog"
	"os"

	"noteapp-server/internal/config"

	_ "github.com/go-kivik/kivik/v4/couchdb"

	"github.com/go-kivik/kivik/v4"
	"github.com/spf13/cobra"
)

var (
	verbose bool
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "noteapp",
	Short: "Note storage service with word statistics and tag-filtered listing",
	Long: `noteapp serves a JSON API for creating, reading, updating and deleting
tagged notes, backed by CouchDB or an in-process store.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		if verbose {
			loaded.Logging.Level = "debug"
		}
		cfg = loaded

		slog.SetDefault(cfg.Logging.NewLogger())
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

func newCouchClient() (*kivik.Client, error) {
	client, err := kivik.New("couch", cfg.Database.CouchURL())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to CouchDB: %w", err)
	}
	return client, nil
}
