package main

import (
	"fmt"
	"log/slog"

	"noteapp-server/internal/config"
	"noteapp-server/internal/repository"

	"github.com/spf13/cobra"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Create the CouchDB database, index and validation document",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Database.Driver != config.DriverCouchDB {
			return fmt.Errorf("setup needs DB_DRIVER=%s, got %s", config.DriverCouchDB, cfg.Database.Driver)
		}

		client, err := newCouchClient()
		if err != nil {
			return err
		}
		defer client.Close()

		if err := repository.EnsureSchema(cmd.Context(), client, cfg.Database.Name); err != nil {
			return err
		}

		slog.Info("database ready", "db", cfg.Database.Name, "host", cfg.Database.Host)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(setupCmd)
}
