package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

func newDatabaseCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init-db",
		Short: "Create collections, indexes and the search endpoint registry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			log, err := newLogger(s)
			if err != nil {
				return err
			}

			db, err := openDB(cmd.Context(), s, log)
			if err != nil {
				return err
			}
			defer db.Close(context.Background())

			return db.InitDB(cmd.Context())
		},
	}

	return cmd
}

func init() {
	rootCmd.AddCommand(newDatabaseCommand())
}
