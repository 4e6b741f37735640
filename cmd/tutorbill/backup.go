package main

import (
	"fmt"

	"github.com/spf13/cobra"

	appErrors "github.com/noah-isme/tutor-billing/pkg/errors"
)

func newBackupCmd() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Write the Drive copy as a visible backup file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logr, err := loadRuntime()
			if err != nil {
				return err
			}
			defer logr.Sync() //nolint:errcheck

			ctx := cmd.Context()
			a, err := newApp(ctx, cfg, logr, nil)
			if err != nil {
				return err
			}
			defer a.close()

			if !a.connect(ctx) {
				return appErrors.Clone(appErrors.ErrNotConnected, "sign in through the server before running a backup")
			}
			meta, err := a.sync.Backup(ctx, name)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Backup saved to My Drive: %s\n", meta.Name)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "file name (default backup_<timestamp>.json)")
	return cmd
}
