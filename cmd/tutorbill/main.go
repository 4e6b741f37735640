package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	_ "github.com/noah-isme/tutor-billing/api/swagger"
	"github.com/noah-isme/tutor-billing/pkg/config"
	"github.com/noah-isme/tutor-billing/pkg/logger"
)

// @title Tutor Billing API
// @version 1.0.0
// @description Local API for the tutoring billing app with Google Drive sync.
// @BasePath /
// @schemes http

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "tutorbill",
		Short:         "Tutor billing with Google Drive sync",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd(), newImportCmd(), newBackupCmd())
	return root
}

func loadRuntime() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to init logger: %w", err)
	}
	return cfg, logr, nil
}
