package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/noah-isme/tutor-billing/internal/codec"
	"github.com/noah-isme/tutor-billing/internal/models"
	appErrors "github.com/noah-isme/tutor-billing/pkg/errors"
)

type importOptions struct {
	bundle     string
	students   string
	parents    string
	schedules  string
	onConflict string
}

func newImportCmd() *cobra.Command {
	opts := &importOptions{}
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Replace all data with a bundle or the legacy export files",
		Long: `Replace the current data with an imported bundle and save it to Drive.

Either pass --bundle with a single bundle file, or any of --students,
--parents and --schedules with the three legacy export files.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runImport(cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.bundle, "bundle", "", "bundle JSON file")
	cmd.Flags().StringVar(&opts.students, "students", "", "legacy students file")
	cmd.Flags().StringVar(&opts.parents, "parents", "", "legacy parents file")
	cmd.Flags().StringVar(&opts.schedules, "schedules", "", "legacy schedules file")
	cmd.Flags().StringVar(&opts.onConflict, "on-conflict", "prompt", "prompt, reload, overwrite or cancel")
	cmd.MarkFlagsMutuallyExclusive("bundle", "students")
	cmd.MarkFlagsMutuallyExclusive("bundle", "parents")
	cmd.MarkFlagsMutuallyExclusive("bundle", "schedules")
	return cmd
}

func runImport(cmd *cobra.Command, opts *importOptions) error {
	if opts.bundle == "" && opts.students == "" && opts.parents == "" && opts.schedules == "" {
		return fmt.Errorf("pass --bundle or at least one of --students, --parents, --schedules")
	}
	resolver, err := resolverFor(opts.onConflict)
	if err != nil {
		return err
	}

	cfg, logr, err := loadRuntime()
	if err != nil {
		return err
	}
	defer logr.Sync() //nolint:errcheck

	ctx := cmd.Context()
	a, err := newApp(ctx, cfg, logr, resolver)
	if err != nil {
		return err
	}
	defer a.close()

	bundle, err := readImport(a.codec, opts)
	if err != nil {
		return err
	}

	if !a.connect(ctx) {
		fmt.Fprintln(cmd.ErrOrStderr(), "Not connected to Drive; the import is kept in the local mirror only.")
	}
	outcome, err := a.sync.Import(ctx, bundle)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d students, %d archived, %d parents, %d months (%s)\n",
		len(bundle.StudentsData), len(bundle.ArchivedStudentsData), len(bundle.ParentsData), len(bundle.Months), outcome)
	fmt.Fprintln(cmd.OutOrStdout(), a.sync.Status().Message)
	return nil
}

func readImport(c *codec.Codec, opts *importOptions) (models.Bundle, error) {
	if opts.bundle != "" {
		raw, err := os.ReadFile(opts.bundle)
		if err != nil {
			return models.Bundle{}, fmt.Errorf("read bundle: %w", err)
		}
		trimmed := bytes.TrimSpace(raw)
		if !json.Valid(trimmed) || len(trimmed) == 0 || trimmed[0] != '{' {
			return models.Bundle{}, appErrors.Clone(appErrors.ErrImportFailed, "bundle must be a JSON object")
		}
		return c.Decode(trimmed), nil
	}

	var files codec.LegacyFiles
	for _, f := range []struct {
		path string
		dst  *[]byte
	}{{opts.students, &files.Students}, {opts.parents, &files.Parents}, {opts.schedules, &files.Schedules}} {
		if f.path == "" {
			continue
		}
		raw, err := os.ReadFile(f.path)
		if err != nil {
			return models.Bundle{}, fmt.Errorf("read %s: %w", f.path, err)
		}
		*f.dst = raw
	}
	return c.FromLegacyFiles(files)
}
