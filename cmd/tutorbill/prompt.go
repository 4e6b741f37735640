package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/noah-isme/tutor-billing/internal/models"
	"github.com/noah-isme/tutor-billing/internal/service"
)

const conflictTimeLayout = "2006-01-02 15:04:05"

// promptResolver asks on the terminal how to handle remote drift.
func promptResolver() service.ConflictResolver {
	return service.ResolverFunc(func(ctx context.Context, conflict models.Conflict) (models.ConflictChoice, error) {
		choice := string(models.ConflictCancel)
		selectForm := huh.NewForm(huh.NewGroup(
			huh.NewSelect[string]().
				Title("The Drive copy changed since it was last loaded").
				Description(describeConflict(conflict)).
				Options(
					huh.NewOption("Reload the cloud version (discard local changes)", string(models.ConflictReload)),
					huh.NewOption("Overwrite the cloud version with local data", string(models.ConflictOverwrite)),
					huh.NewOption("Cancel this save", string(models.ConflictCancel)),
				).
				Value(&choice),
		))
		if err := selectForm.RunWithContext(ctx); err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				return models.ConflictCancel, nil
			}
			return models.ConflictCancel, err
		}

		picked := models.ConflictChoice(choice)
		if picked == models.ConflictCancel {
			return picked, nil
		}

		confirmed := false
		confirmForm := huh.NewForm(huh.NewGroup(
			huh.NewConfirm().
				Title(confirmTitle(picked)).
				Affirmative("Yes").
				Negative("No").
				Value(&confirmed),
		))
		if err := confirmForm.RunWithContext(ctx); err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				return models.ConflictCancel, nil
			}
			return models.ConflictCancel, err
		}
		if !confirmed {
			return models.ConflictCancel, nil
		}
		return picked, nil
	})
}

func describeConflict(conflict models.Conflict) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Last seen version: %s\n", orUnknown(conflict.LastSeenVersion))
	fmt.Fprintf(&b, "Cloud version: %s", orUnknown(conflict.RemoteVersion))
	if !conflict.RemoteModifiedTime.IsZero() {
		fmt.Fprintf(&b, " (modified %s)", conflict.RemoteModifiedTime.Local().Format(conflictTimeLayout))
	}
	return b.String()
}

func confirmTitle(choice models.ConflictChoice) string {
	if choice == models.ConflictReload {
		return "Discard local changes and reload from Drive?"
	}
	return "Replace the Drive copy with local data?"
}

func orUnknown(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}

// resolverFor maps the --on-conflict flag to a resolver.
func resolverFor(mode string) (service.ConflictResolver, error) {
	switch strings.ToLower(mode) {
	case "", "prompt":
		return promptResolver(), nil
	case string(models.ConflictReload), string(models.ConflictOverwrite), string(models.ConflictCancel):
		return service.FixedResolver(models.ConflictChoice(strings.ToLower(mode))), nil
	default:
		return nil, fmt.Errorf("unknown --on-conflict value %q (want prompt, reload, overwrite or cancel)", mode)
	}
}
