package main

import (
	"fmt"
	"io"
	"os"

	"github.com/aretw0/arbor/internal/compiler"
	"github.com/aretw0/arbor/internal/validator"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [dir]",
	Short: "Check dialog documents for consistency",
	Long: `Converts every dialog document in the directory, checks its structure
and crawls it from the root sequence, reporting unreachable sequences.
Leaf questions made only of raw route tokens are listed as hand-offs.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := "."
		if len(args) > 0 {
			dir = args[0]
		} else if cfg, err := loadConfig(cmd); err == nil && cfg.Dialogs.Dir != "" {
			dir = cfg.Dialogs.Dir
		}
		return runValidate(cmd.OutOrStdout(), dir)
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(w io.Writer, dir string) error {
	if _, err := os.Stat(dir); err != nil {
		return err
	}
	dialogs, err := compiler.NewConverter().ConvertDir(dir)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	if len(dialogs) == 0 {
		fmt.Fprintf(w, "No dialog documents found in %s\n", dir)
		return nil
	}

	failed := 0
	for _, d := range dialogs {
		if err := validator.ValidateDialog(d); err != nil {
			failed++
			fmt.Fprintf(w, "✗ %v\n", err)
			continue
		}
		r := validator.Crawl(d)
		fmt.Fprintf(w, "✓ dialog %d: %d sequences reachable", d.ID, len(r.Reachable))
		if len(r.DeadEnds) > 0 {
			fmt.Fprintf(w, ", hands off at items %v", r.DeadEnds)
		}
		fmt.Fprintln(w)
	}
	if failed > 0 {
		return fmt.Errorf("validation failed: %d of %d dialogs invalid", failed, len(dialogs))
	}
	fmt.Fprintln(w, "All dialogs are valid! ✅")
	return nil
}
