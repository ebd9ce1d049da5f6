package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/aretw0/arbor/internal/app"
	"github.com/aretw0/arbor/pkg/adapters/console"
	"github.com/aretw0/arbor/pkg/route"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Chat with the engine in the terminal",
	Long: `Runs the reference flows as a single user in the terminal.
Type a button number to press it, any other text to answer a question,
/back to go back, /menu for the main menu and /quit to leave.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		userID, _ := cmd.Flags().GetInt64("user")

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		out := os.Stdout
		messenger := console.NewMessenger(out, console.DefaultOptions(out)...)
		a, err := app.New(ctx, cfg, app.WithMessenger(messenger))
		if err != nil {
			return err
		}
		defer a.Close()

		if console.IsTerminal(out) {
			console.PrintBanner(out, termenv.EnvColorProfile())
		}

		loop := console.NewLoop(os.Stdin, out, a.Router, messenger, userID,
			console.WithMenuToken(route.Screen(cfg.Engine.DefaultScreen)),
			console.WithLoopLogger(a.Logger),
		)
		if err := loop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().Int64("user", 1, "User id of the terminal session")
}
