package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/aretw0/arbor/internal/app"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/persistence/middleware"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/aretw0/arbor/pkg/session"
	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage stored user sessions",
	Long:  `List, inspect, and reset the sessions held by the configured store.`,
}

var sessionLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List users with stored state",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		users, err := a.Sessions.List(cmd.Context())
		if err != nil {
			return fmt.Errorf("listing sessions: %w", err)
		}
		w := cmd.OutOrStdout()
		if len(users) == 0 {
			fmt.Fprintln(w, "No active sessions found.")
			return nil
		}
		fmt.Fprintln(w, "Active Sessions:")
		for _, u := range users {
			fmt.Fprintf(w, "- %d\n", u)
		}
		return nil
	},
}

// sessionView is the printable state of one user.
type sessionView struct {
	UserID   int64                `json:"user_id"`
	Position *domain.Position     `json:"position,omitempty"`
	Awaiting *domain.Position     `json:"awaiting_text,omitempty"`
	Trace    []string             `json:"trace"`
	Message  *session.LastMessage `json:"last_message,omitempty"`
	Draft    json.RawMessage      `json:"draft,omitempty"`
}

var sessionInspectCmd = &cobra.Command{
	Use:   "inspect <user-id>",
	Short: "Inspect the state of a user's session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid user id %q", args[0])
		}
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		s := a.Sessions.Session(userID)
		view := sessionView{UserID: userID}

		if p, ok, err := s.Position(ctx); err != nil {
			return err
		} else if ok {
			view.Position = &p
		}
		if p, ok, err := s.AwaitingText(ctx); err != nil {
			return err
		} else if ok {
			view.Awaiting = &p
		}
		if lm, ok, err := s.LastMessage(ctx); err != nil {
			return err
		} else if ok {
			view.Message = &lm
		}
		st, err := s.Trace(ctx)
		if err != nil {
			return err
		}
		view.Trace = st.Tokens()

		if view.Position != nil {
			draft, err := readDraft(cmd, a.Sessions.Store(), userID, view.Position.DialogID)
			if err != nil {
				return err
			}
			view.Draft = draft
		}

		data, err := json.MarshalIndent(view, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

var sessionRmCmd = &cobra.Command{
	Use:   "rm <user-id>...",
	Short: "Reset one or more sessions",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		w := cmd.OutOrStdout()
		failed := 0
		for _, arg := range args {
			userID, err := strconv.ParseInt(arg, 10, 64)
			if err == nil {
				err = a.Sessions.Reset(cmd.Context(), userID)
			}
			if err != nil {
				fmt.Fprintf(w, "Error removing '%s': %v\n", arg, err)
				failed++
				continue
			}
			fmt.Fprintf(w, "Removed session '%s'\n", arg)
		}
		if failed > 0 {
			return fmt.Errorf("%d sessions could not be removed", failed)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionLsCmd)
	sessionCmd.AddCommand(sessionInspectCmd)
	sessionCmd.AddCommand(sessionRmCmd)
	sessionInspectCmd.Flags().Bool("reveal", false, "Show draft answers without masking personal data")
}

// readDraft loads the draft of the active dialog, masking personal fields unless --reveal is set.
func readDraft(cmd *cobra.Command, store ports.SessionStore, userID int64, dialogID int) (json.RawMessage, error) {
	if reveal, _ := cmd.Flags().GetBool("reveal"); !reveal {
		redact, err := middleware.NewPIIMiddleware(middleware.DefaultPIIPatterns)
		if err != nil {
			return nil, err
		}
		store = redact(store)
	}
	raw, err := session.NewManager(store).Session(userID).Drafts(dialogID).LoadDraft(cmd.Context())
	if errors.Is(err, domain.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return json.RawMessage(raw), nil
}

func openApp(cmd *cobra.Command) (*app.App, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return app.New(cmd.Context(), cfg)
}
