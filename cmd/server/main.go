package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mealsignal/backend/config"
	"github.com/mealsignal/backend/internal/usecase"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "server",
		Short:         "MealSignal backend: photo meal estimates, workouts and gentle nudges",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd())
	root.AddCommand(newDigestCmd())
	root.AddCommand(newNormalizeCmd())
	return root
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := newLogger(cfg)
			defer logger.Sync()

			a, err := newApp(cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
}

// digestOutput is what the digest command prints
type digestOutput struct {
	Home   usecase.HomeMarkers   `json:"home"`
	Nudges []usecase.ScoredNudge `json:"nudges"`
}

func newDigestCmd() *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "digest",
		Short: "Print a user's home markers and nudges as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := newLogger(cfg)
			defer logger.Sync()

			store, err := openStore(cfg, logger)
			if err != nil {
				return err
			}
			defer store.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			digest := usecase.NewDigestService(store, cfg.Location(), logger, nil)
			home, err := digest.Home(ctx, userID)
			if err != nil {
				return err
			}
			nudges, err := digest.Nudges(ctx, userID)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), digestOutput{Home: home, Nudges: nudges})
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user id to summarize")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func newNormalizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "normalize <file>",
		Short: "Normalize a raw vision estimate JSON file and print the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var data []byte
			var err error
			if args[0] == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(args[0])
			}
			if err != nil {
				return fmt.Errorf("reading estimate: %w", err)
			}
			return writeJSON(cmd.OutOrStdout(), usecase.NormalizeJSON(data))
		},
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
