package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dukerupert/giftledger/internal/guestscreen"
	"github.com/dukerupert/giftledger/internal/model"
)

const clearScreen = "\033[H\033[2J"

func newGuestCmd(opts *rootOptions) *cobra.Command {
	var (
		serverURL string
		columns   int
	)
	cmd := &cobra.Command{
		Use:   "guest",
		Short: "Show the guest screen in the terminal",
		Long: `Show the guest screen in the terminal. With --server the screen polls a
running giftledger server and also listens for pushed updates; otherwise it
polls the local database given by --db.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := opts.load()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			out := cmd.OutOrStdout()

			sub := guestscreen.NewSubscriber(func(snap model.Snapshot) {
				fmt.Fprint(out, clearScreen)
				if err := guestscreen.Render(out, guestscreen.View(snap, columns)); err != nil {
					logger.Warn("render guest screen", "error", err)
				}
			}, logger.With("component", "guestscreen"))

			fmt.Fprintln(out, "等待主屏数据...")

			if serverURL == "" {
				e, err := opts.open()
				if err != nil {
					return err
				}
				defer e.Close()
				return ignoreCanceled(sub.Poll(ctx, guestscreen.StoreSource(e.store), cfg.PollInterval))
			}

			go listenLoop(ctx, sub, pushURL(serverURL), cfg.PollInterval, logger)
			src := guestscreen.HTTPSource{BaseURL: serverURL}
			return ignoreCanceled(sub.Poll(ctx, src, cfg.PollInterval))
		},
	}
	cmd.Flags().StringVar(&serverURL, "server", "", "base URL of a running giftledger server")
	cmd.Flags().IntVar(&columns, "columns", guestscreen.DefaultColumns, "cells per page")
	return cmd
}

// listenLoop keeps a push connection open, redialing after failures.
// Polling covers any gap.
func listenLoop(ctx context.Context, sub *guestscreen.Subscriber, url string, backoff time.Duration, logger *slog.Logger) {
	for {
		err := sub.Listen(ctx, url)
		if ctx.Err() != nil {
			return
		}
		logger.Warn("push connection lost", "error", err)
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
	}
}

func pushURL(base string) string {
	base = strings.TrimRight(base, "/")
	switch {
	case strings.HasPrefix(base, "https://"):
		base = "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}
	return base + "/ws"
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
