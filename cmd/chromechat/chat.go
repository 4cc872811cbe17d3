package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/chromechat/internal/config"
	"github.com/vovakirdan/chromechat/internal/log"
	"github.com/vovakirdan/chromechat/internal/session"
)

func newChatCmd() *cobra.Command {
	var url string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Join the relay from the terminal",
		RunE: func(cmd *cobra.Command, _ []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			logLevel, _ := cmd.Flags().GetString("log-level")

			cfg, _, err := config.Load(nil, configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			cfg.UpdateFrom(config.Config{ServerURL: url, LogLevel: logLevel})
			logger := log.New(cfg.LogLevel)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			s, err := session.Dial(ctx, cfg.ServerURL, session.Options{Logger: logger})
			if err != nil {
				return err
			}
			defer s.Close()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Connected to %s as %s. Type a message and press Enter; Ctrl+C to exit.\n", cfg.ServerURL, s.ID())

			r := newRenderer(out, s.IsMine)
			s.OnChange(r.Render)

			runErr := make(chan error, 1)
			go func() { runErr <- s.Run(ctx) }()

			go func() {
				readInput(ctx, cmd.InOrStdin(), func(line string) {
					// Fire-and-forget: the line is consumed even if the send fails.
					if err := s.Submit(ctx, line); err != nil {
						logger.Warn().Err(err).Msg("send failed")
					}
				})
				stop()
			}()

			select {
			case err := <-runErr:
				return err
			case <-ctx.Done():
				return nil
			}
		},
	}

	cmd.Flags().StringVar(&url, "url", "", "relay WebSocket URL (overrides server_url)")
	return cmd
}

func readInput(ctx context.Context, in io.Reader, submit func(string)) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		submit(scanner.Text())
	}
}
