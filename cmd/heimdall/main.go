package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

type exitError struct {
	code int
}

func (e exitError) Error() string {
	return fmt.Sprintf("exit with code %d", e.code)
}

func (e exitError) ExitCode() int {
	return e.code
}

func runWithSignals(run func(context.Context) error) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	errCh := make(chan error, 1)
	go func() {
		errCh <- run(ctx)
	}()

	select {
	case <-sigCh:
		cancel()
		// run owns graceful shutdown; a clean stop is a zero exit.
		return <-errCh
	case err := <-errCh:
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "heimdall",
		Short:         "Relay GitHub and Vercel webhooks to the Heimdall event backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	var port string
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the webhook relay server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithSignals(func(ctx context.Context) error {
				return runServe(ctx, port)
			})
		},
	}
	serveCmd.Flags().StringVar(&port, "port", "", "Port to listen on (overrides PORT)")

	rootCmd.AddCommand(serveCmd, newSignCmd(), newSendCmd())
	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		var exitErr interface{ ExitCode() int }
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.ExitCode())
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
