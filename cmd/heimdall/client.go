package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/roeintheglasses/heimdall/internal/relay"
	"github.com/spf13/cobra"
)

func newSignCmd() *cobra.Command {
	var secret, file string
	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Print the X-Hub-Signature-256 value for a payload",
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				return fmt.Errorf("--secret is required")
			}
			body, err := readPayload(file, cmd.InOrStdin())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), relay.Sign(secret, body))
			return nil
		},
	}
	cmd.Flags().StringVar(&secret, "secret", "", "Shared webhook secret")
	cmd.Flags().StringVar(&file, "file", "", "Payload file (default stdin)")
	return cmd
}

func readPayload(file string, stdin io.Reader) ([]byte, error) {
	if file == "" || file == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(file)
}

const (
	samplePush   = `{"ref":"refs/heads/main","repository":{"full_name":"roeintheglasses/heimdall"},"head_commit":{"id":"0000000","message":"test delivery"},"commits":[]}`
	sampleVercel = `{"type":"deployment.succeeded","payload":{"deployment":{"url":"heimdall-test.vercel.app"},"project":{"name":"heimdall"}}}`
)

func newSendCmd() *cobra.Command {
	var url, secret, event string
	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send a sample webhook to a running relay",
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := buildSampleRequest(cmd.Context(), url, secret, event)
			if err != nil {
				return err
			}

			client := &http.Client{Timeout: 15 * time.Second}
			resp, err := client.Do(req)
			if err != nil {
				return fmt.Errorf("sending webhook: %w", err)
			}
			defer resp.Body.Close()

			body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
			fmt.Fprintf(cmd.OutOrStdout(), "%d %s\n", resp.StatusCode, strings.TrimSpace(string(body)))
			if resp.StatusCode >= 300 {
				return exitError{code: 1}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&url, "url", "http://localhost:8080/api/webhook", "Relay webhook URL")
	cmd.Flags().StringVar(&secret, "secret", "", "Sign the payload with this secret")
	cmd.Flags().StringVar(&event, "event", "push", "Sample event: push or vercel")
	return cmd
}

// buildSampleRequest prepares a request shaped like a real GitHub push or
// Vercel deployment delivery.
func buildSampleRequest(ctx context.Context, url, secret, event string) (*http.Request, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	var body string
	switch event {
	case "push":
		body = samplePush
	case "vercel":
		body = sampleVercel
	default:
		return nil, fmt.Errorf("unknown sample event %q (want push or vercel)", event)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader([]byte(body)))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	switch event {
	case "push":
		req.Header.Set(relay.HeaderGitHubEvent, "push")
		req.Header.Set(relay.HeaderGitHubDelivery, uuid.NewString())
		if secret != "" {
			req.Header.Set(relay.HeaderSignature, relay.Sign(secret, []byte(body)))
		}
	case "vercel":
		req.Header.Set(relay.HeaderVercelURL, "heimdall-test.vercel.app")
	}
	return req, nil
}
