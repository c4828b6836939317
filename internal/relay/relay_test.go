package relay

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/roeintheglasses/heimdall/internal/domain"
)

type recordingSender struct {
	envelopes []domain.Envelope
	err       error
}

func (s *recordingSender) Forward(_ context.Context, env domain.Envelope) error {
	s.envelopes = append(s.envelopes, env)
	return s.err
}

func TestRelay_Process(t *testing.T) {
	const secret = "topsecret"
	pushBody := []byte(`{"ref":"refs/heads/main"}`)

	tests := []struct {
		name        string
		secret      string
		headers     map[string]string
		body        []byte
		senderErr   error
		wantType    domain.EventType
		wantErr     error
		wantForward bool
	}{
		{
			name:        "signed push is forwarded",
			secret:      secret,
			headers:     map[string]string{HeaderGitHubEvent: "push", HeaderSignature: Sign(secret, pushBody)},
			body:        pushBody,
			wantType:    domain.EventTypeGitHubPush,
			wantForward: true,
		},
		{
			name:    "bad signature is rejected before parsing",
			secret:  secret,
			headers: map[string]string{HeaderGitHubEvent: "push", HeaderSignature: Sign("wrong", pushBody)},
			body:    []byte(`not json`),
			wantErr: ErrInvalidSignature,
		},
		{
			name:        "unsigned push passes without secret",
			headers:     map[string]string{HeaderGitHubEvent: "push"},
			body:        pushBody,
			wantType:    domain.EventTypeGitHubPush,
			wantForward: true,
		},
		{
			name:        "vercel deployment skips signature check",
			secret:      secret,
			headers:     map[string]string{HeaderVercelURL: "heimdall.vercel.app"},
			body:        []byte(`{"type":"deployment.succeeded"}`),
			wantType:    domain.EventTypeVercelDeploy,
			wantForward: true,
		},
		{
			name:    "malformed json",
			headers: map[string]string{HeaderGitHubEvent: "push"},
			body:    []byte(`{"ref":`),
			wantErr: ErrMalformedPayload,
		},
		{
			name:    "empty body is malformed",
			headers: map[string]string{HeaderVercelURL: "x"},
			body:    nil,
			wantErr: ErrMalformedPayload,
		},
		{
			name:    "unrecognized github event",
			headers: map[string]string{HeaderGitHubEvent: "pull_request"},
			body:    []byte(`{}`),
			wantErr: ErrUnknownEventType,
		},
		{
			name:        "downstream failure surfaces",
			headers:     map[string]string{HeaderGitHubEvent: "push"},
			body:        pushBody,
			senderErr:   &DownstreamError{StatusCode: 503},
			wantType:    domain.EventTypeGitHubPush,
			wantErr:     ErrDownstream,
			wantForward: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sender := &recordingSender{err: tt.senderErr}
			r := New(NewVerifier(tt.secret), sender, testLogger())

			h := http.Header{}
			for k, v := range tt.headers {
				h.Set(k, v)
			}

			got, err := r.Process(context.Background(), h, tt.body)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
			} else if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if got != tt.wantType {
				t.Errorf("event type = %q, want %q", got, tt.wantType)
			}

			if tt.wantForward {
				if len(sender.envelopes) != 1 {
					t.Fatalf("expected 1 forwarded envelope, got %d", len(sender.envelopes))
				}
				env := sender.envelopes[0]
				if env.EventType != tt.wantType {
					t.Errorf("envelope type = %q, want %q", env.EventType, tt.wantType)
				}
				if string(env.Event) != string(tt.body) {
					t.Errorf("envelope event = %s, want verbatim body %s", env.Event, tt.body)
				}
			} else if len(sender.envelopes) != 0 {
				t.Errorf("expected nothing forwarded, got %d envelopes", len(sender.envelopes))
			}
		})
	}
}
