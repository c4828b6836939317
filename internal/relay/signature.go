package relay

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
)

const (
	HeaderGitHubEvent    = "X-GitHub-Event"
	HeaderGitHubDelivery = "X-GitHub-Delivery"
	HeaderSignature      = "X-Hub-Signature-256"
	HeaderVercelURL      = "X-Vercel-Deployment-Url"

	signaturePrefix = "sha256="
)

// Verifier checks GitHub webhook signatures against a shared secret.
//
// Verification only applies to requests carrying an X-GitHub-Event header,
// and only when a secret is configured. Everything else passes through
// unauthenticated.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(strings.TrimSpace(secret))}
}

// Enabled reports whether a secret is configured.
func (v *Verifier) Enabled() bool {
	return len(v.secret) > 0
}

// Applies reports whether Verify would check the given request.
func (v *Verifier) Applies(headers http.Header) bool {
	return v.Enabled() && headers.Get(HeaderGitHubEvent) != ""
}

// Verify validates the X-Hub-Signature-256 header against the raw body.
// The returned error wraps ErrInvalidSignature.
func (v *Verifier) Verify(headers http.Header, body []byte) error {
	if !v.Applies(headers) {
		return nil
	}

	presented := strings.TrimSpace(headers.Get(HeaderSignature))
	if presented == "" {
		return fmt.Errorf("%w: missing %s header", ErrInvalidSignature, HeaderSignature)
	}
	if !strings.HasPrefix(presented, signaturePrefix) {
		return fmt.Errorf("%w: invalid signature prefix", ErrInvalidSignature)
	}

	provided, err := hex.DecodeString(strings.TrimPrefix(presented, signaturePrefix))
	if err != nil {
		return fmt.Errorf("%w: invalid signature encoding", ErrInvalidSignature)
	}

	if !hmac.Equal(computeHMAC(body, v.secret), provided) {
		return fmt.Errorf("%w: signature mismatch", ErrInvalidSignature)
	}
	return nil
}

// Sign returns the X-Hub-Signature-256 value GitHub would send for body.
func Sign(secret string, body []byte) string {
	return signaturePrefix + hex.EncodeToString(computeHMAC(body, []byte(secret)))
}

func computeHMAC(payload []byte, secret []byte) []byte {
	mac := hmac.New(sha256.New, secret)
	mac.Write(payload)
	return mac.Sum(nil)
}
