package relay

import (
	"net/http"

	"github.com/roeintheglasses/heimdall/internal/domain"
)

// Classify maps the inbound headers to the relayed event type.
//
// Only GitHub push events are relayed; any other GitHub event kind falls
// through to the Vercel check and is otherwise rejected. A Vercel
// deployment header counts when present, whatever its value.
func Classify(headers http.Header) (domain.EventType, error) {
	if headers.Get(HeaderGitHubEvent) == "push" {
		return domain.EventTypeGitHubPush, nil
	}
	if len(headers.Values(HeaderVercelURL)) > 0 {
		return domain.EventTypeVercelDeploy, nil
	}
	return "", ErrUnknownEventType
}
