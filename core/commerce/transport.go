package commerce

import "net/http"

// userAgentTransport stamps every outbound request with a stable
// User-Agent and the header the backend uses to detect AJAX callers.
type userAgentTransport struct {
	agent string
	base  http.RoundTripper
}

func (t userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", t.agent)
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	return t.base.RoundTrip(req)
}
