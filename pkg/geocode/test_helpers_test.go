package geocode

import (
	"net/http"
	"net/url"

	"golang.org/x/time/rate"
)

// newTestLimiter never blocks.
func newTestLimiter() *rate.Limiter {
	return rate.NewLimiter(rate.Inf, 1)
}

// roundTripFunc adapts a function to http.RoundTripper.
type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) { return f(req) }

// newRewriteClient sends every request to testServerURL, keeping the path
// below targetPrefix and the query string. Requests outside targetPrefix go
// out unchanged.
func newRewriteClient(testServerURL, targetPrefix string) *http.Client {
	target, _ := url.Parse(targetPrefix)
	server, _ := url.Parse(testServerURL)

	return &http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
		if req.URL.Host != target.Host {
			return http.DefaultTransport.RoundTrip(req)
		}
		out := req.Clone(req.Context())
		rewritten := *req.URL
		rewritten.Scheme = server.Scheme
		rewritten.Host = server.Host
		rewritten.Path = req.URL.Path[min(len(target.Path), len(req.URL.Path)):]
		out.URL = &rewritten
		out.Host = server.Host
		return http.DefaultTransport.RoundTrip(out)
	})}
}
