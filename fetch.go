package confluence

import (
	"context"
	"io"
	"net/http"
	"net/url"

	"github.com/hkloudou/confluence/errors"
)

type urlSource struct {
	client *http.Client
	rawURL string
}

// NewURLSource turns an http(s) URL into a lazily-fetched source. The
// GET is issued only when a format engine asks for the chunk, bound to
// that engine's context; redirects follow the client's policy (the
// default client follows them). A non-2xx response is fatal. The
// response body is pull-based, so nothing buffers ahead of the
// consumer.
func NewURLSource(client *http.Client, rawURL string) Source {
	if client == nil {
		client = http.DefaultClient
	}
	return &urlSource{client: client, rawURL: rawURL}
}

func (s *urlSource) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := validateURL(s.rawURL); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.rawURL, nil)
	if err != nil {
		return nil, &errors.FetchError{URL: s.rawURL, Err: err}
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &errors.FetchError{URL: s.rawURL, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, &errors.FetchError{URL: s.rawURL, StatusCode: resp.StatusCode}
	}
	return resp.Body, nil
}

// validateURL rejects anything that is not an absolute http(s) URL,
// naming the offending value. It runs before any network call.
func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return errors.Validationf("url", "%q is not a valid URL: %v", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.Validationf("url", "%q must use http or https", raw)
	}
	if u.Host == "" {
		return errors.Validationf("url", "%q has no host", raw)
	}
	return nil
}
