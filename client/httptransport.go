package client

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/foomo/jsonhtml/pkg/handler"
	"github.com/pkg/errors"
)

type (
	httpTransport struct {
		client   *http.Client
		endpoint string
	}
	HTTPTransportOption func(*httpTransport)
)

// HTTPTransportWithClient sets the http client used for all calls
func HTTPTransportWithClient(v *http.Client) HTTPTransportOption {
	return func(o *httpTransport) {
		o.client = v
	}
}

// NewHTTPTransport will create a new http transport for the given endpoint.
// Caution: the provided endpoint url is not validated!
func NewHTTPTransport(endpoint string, opts ...HTTPTransportOption) transport {
	inst := &httpTransport{
		endpoint: strings.TrimSuffix(endpoint, "/"),
		client:   http.DefaultClient,
	}
	for _, opt := range opts {
		opt(inst)
	}
	return inst
}

func (ht *httpTransport) call(ctx context.Context, method string, route handler.Route, query url.Values, body []byte) ([]byte, error) {
	target := ht.endpoint + "/" + string(route)
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	httpResponse, err := ht.client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to call %s", route)
	}
	defer httpResponse.Body.Close()

	responseBytes, err := io.ReadAll(httpResponse.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read response body")
	}
	if httpResponse.StatusCode != http.StatusOK {
		return nil, &StatusError{
			Code:    httpResponse.StatusCode,
			Message: strings.TrimSpace(string(responseBytes)),
		}
	}
	return responseBytes, nil
}
