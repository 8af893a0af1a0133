package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/foomo/jsonhtml/pkg/convert"
	"github.com/foomo/jsonhtml/pkg/handler"
	"github.com/foomo/jsonhtml/pkg/publish"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type (
	// Client of a jsonhtml server
	Client struct {
		t transport
	}
	// StatusError is returned for every non 200 reply
	StatusError struct {
		Code    int
		Message string
	}
	reply[T any] struct {
		Reply T `json:"reply"`
	}
)

func (e *StatusError) Error() string {
	return fmt.Sprintf("non 200 reply: %d %s", e.Code, e.Message)
}

// NewHTTPClient returns a client for the server at endpoint, e.g. http://localhost:8080/jsonhtml
func NewHTTPClient(endpoint string, opts ...HTTPTransportOption) (*Client, error) {
	if !convert.IsURL(endpoint) {
		return nil, errors.Errorf("invalid server url: %q", endpoint)
	}
	return &Client{
		t: NewHTTPTransport(endpoint, opts...),
	}, nil
}

// Render converts a document on the server. With page set the fragment is
// wrapped into the configured page.
func (c *Client) Render(ctx context.Context, doc []byte, format convert.Format, page bool) (string, error) {
	query := url.Values{}
	if format != "" {
		query.Set("format", string(format))
	}
	if page {
		query.Set("page", strconv.FormatBool(page))
	}
	if doc == nil {
		doc = []byte{}
	}
	data, err := c.t.call(ctx, http.MethodPost, handler.RouteRender, query, doc)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Update tell the server to republish its source
func (c *Client) Update(ctx context.Context) (*publish.Update, error) {
	data, err := c.t.call(ctx, http.MethodPost, handler.RouteUpdate, nil, []byte{})
	if err != nil {
		return nil, err
	}
	var resp reply[*publish.Update]
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, errors.Wrap(err, "failed to decode update reply")
	}
	return resp.Reply, nil
}

// Status of the last publish
func (c *Client) Status(ctx context.Context) (*publish.Status, error) {
	data, err := c.t.call(ctx, http.MethodGet, handler.RouteStatus, nil, nil)
	if err != nil {
		return nil, err
	}
	var resp reply[*publish.Status]
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, errors.Wrap(err, "failed to decode status reply")
	}
	return resp.Reply, nil
}
