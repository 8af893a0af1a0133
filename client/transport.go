package client

import (
	"context"
	"net/url"

	"github.com/foomo/jsonhtml/pkg/handler"
)

type transport interface {
	call(ctx context.Context, method string, route handler.Route, query url.Values, body []byte) ([]byte, error)
}
