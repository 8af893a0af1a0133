package handler

import (
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/foomo/jsonhtml/pkg/convert"
	"github.com/foomo/jsonhtml/pkg/jsonvalue"
	"github.com/foomo/jsonhtml/pkg/metrics"
	"github.com/foomo/jsonhtml/pkg/publish"
	httputils "github.com/foomo/keel/utils/net/http"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type (
	HTTP struct {
		l           *zap.Logger
		basePath    string
		maxBodySize int64
		fragment    *convert.Converter
		page        *convert.Converter
		publisher   *publish.Publisher
	}
	HTTPOption func(*HTTP)
)

// ------------------------------------------------------------------------------------------------
// ~ Constructor
// ------------------------------------------------------------------------------------------------

// NewHTTP returns a handler rendering posted documents with the given converter
func NewHTTP(l *zap.Logger, fragment *convert.Converter, opts ...HTTPOption) http.Handler {
	inst := &HTTP{
		l:           l.Named("http"),
		basePath:    "/jsonhtml",
		maxBodySize: 10 << 20,
		fragment:    fragment,
	}

	for _, opt := range opts {
		opt(inst)
	}

	return inst
}

// ------------------------------------------------------------------------------------------------
// ~ Options
// ------------------------------------------------------------------------------------------------

func WithBasePath(v string) HTTPOption {
	return func(o *HTTP) {
		o.basePath = strings.TrimSuffix(v, "/")
	}
}

func WithMaxBodySize(v int64) HTTPOption {
	return func(o *HTTP) {
		o.maxBodySize = v
	}
}

// WithPageConverter is used for render requests asking for a full page
func WithPageConverter(v *convert.Converter) HTTPOption {
	return func(o *HTTP) {
		o.page = v
	}
}

// WithPublisher enables the update and status routes
func WithPublisher(v *publish.Publisher) HTTPOption {
	return func(o *HTTP) {
		o.publisher = v
	}
}

// ------------------------------------------------------------------------------------------------
// ~ Public methods
// ------------------------------------------------------------------------------------------------

func (h *HTTP) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	route := Route(strings.TrimPrefix(r.URL.Path, h.basePath+"/"))

	status := metrics.StatusSuccess
	if err := h.serve(route, w, r); err != nil {
		status = metrics.StatusError
	}

	label := string(route)
	if !route.Valid() {
		label = "unknown"
	}
	metrics.ServiceRequestCounter.WithLabelValues(label, status).Inc()
	metrics.ServiceRequestDuration.WithLabelValues(label, status).Observe(time.Since(start).Seconds())
}

// ------------------------------------------------------------------------------------------------
// ~ Private methods
// ------------------------------------------------------------------------------------------------

func (h *HTTP) serve(route Route, w http.ResponseWriter, r *http.Request) error {
	switch route {
	case RouteRender:
		if r.Method != http.MethodPost {
			return h.methodNotAllowed(w, r)
		}
		return h.render(w, r)
	case RouteUpdate:
		if r.Method != http.MethodPost {
			return h.methodNotAllowed(w, r)
		}
		if h.publisher == nil {
			return h.notFound(w, r, route)
		}
		return h.reply(w, r, h.publisher.Update())
	case RouteStatus:
		if r.Method != http.MethodGet {
			return h.methodNotAllowed(w, r)
		}
		if h.publisher == nil {
			return h.notFound(w, r, route)
		}
		return h.reply(w, r, h.publisher.Status())
	default:
		return h.notFound(w, r, route)
	}
}

func (h *HTTP) render(w http.ResponseWriter, r *http.Request) error {
	if r.Body == nil {
		err := errors.New("empty request body")
		httputils.BadRequestServerError(h.l, w, r, err)
		return err
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodySize))
	if err != nil {
		err = errors.Wrap(err, "failed to read incoming request")
		httputils.BadRequestServerError(h.l, w, r, err)
		return err
	}

	converter := h.fragment
	if v := r.URL.Query().Get("page"); v != "" && h.page != nil {
		if ok, _ := strconv.ParseBool(v); ok {
			converter = h.page
		}
	}

	format := convert.FormatJSON
	if v := r.URL.Query().Get("format"); v != "" {
		format = convert.Format(strings.ToLower(v))
	}

	res, err := converter.Convert(data, format, "http")
	if err != nil {
		if errors.Is(err, jsonvalue.ErrSyntax) ||
			errors.Is(err, jsonvalue.ErrPathNotFound) ||
			errors.Is(err, jsonvalue.ErrAliasCycle) ||
			errors.Is(err, convert.ErrUnsupportedFormat) {
			httputils.BadRequestServerError(h.l, w, r, err)
		} else {
			httputils.ServerError(h.l, w, r, http.StatusInternalServerError, err)
		}
		return err
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("X-Outline-Nodes", strconv.Itoa(res.Nodes))
	_, err = io.WriteString(w, res.HTML)
	return err
}

// reply encodes a reply as JSON, e.g: {"reply": <data>}
func (h *HTTP) reply(w http.ResponseWriter, r *http.Request, reply any) error {
	bytes, err := json.Marshal(map[string]any{
		"reply": reply,
	})
	if err != nil {
		h.l.Error("could not encode reply", zap.Error(err))
		httputils.ServerError(h.l, w, r, http.StatusInternalServerError, err)
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	_, err = w.Write(bytes)
	return err
}

func (h *HTTP) methodNotAllowed(w http.ResponseWriter, r *http.Request) error {
	err := errors.Errorf("method %s not allowed", r.Method)
	httputils.ServerError(h.l, w, r, http.StatusMethodNotAllowed, err)
	return err
}

func (h *HTTP) notFound(w http.ResponseWriter, r *http.Request, route Route) error {
	err := errors.Errorf("unknown route: %s", route)
	httputils.ServerError(h.l, w, r, http.StatusNotFound, err)
	return err
}
