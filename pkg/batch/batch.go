package batch

import (
	"context"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/foomo/jsonhtml/pkg/convert"
	"github.com/foomo/jsonhtml/pkg/metrics"
	"github.com/foomo/jsonhtml/pkg/storage"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type (
	// Batch converts every document of a directory tree into pages of a storage
	Batch struct {
		l           *zap.Logger
		converter   *convert.Converter
		storage     storage.Storage
		concurrency int
		source      string
	}
	Option func(*Batch)
	// Result of a run. Failed maps input paths to their error message.
	Result struct {
		RunID     string            `json:"runId"`
		Converted []string          `json:"converted"`
		Failed    map[string]string `json:"failed"`
		Nodes     int               `json:"nodes"`
		Runtime   float64           `json:"runtime"`
	}
)

// ------------------------------------------------------------------------------------------------
// ~ Constructor
// ------------------------------------------------------------------------------------------------

func New(l *zap.Logger, converter *convert.Converter, s storage.Storage, opts ...Option) *Batch {
	inst := &Batch{
		l:           l.Named("batch"),
		converter:   converter,
		storage:     s,
		concurrency: 4,
		source:      "batch",
	}

	for _, opt := range opts {
		opt(inst)
	}

	return inst
}

// ------------------------------------------------------------------------------------------------
// ~ Options
// ------------------------------------------------------------------------------------------------

func WithConcurrency(v int) Option {
	return func(o *Batch) {
		if v > 0 {
			o.concurrency = v
		}
	}
}

// WithSource sets the metrics label of conversions
func WithSource(v string) Option {
	return func(o *Batch) {
		o.source = v
	}
}

// ------------------------------------------------------------------------------------------------
// ~ Public methods
// ------------------------------------------------------------------------------------------------

// Inputs lists all convertible documents of fsys in lexical order. Hidden
// files and directories are skipped.
func Inputs(fsys fs.FS) ([]string, error) {
	var inputs []string
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p != "." && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if _, err := convert.FormatFromPath(p); err == nil {
			inputs = append(inputs, p)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list inputs")
	}
	sort.Strings(inputs)
	return inputs, nil
}

// OutputKey maps an input path to the storage key of its page
func OutputKey(input string) string {
	return strings.TrimSuffix(input, path.Ext(input)) + ".html"
}

// Run converts all inputs of fsys. Failing inputs do not stop the others,
// their errors are combined into the returned error.
func (b *Batch) Run(ctx context.Context, fsys fs.FS) (*Result, error) {
	start := time.Now()
	res := &Result{
		RunID:  uuid.New().String(),
		Failed: map[string]string{},
	}
	l := b.l.With(zap.String("run_id", res.RunID))

	inputs, err := Inputs(fsys)
	if err != nil {
		return res, err
	}
	l.Info("batch started", zap.Int("inputs", len(inputs)), zap.Int("concurrency", b.concurrency))

	var (
		mu     sync.Mutex
		errAll error
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)
	for _, input := range inputs {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			nodes, err := b.convertOne(gCtx, fsys, input)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				l.Warn("conversion failed", zap.String("input", input), zap.Error(err))
				res.Failed[input] = err.Error()
				errAll = multierr.Append(errAll, errors.Wrapf(err, "input %s", input))
				return nil
			}
			l.Debug("converted", zap.String("input", input), zap.Int("nodes", nodes))
			res.Converted = append(res.Converted, OutputKey(input))
			res.Nodes += nodes
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		errAll = multierr.Append(errAll, err)
	}

	sort.Strings(res.Converted)
	res.Runtime = time.Since(start).Seconds()
	l.Info("batch done",
		zap.Int("converted", len(res.Converted)),
		zap.Int("failed", len(res.Failed)),
		zap.Int("nodes", res.Nodes),
		zap.Float64("runtime", res.Runtime),
	)
	return res, errAll
}

// ------------------------------------------------------------------------------------------------
// ~ Private methods
// ------------------------------------------------------------------------------------------------

func (b *Batch) convertOne(ctx context.Context, fsys fs.FS, input string) (int, error) {
	format, err := convert.FormatFromPath(input)
	if err != nil {
		return 0, err
	}
	data, err := fs.ReadFile(fsys, input)
	if err != nil {
		return 0, errors.Wrap(err, "failed to read input")
	}
	res, err := b.converter.Convert(data, format, b.source)
	if err != nil {
		return 0, err
	}
	if err := b.storage.Write(ctx, OutputKey(input), []byte(res.HTML)); err != nil {
		metrics.StoragePersistFailedCounter.WithLabelValues().Inc()
		return 0, errors.Wrap(err, "failed to write page")
	}
	return res.Nodes, nil
}
