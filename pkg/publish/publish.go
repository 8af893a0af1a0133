package publish

import (
	"context"
	"io/fs"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/foomo/jsonhtml/pkg/batch"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type (
	// Publisher keeps the pages of a source directory in sync with its documents
	Publisher struct {
		l                       *zap.Logger
		batch                   *batch.Batch
		history                 *History
		source                  fs.FS
		poll                    bool
		pollInterval            time.Duration
		onLoaded                func()
		loaded                  *atomic.Bool
		updateInProgressChannel chan updateRequest
		status                  Status
		statusLock              sync.RWMutex
	}
	Option func(*Publisher)
	// Status of the publisher and its last run
	Status struct {
		Loaded    bool          `json:"loaded"`
		Revision  string        `json:"revision,omitempty"`
		UpdatedAt time.Time     `json:"updatedAt,omitempty"`
		LastError string        `json:"lastError,omitempty"`
		LastRun   *batch.Result `json:"lastRun,omitempty"`
	}
	// Update response of a triggered publish
	Update struct {
		Success      bool   `json:"success"`
		ErrorMessage string `json:"errorMessage,omitempty"`
		Stats        struct {
			Converted int     `json:"converted"`
			Failed    int     `json:"failed"`
			Nodes     int     `json:"nodes"`
			Runtime   float64 `json:"runtime"`
		} `json:"stats"`
	}
)

// ------------------------------------------------------------------------------------------------
// ~ Constructor
// ------------------------------------------------------------------------------------------------

func New(l *zap.Logger, b *batch.Batch, source fs.FS, opts ...Option) *Publisher {
	inst := &Publisher{
		l:                       l.Named("publish"),
		batch:                   b,
		source:                  source,
		poll:                    false,
		pollInterval:            time.Minute,
		loaded:                  &atomic.Bool{},
		updateInProgressChannel: make(chan updateRequest),
	}

	for _, opt := range opts {
		opt(inst)
	}

	return inst
}

// ------------------------------------------------------------------------------------------------
// ~ Options
// ------------------------------------------------------------------------------------------------

// WithPoll republishes the source whenever its revision changes
func WithPoll(v bool) Option {
	return func(o *Publisher) {
		o.poll = v
	}
}

// WithPollInterval ignores non-positive intervals
func WithPollInterval(v time.Duration) Option {
	return func(o *Publisher) {
		if v > 0 {
			o.pollInterval = v
		}
	}
}

// WithHistory records every successful publish and restores the last one on start
func WithHistory(v *History) Option {
	return func(o *Publisher) {
		o.history = v
	}
}

// ------------------------------------------------------------------------------------------------
// ~ Getter
// ------------------------------------------------------------------------------------------------

func (p *Publisher) Loaded() bool {
	return p.loaded.Load()
}

func (p *Publisher) Status() Status {
	p.statusLock.RLock()
	defer p.statusLock.RUnlock()
	s := p.status
	s.Loaded = p.Loaded()
	return s
}

func (p *Publisher) setStatus(s Status) {
	p.statusLock.Lock()
	defer p.statusLock.Unlock()
	p.status = s
}

// ------------------------------------------------------------------------------------------------
// ~ Public methods
// ------------------------------------------------------------------------------------------------

func (p *Publisher) OnLoaded(fn func()) {
	p.onLoaded = fn
}

// Update publishes the source and waits for the result. It is rejected while
// another publish is running.
func (p *Publisher) Update() *Update {
	p.l.Info("update triggered")

	start := time.Now()
	res, err := p.tryUpdate(true)

	resp := &Update{Success: err == nil}
	if err != nil {
		resp.ErrorMessage = err.Error()
		if !errors.Is(err, ErrUpdateRejected) {
			p.l.Error("failed to publish", zap.Error(err))
		}
	}
	if res != nil {
		resp.Stats.Converted = len(res.Converted)
		resp.Stats.Failed = len(res.Failed)
		resp.Stats.Nodes = res.Nodes
	}
	resp.Stats.Runtime = time.Since(start).Seconds()
	return resp
}

func (p *Publisher) Start(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)

	l := p.l.Named("start")

	up := make(chan bool, 1)
	g.Go(func() error {
		l.Debug("starting update routine")
		up <- true
		return p.UpdateRoutine(gCtx)
	})
	l.Debug("waiting for UpdateRoutine")
	<-up

	if p.poll {
		g.Go(func() error {
			l.Debug("starting poll routine")
			return p.PollRoutine(gCtx)
		})
	}

	l.Debug("trying to restore previous publish")
	restored := false
	if err := p.tryToRestoreCurrent(gCtx); errors.Is(err, os.ErrNotExist) {
		l.Info("previous publish manifest does not exist")
	} else if err != nil {
		l.Warn("could not restore previous publish", zap.Error(err))
	} else {
		l.Info("restored previous publish", zap.String("revision", p.Status().Revision))
		restored = true
	}

	// a restored publish is only repeated if the source changed since
	l.Debug("trying to publish initial state")
	if res, err := p.enqueue(gCtx, !restored); err != nil {
		fields := []zap.Field{zap.Error(err)}
		if res != nil {
			fields = append(fields,
				zap.Int("num_converted", len(res.Converted)),
				zap.Int("num_failed", len(res.Failed)),
				zap.Float64("runtime", res.Runtime),
			)
		}
		l.Error("failed to publish initial state", fields...)
	}

	return g.Wait()
}
