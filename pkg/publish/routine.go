package publish

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/foomo/jsonhtml/pkg/batch"
	"github.com/foomo/jsonhtml/pkg/metrics"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var (
	json              = jsoniter.ConfigCompatibleWithStandardLibrary
	ErrUpdateRejected = errors.New("update rejected: publish in progress")
)

type (
	updateRequest struct {
		force bool
		resp  chan updateResponse
	}
	updateResponse struct {
		result *batch.Result
		err    error
	}
)

func (p *Publisher) PollRoutine(ctx context.Context) error {
	l := p.l.Named("routine.poll")
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			l.Debug("routine canceled", zap.Error(ctx.Err()))
			return nil
		case <-ticker.C:
			if _, err := p.enqueue(ctx, false); err != nil && ctx.Err() == nil {
				l.Error("update failed", zap.Error(err))
			} else {
				l.Debug("poll done", zap.String("revision", p.Status().Revision))
			}
		}
	}
}

// UpdateRoutine serializes all publish runs
func (p *Publisher) UpdateRoutine(ctx context.Context) error {
	l := p.l.Named("routine.update")
	for {
		select {
		case <-ctx.Done():
			l.Debug("routine canceled", zap.Error(ctx.Err()))
			return nil
		case req := <-p.updateInProgressChannel:
			start := time.Now()

			res, err := p.update(context.WithoutCancel(ctx), req.force)
			if err != nil {
				l.Error("update failed", zap.Error(err))
				metrics.PublishFailedCounter.WithLabelValues().Inc()
			} else if res != nil {
				if !p.Loaded() {
					p.loaded.Store(true)
					l.Info("initial publish success", zap.String("run_id", res.RunID))
					if p.onLoaded != nil {
						p.onLoaded()
					}
				} else {
					l.Info("publish success", zap.String("run_id", res.RunID))
				}
				metrics.PublishCompletedCounter.WithLabelValues().Inc()
			}

			req.resp <- updateResponse{
				result: res,
				err:    err,
			}

			metrics.PublishDuration.WithLabelValues().Observe(time.Since(start).Seconds())
		}
	}
}

// ------------------------------------------------------------------------------------------------
// ~ Private methods
// ------------------------------------------------------------------------------------------------

// update runs the batch unless the source is unchanged and force is not set.
// A nil result without error means nothing had to be done.
func (p *Publisher) update(ctx context.Context, force bool) (*batch.Result, error) {
	rev, err := revision(p.source)
	if err != nil {
		return nil, err
	}
	if !force && rev == p.Status().Revision {
		p.l.Debug("source is up to date", zap.String("revision", rev))
		return nil, nil
	}

	res, err := p.batch.Run(ctx, p.source)
	status := Status{
		Revision:  rev,
		UpdatedAt: time.Now(),
		LastRun:   res,
	}
	if err != nil {
		status.LastError = err.Error()
	}
	p.setStatus(status)

	if err == nil && p.history != nil {
		status.Loaded = true
		if errHistory := p.history.Add(ctx, status); errHistory != nil {
			p.l.Error("could not persist publish manifest", zap.Error(errHistory))
			metrics.StoragePersistFailedCounter.WithLabelValues().Inc()
		}
	}
	return res, err
}

func (p *Publisher) tryToRestoreCurrent(ctx context.Context) error {
	if p.history == nil {
		return os.ErrNotExist
	}
	s, err := p.history.Current(ctx)
	if err != nil {
		return err
	}
	p.setStatus(s)
	p.loaded.Store(true)
	if p.onLoaded != nil {
		p.onLoaded()
	}
	return nil
}

// limit ressources and allow only one publish at once
func (p *Publisher) tryUpdate(force bool) (*batch.Result, error) {
	req := updateRequest{force: force, resp: make(chan updateResponse)}
	select {
	case p.updateInProgressChannel <- req:
		p.l.Debug("update request added to queue")
		ur := <-req.resp
		return ur.result, ur.err
	default:
		p.l.Info("update request rejected, a publish is in progress")
		return nil, ErrUpdateRejected
	}
}

// enqueue waits until the update routine accepts the request
func (p *Publisher) enqueue(ctx context.Context, force bool) (*batch.Result, error) {
	req := updateRequest{force: force, resp: make(chan updateResponse)}
	select {
	case p.updateInProgressChannel <- req:
		ur := <-req.resp
		return ur.result, ur.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// revision fingerprints the inputs of fsys by name, size and modification time
func revision(fsys fs.FS) (string, error) {
	inputs, err := batch.Inputs(fsys)
	if err != nil {
		return "", err
	}
	h := sha256.New()
	for _, input := range inputs {
		info, err := fs.Stat(fsys, input)
		if err != nil {
			return "", errors.Wrapf(err, "failed to stat %s", input)
		}
		_, _ = fmt.Fprintf(h, "%s|%d|%d\n", input, info.Size(), info.ModTime().UnixNano())
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
