package publish

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/foomo/jsonhtml/pkg/storage"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	HistoryPrefix = "_publish/"
	HistorySuffix = ".json"
	CurrentKey    = HistoryPrefix + "current" + HistorySuffix

	historyRunPrefix = HistoryPrefix + "run-"
	historyTimestamp = "20060102T150405.000000000"
)

type (
	// History keeps the manifests of the last publish runs next to the pages
	History struct {
		l            *zap.Logger
		storage      storage.Storage
		historyLimit int
		mu           sync.RWMutex
	}
	HistoryOption func(*History)
)

// ------------------------------------------------------------------------------------------------
// ~ Options
// ------------------------------------------------------------------------------------------------

// HistoryWithHistoryLimit ignores negative limits
func HistoryWithHistoryLimit(v int) HistoryOption {
	return func(o *History) {
		if v >= 0 {
			o.historyLimit = v
		}
	}
}

// ------------------------------------------------------------------------------------------------
// ~ Constructor
// ------------------------------------------------------------------------------------------------

func NewHistory(l *zap.Logger, s storage.Storage, opts ...HistoryOption) *History {
	inst := &History{
		l:            l.Named("history"),
		storage:      s,
		historyLimit: 2,
	}

	for _, opt := range opts {
		opt(inst)
	}

	return inst
}

// ------------------------------------------------------------------------------------------------
// ~ Public methods
// ------------------------------------------------------------------------------------------------

// Add writes the status as backup and as current manifest
func (h *History) Add(ctx context.Context, s Status) error {
	data, err := json.Marshal(s)
	if err != nil {
		return errors.Wrap(err, "failed to encode manifest")
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	backupKey := historyRunPrefix + time.Now().UTC().Format(historyTimestamp) + HistorySuffix

	if err := h.storage.Write(ctx, backupKey, data); err != nil {
		return errors.Wrap(err, "failed to write backup manifest")
	}

	h.l.Debug("writing manifests",
		zap.String("backup", backupKey),
		zap.String("current", CurrentKey),
	)

	if err := h.storage.Write(ctx, CurrentKey, data); err != nil {
		return errors.Wrap(err, "failed to write current manifest")
	}

	if err := h.cleanup(ctx); err != nil {
		return errors.Wrap(err, "failed to clean up history")
	}

	return nil
}

// Current reads the manifest of the last successful run
func (h *History) Current(ctx context.Context) (Status, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var s Status
	data, err := h.storage.Read(ctx, CurrentKey)
	if err != nil {
		return s, err
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return s, errors.Wrap(err, "failed to decode manifest")
	}
	return s, nil
}

// ------------------------------------------------------------------------------------------------
// ~ Private methods
// ------------------------------------------------------------------------------------------------

// getHistory lists the backups, newest first
func (h *History) getHistory(ctx context.Context) (files []string, err error) {
	keys, err := h.storage.List(ctx, historyRunPrefix)
	if err != nil {
		return nil, err
	}

	for _, key := range keys {
		if strings.HasSuffix(key, HistorySuffix) {
			files = append(files, key)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(files)))
	return files, nil
}

func (h *History) cleanup(ctx context.Context) error {
	files, err := h.getFilesForCleanup(ctx, h.historyLimit)
	if err != nil {
		return err
	}

	for _, f := range files {
		h.l.Debug("removing outdated backup", zap.String("file", f))
		if err := h.storage.Delete(ctx, f); err != nil {
			return fmt.Errorf("could not remove file %s: %w", f, err)
		}
	}

	return nil
}

func (h *History) getFilesForCleanup(ctx context.Context, historyVersions int) (files []string, err error) {
	contentFiles, err := h.getHistory(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "could not generate file cleanup list")
	}

	if historyVersions >= 0 && len(contentFiles) > historyVersions {
		files = append(files, contentFiles[historyVersions:]...)
	}
	return files, nil
}
