package server

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/goliatone/go-cardgen/pkg/card"
	"github.com/goliatone/go-cardgen/pkg/store"
)

const watchDebounce = 250 * time.Millisecond

// watcher ingests card JSON documents from a directory into the store and
// notifies live clients. Editors tend to emit a burst of events per save
// (write, rename, chmod), so paths collect in a pending set and a debounce
// timer flushes the batch once the burst settles.
type watcher struct {
	dir      string
	store    *store.Store
	hub      *hub
	logger   *zap.Logger
	debounce time.Duration
	fsw      *fsnotify.Watcher
}

func newWatcher(dir string, st *store.Store, h *hub, logger *zap.Logger) (*watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("server: create watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("server: watch %s: %w", dir, err)
	}
	return &watcher{
		dir:      dir,
		store:    st,
		hub:      h,
		logger:   logger,
		debounce: watchDebounce,
		fsw:      fsw,
	}, nil
}

// run processes filesystem events until ctx is cancelled.
func (w *watcher) run(ctx context.Context) {
	defer func() { _ = w.fsw.Close() }()

	pending := make(map[string]struct{})
	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !strings.EqualFold(filepath.Ext(event.Name), ".json") {
				continue
			}
			pending[event.Name] = struct{}{}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				fire = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}
		case <-fire:
			ingested := false
			for path := range pending {
				if w.ingest(ctx, path) {
					ingested = true
				}
				delete(pending, path)
			}
			timer = nil
			fire = nil
			if ingested {
				w.hub.broadcast("reload")
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", zap.Error(err))
		}
	}
}

// ingest reads one document and saves it, reporting whether the store
// changed. A card that carries no ID gets the file basename, so plain
// fixture files round-trip without editing.
func (w *watcher) ingest(ctx context.Context, path string) bool {
	raw, err := os.ReadFile(path)
	if err != nil {
		w.logger.Warn("read card file", zap.String("path", path), zap.Error(err))
		return false
	}
	doc, err := card.ParseCard(raw)
	if err != nil {
		w.logger.Warn("parse card file", zap.String("path", path), zap.Error(err))
		return false
	}
	if doc.ID == "" {
		doc.ID = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	meta, err := w.store.Save(ctx, doc)
	if err != nil {
		w.logger.Warn("save card", zap.String("path", path), zap.Error(err))
		return false
	}
	w.logger.Info("card ingested",
		zap.String("id", doc.ID),
		zap.String("path", path),
		zap.String("revision", meta.Revision),
		zap.Bool("unchanged", meta.Unchanged))
	return !meta.Unchanged
}
