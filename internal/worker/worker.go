// Package worker runs background housekeeping for the metadata cache.
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/cesargomez89/nowplaying/internal/constants"
	"github.com/cesargomez89/nowplaying/internal/logger"
)

// Maintainer is a store with periodic housekeeping.
type Maintainer interface {
	Maintain(ctx context.Context) error
}

type Worker struct {
	store    Maintainer
	ctx      context.Context
	cancel   context.CancelFunc
	Logger   *logger.Logger
	wg       sync.WaitGroup
	Interval time.Duration
}

func NewWorker(store Maintainer, log *logger.Logger) *Worker {
	ctx, cancel := context.WithCancel(context.Background())

	if log == nil {
		log = logger.Default()
	}

	return &Worker{
		store:    store,
		Interval: constants.MaintenanceInterval,
		Logger:   log.WithComponent("worker"),
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (w *Worker) Start() {
	w.Logger.Info("Starting cache maintenance", "interval", w.Interval)
	w.wg.Add(1)
	go w.loop()
}

func (w *Worker) Stop() {
	w.Logger.Info("Stopping cache maintenance")
	w.cancel()
	w.wg.Wait()
}

func (w *Worker) loop() {
	defer w.wg.Done()
	ticker := time.NewTicker(w.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			w.RunOnce()
		}
	}
}

// RunOnce performs one maintenance pass. Failures are logged and retried on
// the next tick.
func (w *Worker) RunOnce() {
	ctx, cancel := context.WithTimeout(w.ctx, w.Interval)
	defer cancel()

	start := time.Now()
	if err := w.store.Maintain(ctx); err != nil {
		w.Logger.Warn("Cache maintenance failed", "error", err)
		return
	}
	w.Logger.Debug("Cache maintenance done", "duration", time.Since(start))
}
