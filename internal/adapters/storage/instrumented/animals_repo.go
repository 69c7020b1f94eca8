// Package instrumented decora un animals.Repository con timeout por operación,
// métricas y logs de las fallas.
package instrumented

import (
	"context"
	"errors"
	"time"

	"companion-connect/internal/domain/animals"
	"companion-connect/internal/platform/logger"
	"companion-connect/internal/platform/metrics"
)

type AnimalsRepo struct {
	next    animals.Repository
	metrics *metrics.StoreMetrics
	log     logger.Logger
	timeout time.Duration
	now     func() time.Time
}

// New envuelve next. timeout <= 0 deja el contexto del llamador sin tocar.
func New(next animals.Repository, m *metrics.StoreMetrics, log logger.Logger, timeout time.Duration) *AnimalsRepo {
	if log == nil {
		log = logger.Nop()
	}
	return &AnimalsRepo{
		next:    next,
		metrics: m,
		log:     log,
		timeout: timeout,
		now:     time.Now,
	}
}

func (r *AnimalsRepo) Scan(ctx context.Context, req animals.ScanRequest) (animals.Page, error) {
	var page animals.Page
	err := r.do(ctx, "scan", func(ctx context.Context) error {
		var err error
		page, err = r.next.Scan(ctx, req)
		return err
	})
	return page, err
}

func (r *AnimalsRepo) Get(ctx context.Context, id int64) (animals.Record, error) {
	var rec animals.Record
	err := r.do(ctx, "get", func(ctx context.Context) error {
		var err error
		rec, err = r.next.Get(ctx, id)
		return err
	})
	return rec, err
}

func (r *AnimalsRepo) Put(ctx context.Context, rec animals.Record) error {
	return r.do(ctx, "put", func(ctx context.Context) error {
		return r.next.Put(ctx, rec)
	})
}

func (r *AnimalsRepo) Update(ctx context.Context, id int64, changes animals.Changes) (animals.Changes, error) {
	var confirmed animals.Changes
	err := r.do(ctx, "update", func(ctx context.Context) error {
		var err error
		confirmed, err = r.next.Update(ctx, id, changes)
		return err
	})
	return confirmed, err
}

func (r *AnimalsRepo) Delete(ctx context.Context, id int64) error {
	return r.do(ctx, "delete", func(ctx context.Context) error {
		return r.next.Delete(ctx, id)
	})
}

func (r *AnimalsRepo) do(ctx context.Context, op string, fn func(context.Context) error) error {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	start := r.now()
	err := fn(ctx)
	elapsed := r.now().Sub(start)

	// ErrNotFound es una respuesta válida, no una falla del store
	obsErr := err
	if errors.Is(err, animals.ErrNotFound) {
		obsErr = nil
	}
	r.metrics.Observe(op, obsErr, elapsed)

	if obsErr != nil {
		r.log.Warn("store operation failed", map[string]any{
			"operation":   op,
			"error":       err,
			"duration_ms": elapsed.Milliseconds(),
		})
	}
	return err
}
