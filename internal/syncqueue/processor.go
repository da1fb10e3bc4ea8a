// Package syncqueue drains the outbox: locally-recorded mutations are
// replayed against the remote sync endpoint once connectivity allows.
package syncqueue

import (
	"context"
	"errors"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/avandyck/newsdock/internal/advisor"
	"github.com/avandyck/newsdock/internal/models"
	"github.com/avandyck/newsdock/internal/store"
	"github.com/avandyck/newsdock/pkg/logger"
	"github.com/avandyck/newsdock/pkg/metrics"
)

// ActionExecutor applies one outbox action remotely. A returned error marks
// the action failed; nil marks it completed.
type ActionExecutor interface {
	Execute(ctx context.Context, action models.OutboxAction) error
}

// NopExecutor accepts every action without delivering it anywhere. Used when
// no remote sync endpoint is configured, so local mutations still clear the
// outbox instead of accumulating forever.
type NopExecutor struct{}

// Execute implements ActionExecutor.
func (NopExecutor) Execute(ctx context.Context, action models.OutboxAction) error { return nil }

// Report summarizes one drain pass.
type Report struct {
	Processed int `json:"processed"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
}

// Processor drains pending outbox actions through an executor.
type Processor struct {
	store    *store.ArticleStore
	exec     ActionExecutor
	adv      advisor.Advisor
	draining atomic.Bool
	log      *zap.Logger
}

// Option customizes a Processor.
type Option func(*Processor)

// WithAdvisor gates draining on environment signals. Only the online signal
// is consulted; a nil reading never blocks a drain.
func WithAdvisor(adv advisor.Advisor) Option {
	return func(p *Processor) {
		if adv != nil {
			p.adv = adv
		}
	}
}

// NewProcessor constructs a Processor.
func NewProcessor(articles *store.ArticleStore, exec ActionExecutor, opts ...Option) (*Processor, error) {
	if articles == nil {
		return nil, errors.New("syncqueue: store is required")
	}
	if exec == nil {
		return nil, errors.New("syncqueue: executor is required")
	}

	p := &Processor{
		store: articles,
		exec:  exec,
		adv:   advisor.Permissive{},
		log:   logger.WithModule("syncqueue"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Drain processes the current pending snapshot in enqueue order. At most one
// drain runs at a time; a concurrent call returns an empty report instead of
// blocking. Each action is marked terminal individually and one failure
// never aborts the rest of the batch. Canceling the context stops between
// actions; whatever was not reached stays pending.
func (p *Processor) Drain(ctx context.Context) (Report, error) {
	if !p.draining.CompareAndSwap(false, true) {
		p.log.Debug("drain already in progress, skipping")
		return Report{}, nil
	}
	defer p.draining.Store(false)

	if online := p.adv.Signals().Online; online != nil && !*online {
		p.log.Debug("offline, deferring drain")
		return Report{}, nil
	}

	pending := p.store.PendingActions(ctx)
	if len(pending) == 0 {
		return Report{}, nil
	}

	var report Report
	for _, action := range pending {
		if err := ctx.Err(); err != nil {
			p.log.Info("drain canceled",
				zap.Int("processed", report.Processed), zap.Int("remaining", len(pending)-report.Processed))
			return report, err
		}

		report.Processed++
		status := models.ActionStatusCompleted
		outcome := "completed"

		if err := p.exec.Execute(ctx, action); err != nil {
			status = models.ActionStatusFailed
			outcome = "failed"
			p.log.Warn("action execution failed",
				zap.String("id", action.ID), zap.String("type", action.Type), zap.Error(err))
		}

		if !p.store.SetActionStatus(ctx, action.ID, status) {
			// Someone else resolved it first; count it as untouched.
			report.Processed--
			continue
		}
		metrics.OutboxActions.WithLabelValues(outcome).Inc()
		if status == models.ActionStatusCompleted {
			report.Completed++
		} else {
			report.Failed++
		}
	}

	p.log.Info("drain finished",
		zap.Int("processed", report.Processed),
		zap.Int("completed", report.Completed),
		zap.Int("failed", report.Failed))
	return report, nil
}
