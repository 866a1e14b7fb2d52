package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/techdesk-service/internal/mail"
	"github.com/spec-kit/techdesk-service/internal/observability"
	"github.com/spec-kit/techdesk-service/internal/service"
)

// Options sizes the delivery pool.
type Options struct {
	Workers      int
	MaxAttempts  int
	InitialDelay time.Duration
	SendTimeout  time.Duration
}

// Pool delivers queued notification jobs.
type Pool struct {
	svc     *service.NotificationService
	sender  mail.Sender
	opts    Options
	logger  *zap.Logger
	metrics *observability.Metrics
	wg      sync.WaitGroup
}

// StartNotificationWorker registers notification handlers and starts
// opts.Workers goroutines that deliver jobs until ctx is cancelled.
func StartNotificationWorker(ctx context.Context, notificationService *service.NotificationService, sender mail.Sender,
	opts Options, logger *zap.Logger, metrics *observability.Metrics) *Pool {
	if notificationService == nil {
		return nil
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.InitialDelay <= 0 {
		opts.InitialDelay = 500 * time.Millisecond
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	notificationService.RegisterHandlers()

	p := &Pool{svc: notificationService, sender: sender, opts: opts, logger: logger, metrics: metrics}
	for i := 0; i < opts.Workers; i++ {
		p.wg.Add(1)
		go p.run(ctx, i)
	}
	logger.Info("notification workers started", zap.Int("workers", opts.Workers))
	return p
}

// Wait blocks until every worker has stopped.
func (p *Pool) Wait() {
	if p == nil {
		return
	}
	p.wg.Wait()
}

func (p *Pool) run(ctx context.Context, id int) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-p.svc.Jobs():
			p.metrics.SetNotificationQueueDepth(p.svc.Pending())
			outcome := p.deliver(ctx, job)
			p.metrics.RecordNotification(job.Template, outcome)
			p.logger.Debug("notification processed",
				zap.Int("worker", id), zap.String("template", job.Template), zap.String("outcome", outcome))
		}
	}
}

// deliver builds and sends one job. It returns the outcome label: sent,
// skipped or failed.
func (p *Pool) deliver(ctx context.Context, job service.NotificationJob) string {
	msg, err := job.Build(ctx)
	if err != nil {
		if errors.Is(err, service.ErrNothingToSend) {
			return "skipped"
		}
		p.logger.Warn("notification build failed", zap.String("template", job.Template), zap.Error(err))
		return "failed"
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = p.opts.InitialDelay
	_, err = backoff.Retry(ctx, func() (struct{}, error) {
		sendCtx := ctx
		if p.opts.SendTimeout > 0 {
			var cancel context.CancelFunc
			sendCtx, cancel = context.WithTimeout(ctx, p.opts.SendTimeout)
			defer cancel()
		}
		err := p.sender.Send(sendCtx, msg)
		if err == nil {
			return struct{}{}, nil
		}
		if !retryable(err) {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	},
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(uint(p.opts.MaxAttempts)),
		backoff.WithNotify(func(err error, wait time.Duration) {
			p.logger.Info("notification retry", zap.String("template", job.Template), zap.Duration("wait", wait), zap.Error(err))
		}),
	)
	switch {
	case err == nil:
		return "sent"
	case errors.Is(err, mail.ErrDisabled):
		p.logger.Debug("mail endpoint not configured, notification skipped", zap.String("template", job.Template))
		return "skipped"
	default:
		p.logger.Error("notification delivery failed",
			zap.String("template", job.Template), zap.Strings("to", msg.To), zap.Error(err))
		return "failed"
	}
}

func retryable(err error) bool {
	if errors.Is(err, mail.ErrDisabled) {
		return false
	}
	var statusErr *mail.StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Retryable()
	}
	var rejected *mail.RejectedError
	if errors.As(err, &rejected) {
		return false
	}
	return !errors.Is(err, context.Canceled)
}
