package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/techdesk-service/internal/config"
	"github.com/spec-kit/techdesk-service/internal/mail"
	"github.com/spec-kit/techdesk-service/internal/service"
)

type fakeSender struct {
	mu    sync.Mutex
	errs  []error
	calls int
	sent  []mail.Message
}

func (f *fakeSender) Send(_ context.Context, msg mail.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return err
		}
	}
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeSender) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newPool(sender mail.Sender) *Pool {
	return &Pool{
		sender: sender,
		opts:   Options{Workers: 1, MaxAttempts: 3, InitialDelay: time.Millisecond},
		logger: zap.NewNop(),
	}
}

func job(build func(context.Context) (mail.Message, error)) service.NotificationJob {
	return service.NotificationJob{Template: "test", Build: build}
}

func staticJob() service.NotificationJob {
	return job(func(context.Context) (mail.Message, error) {
		return mail.Message{To: []string{"a@b.test"}, Subject: "hi"}, nil
	})
}

func TestDeliverRetriesTransientFailures(t *testing.T) {
	sender := &fakeSender{errs: []error{&mail.StatusError{Code: 503}, errors.New("connection reset")}}
	p := newPool(sender)

	assert.Equal(t, "sent", p.deliver(context.Background(), staticJob()))
	assert.Equal(t, 3, sender.Calls())
}

func TestDeliverStopsOnPermanentFailures(t *testing.T) {
	cases := map[string]error{
		"client error": &mail.StatusError{Code: 400},
		"rejected":     &mail.RejectedError{Reason: "bad address"},
	}
	for name, err := range cases {
		t.Run(name, func(t *testing.T) {
			sender := &fakeSender{errs: []error{err}}
			p := newPool(sender)

			assert.Equal(t, "failed", p.deliver(context.Background(), staticJob()))
			assert.Equal(t, 1, sender.Calls())
		})
	}
}

func TestDeliverGivesUpAfterMaxAttempts(t *testing.T) {
	down := &mail.StatusError{Code: 502}
	sender := &fakeSender{errs: []error{down, down, down, down}}
	p := newPool(sender)

	assert.Equal(t, "failed", p.deliver(context.Background(), staticJob()))
	assert.Equal(t, 3, sender.Calls())
}

func TestDeliverSkips(t *testing.T) {
	sender := &fakeSender{}
	p := newPool(sender)

	empty := job(func(context.Context) (mail.Message, error) { return mail.Message{}, service.ErrNothingToSend })
	assert.Equal(t, "skipped", p.deliver(context.Background(), empty))
	assert.Zero(t, sender.Calls())

	disabled := newPool(&fakeSender{errs: []error{mail.ErrDisabled}})
	assert.Equal(t, "skipped", disabled.deliver(context.Background(), staticJob()))
}

func TestWorkersDrainQueue(t *testing.T) {
	svc := service.NewNotificationService(config.MailConfig{QueueSize: 4}, service.NotificationDependencies{})
	sender := &fakeSender{}
	ctx, cancel := context.WithCancel(context.Background())

	pool := StartNotificationWorker(ctx, svc, sender, Options{Workers: 2, InitialDelay: time.Millisecond}, nil, nil)
	require.True(t, svc.Enqueue(staticJob()))
	require.True(t, svc.Enqueue(staticJob()))

	assert.Eventually(t, func() bool { return sender.Calls() == 2 }, time.Second, 5*time.Millisecond)
	cancel()
	pool.Wait()
}
