package matcher

import (
	"context"
	"time"

	"github.com/nimasrn/reddit-matchbot/pkg/logger"
)

const (
	DefaultSendDelay  = 20 * time.Second
	DefaultRetryDelay = 120 * time.Second

	SubjectFirst = "🔐 Your Match Code"
	SubjectRetry = "🚨 Code Redelivery!"
	RetryWarning = "\n\n⚠️ Final attempt! Lose this and you get AutoModerator 🤖"
)

// Messenger delivers private messages on the platform.
type Messenger interface {
	SendMessage(ctx context.Context, to, subject, body string) error
}

// SleepFunc blocks for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Courier sends one message at a time and waits sendDelay after every
// successful send to stay under the platform rate limit.
type Courier struct {
	messenger Messenger
	sendDelay time.Duration
	sleep     SleepFunc
	metrics   *RunMetrics
}

func NewCourier(messenger Messenger, sendDelay time.Duration) *Courier {
	return &Courier{
		messenger: messenger,
		sendDelay: sendDelay,
		sleep:     sleepContext,
	}
}

// Send delivers body to handle. Retries use a different subject and carry a
// warning line. Failures are logged and reported as false.
func (c *Courier) Send(ctx context.Context, handle, body string, retry bool) bool {
	subject := SubjectFirst
	if retry {
		subject = SubjectRetry
		body += RetryWarning
	}

	start := time.Now()
	err := c.messenger.SendMessage(ctx, handle, subject, body)
	c.metrics.RecordDM(retry, err == nil, time.Since(start))
	if err != nil {
		logger.Error("DM failed", "handle", handle, "retry", retry, "error", err.Error())
		return false
	}

	logger.Info("DM sent", "handle", handle, "retry", retry)
	_ = c.sleep(ctx, c.sendDelay)
	return true
}
