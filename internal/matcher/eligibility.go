package matcher

import (
	"context"
	"time"

	"github.com/nimasrn/reddit-matchbot/internal/model"
	"github.com/nimasrn/reddit-matchbot/pkg/logger"
)

const DefaultMinAccountAgeDays = 90

// AccountDirectory looks up accounts on the platform.
type AccountDirectory interface {
	AccountCreatedAt(ctx context.Context, name string) (time.Time, error)
}

type EligibilityChecker struct {
	directory  AccountDirectory
	minAgeDays int
	now        func() time.Time
}

func NewEligibilityChecker(directory AccountDirectory, minAgeDays int) *EligibilityChecker {
	return &EligibilityChecker{
		directory:  directory,
		minAgeDays: minAgeDays,
		now:        time.Now,
	}
}

// IsEligible reports whether the account behind handle is at least
// minAgeDays whole days old. A failed lookup counts as not eligible.
func (c *EligibilityChecker) IsEligible(ctx context.Context, handle string) bool {
	name := model.StripHandle(handle)
	if name == "" {
		return false
	}

	createdAt, err := c.directory.AccountCreatedAt(ctx, name)
	if err != nil {
		logger.Warn("Account lookup failed", "handle", handle, "error", err)
		return false
	}

	days := int(c.now().Sub(createdAt) / (24 * time.Hour))
	logger.Debug("Account age", "handle", handle, "days", days, "min_days", c.minAgeDays)
	return days >= c.minAgeDays
}
