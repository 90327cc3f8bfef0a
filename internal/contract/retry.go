package contract

import (
	"fmt"
	"time"
)

// Default retry settings for working copy removal.
const (
	DefaultRemoveAttempts = 3
	DefaultRemoveDelay    = time.Second
)

// RetryPolicy runs an operation a bounded number of times with a fixed delay between attempts.
type RetryPolicy struct {
	Attempts int
	Delay    time.Duration
	Sleep    func(time.Duration) // nil means time.Sleep
}

// DefaultRetryPolicy returns the policy used for directory removal.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Attempts: DefaultRemoveAttempts,
		Delay:    DefaultRemoveDelay,
	}
}

// Do calls op until it succeeds or the attempts run out. It sleeps only between attempts.
func (p RetryPolicy) Do(op func(attempt int) error) error {
	attempts := max(p.Attempts, 1)
	sleep := p.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = op(attempt); err == nil {
			return nil
		}
		if attempt < attempts {
			sleep(p.Delay)
		}
	}
	return fmt.Errorf("gave up after %d attempts: %w", attempts, err)
}
