package apify

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

const (
	defaultPollInterval    = time.Second
	defaultPollMaxAttempts = 30
	abortTimeout           = 5 * time.Second
)

var (
	// ErrRunFailed means the run reached FAILED, ABORTED or TIMED-OUT on the Apify side.
	ErrRunFailed = eris.New("apify: run failed")
	// ErrRunTimedOut means the run did not finish within the poll budget.
	ErrRunTimedOut = eris.New("apify: run timed out")
)

// PollOption configures polling behavior.
type PollOption func(*pollConfig)

type pollConfig struct {
	interval    time.Duration
	maxAttempts int
}

// WithPollInterval overrides the fixed delay between status checks.
func WithPollInterval(d time.Duration) PollOption {
	return func(c *pollConfig) {
		if d > 0 {
			c.interval = d
		}
	}
}

// WithMaxAttempts overrides the number of status checks before giving up.
func WithMaxAttempts(n int) PollOption {
	return func(c *pollConfig) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

// PollRun waits for runID to finish. Each attempt sleeps one interval and
// then checks the status, so the loop ends after at most maxAttempts checks,
// interval*maxAttempts of wall time, or when ctx ends. On timeout the run is aborted remotely, best-effort, and
// ErrRunTimedOut is returned. A transient status-check error counts as an
// attempt and does not stop polling.
func PollRun(ctx context.Context, client Client, runID string, opts ...PollOption) (*Run, error) {
	cfg := pollConfig{interval: defaultPollInterval, maxAttempts: defaultPollMaxAttempts}
	for _, opt := range opts {
		opt(&cfg)
	}

	pollCtx, cancel := context.WithTimeout(ctx, cfg.interval*time.Duration(cfg.maxAttempts))
	defer cancel()

	var lastErr error
	for attempt := 1; attempt <= cfg.maxAttempts; attempt++ {
		select {
		case <-pollCtx.Done():
			return nil, timedOut(ctx, client, runID, attempt-1, pollCtx.Err())
		case <-time.After(cfg.interval):
		}

		run, err := client.GetRun(pollCtx, runID)
		if err != nil {
			lastErr = err
			zap.L().Debug("apify: status check failed",
				zap.String("run_id", runID),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			continue
		}

		switch run.Status {
		case StatusSucceeded:
			return run, nil
		case StatusFailed, StatusAborted, StatusTimedOut:
			return run, eris.Wrapf(ErrRunFailed, "apify: run %s ended with %s", runID, run.Status)
		}
	}

	return nil, timedOut(ctx, client, runID, cfg.maxAttempts, lastErr)
}

func timedOut(ctx context.Context, client Client, runID string, attempts int, cause error) error {
	abortCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), abortTimeout)
	defer cancel()

	if _, err := client.AbortRun(abortCtx, runID); err != nil {
		zap.L().Warn("apify: abort run failed", zap.String("run_id", runID), zap.Error(err))
	}

	zap.L().Info("apify: run timed out",
		zap.String("run_id", runID),
		zap.Int("attempts", attempts),
		zap.NamedError("last_error", cause),
	)
	return eris.Wrapf(ErrRunTimedOut, "apify: run %s after %d attempts", runID, attempts)
}
