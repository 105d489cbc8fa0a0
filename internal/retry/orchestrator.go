// Package retry implements the per-call state machine that sequences
// browser pool initialization, browser attempts with mode escalation, and
// bounded retry with a fixed delay. The cache lookup and the HTTP attempt
// are done by the engines and the hybrid router, not here.
package retry

import (
	"context"
	"fmt"
	"time"

	"fetchkit/internal/ferrors"
	"fetchkit/internal/logging"
)

// Attempt is the callback-shaped unit of work the orchestrator drives: try
// the browser path once in the given mode, returning a result or error.
type Attempt func(ctx context.Context, fastMode bool) (interface{}, error)

// PoolInit (re)initializes the browser pool in the requested headed mode.
// Returning nil means the pool is ready for Attempt calls.
type PoolInit func(ctx context.Context, headedMode bool) error

// Config parameterizes one orchestrator run.
type Config struct {
	MaxRetries            int
	RetryDelay            time.Duration
	DefaultFastMode       bool
	UseHeadedModeFallback bool
	Logger                logging.Logger
}

// Orchestrator runs the retry/escalation state machine described by the
// library's RetryOrchestrator component. It holds no state between Run
// calls — each call gets its own counters.
type Orchestrator struct {
	cfg Config
}

func New(cfg Config) *Orchestrator {
	return &Orchestrator{cfg: cfg}
}

// Run drives poolInit + attempt through retry/backoff/escalation until
// success, exhaustion, or cancellation. headedFallback reports whether the
// given retry attempt number (0-indexed) should use headed mode.
func (o *Orchestrator) Run(ctx context.Context, poolInit PoolInit, attempt Attempt, headedFallback func(retryAttempt int) bool) (interface{}, error) {
	fastMode := o.cfg.DefaultFastMode
	var lastErr error
	poolInitRetried := false
	retryAttempt := 0
	canEscalate := true

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		headed := o.cfg.UseHeadedModeFallback && headedFallback != nil && headedFallback(retryAttempt)

		if err := poolInit(ctx, headed); err != nil {
			if !poolInitRetried {
				poolInitRetried = true
				o.log().Warn("pool init failed, retrying once", map[string]interface{}{"error": err.Error()})
				if !o.sleep(ctx, o.cfg.RetryDelay) {
					return nil, ctx.Err()
				}
				if err2 := poolInit(ctx, headed); err2 != nil {
					return nil, ferrors.Wrap(ferrors.ErrPoolInitFailed, "browser pool initialization failed", err2)
				}
			} else {
				return nil, ferrors.Wrap(ferrors.ErrPoolInitFailed, "browser pool initialization failed", err)
			}
		}

		result, err := attempt(ctx, fastMode)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if retryAttempt >= o.cfg.MaxRetries {
			return nil, wrapExhausted(o.cfg.MaxRetries, lastErr)
		}
		retryAttempt++

		// Mode escalation fires at most once, on the very first failure:
		// it consumes a retryAttempt slot like any other retry, but skips
		// the retryDelay sleep.
		if canEscalate && fastMode {
			canEscalate = false
			fastMode = false
			o.log().Debug("escalating to thorough mode after first failure", map[string]interface{}{"error": err.Error()})
			continue
		}
		canEscalate = false

		o.log().Debug("retrying fetch", map[string]interface{}{
			"attempt": retryAttempt,
			"error":   err.Error(),
		})
		if !o.sleep(ctx, o.cfg.RetryDelay) {
			return nil, ctx.Err()
		}
	}
}

func wrapExhausted(maxRetries int, cause error) error {
	code := ferrors.ErrFetchFailed
	if fe, ok := ferrors.AsFetchError(cause); ok {
		code = fe.Code
	}
	return ferrors.Wrap(code, fmt.Sprintf("Fetch failed after %d retries: %s", maxRetries, cause.Error()), cause)
}

func (o *Orchestrator) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}

func (o *Orchestrator) log() logging.Logger {
	if o.cfg.Logger != nil {
		return o.cfg.Logger
	}
	return logging.DefaultLogger()
}
