package platform

import (
	"context"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/compozy/wfc/pkg/config"
)

// TransientPredicate reports whether err, returned from a platform call,
// is worth retrying (e.g. a 429/5xx-class HTTP status wrapped by the
// concrete client). The default predicate retries nothing, since what
// counts as transient is entirely a property of the concrete platform
// client's error values.
type TransientPredicate func(err error) bool

// RetryingClient decorates a Client with exponential backoff over
// transient faults, grounded on the teacher's provisionTemporalNamespace-
// WithRetry (engine/auth/org): NewExponential capped and jittered, bounded
// by RetryAttempts, via github.com/sethvargo/go-retry. Only the Object
// Directory's platform calls go through this decorator (§4.J/§6); the
// Planner's own decisions (conflict policy, digest comparison) are never
// retried.
type RetryingClient struct {
	Client
	isTransient TransientPredicate
	backoff     retry.Backoff
}

// NewRetryingClient wraps inner with retry, using opts' RetryDelayStart/
// RetryDelayMax/RetryAttempts. isTransient classifies which errors are
// worth retrying; inner's own errors pass straight through when it
// reports false.
func NewRetryingClient(inner Client, opts *config.Options, isTransient TransientPredicate) *RetryingClient {
	backoff := retry.NewExponential(opts.RetryDelayStart)
	backoff = retry.WithCappedDuration(opts.RetryDelayMax, backoff)
	backoff = retry.WithJitter(100*time.Millisecond, backoff)
	backoff = retry.WithMaxRetries(uint64(opts.RetryAttempts), backoff) //nolint:gosec // RetryAttempts validated gte=0
	return &RetryingClient{Client: inner, isTransient: isTransient, backoff: backoff}
}

func (c *RetryingClient) do(ctx context.Context, call func(ctx context.Context) error) error {
	return retry.Do(ctx, c.backoff, func(ctx context.Context) error {
		err := call(ctx)
		if err != nil && c.isTransient(err) {
			return retry.RetryableError(err)
		}
		return err
	})
}

func (c *RetryingClient) Resolve(ctx context.Context, path string) (Resolved, error) {
	var out Resolved
	err := c.do(ctx, func(ctx context.Context) error {
		var innerErr error
		out, innerErr = c.Client.Resolve(ctx, path)
		return innerErr
	})
	return out, err
}

func (c *RetryingClient) Describe(ctx context.Context, ref Ref) (Description, error) {
	var out Description
	err := c.do(ctx, func(ctx context.Context) error {
		var innerErr error
		out, innerErr = c.Client.Describe(ctx, ref)
		return innerErr
	})
	return out, err
}

func (c *RetryingClient) Create(ctx context.Context, kind ClassHint, req BuildRequest) (Ref, error) {
	var out Ref
	err := c.do(ctx, func(ctx context.Context) error {
		var innerErr error
		out, innerErr = c.Client.Create(ctx, kind, req)
		return innerErr
	})
	return out, err
}

func (c *RetryingClient) Close(ctx context.Context, ref Ref) error {
	return c.do(ctx, func(ctx context.Context) error {
		return c.Client.Close(ctx, ref)
	})
}

func (c *RetryingClient) FindDataObjects(
	ctx context.Context,
	folder string,
	propertyKey string,
	projectWide bool,
) ([]Description, error) {
	var out []Description
	err := c.do(ctx, func(ctx context.Context) error {
		var innerErr error
		out, innerErr = c.Client.FindDataObjects(ctx, folder, propertyKey, projectWide)
		return innerErr
	})
	return out, err
}

func (c *RetryingClient) Archive(ctx context.Context, refs []Ref) error {
	return c.do(ctx, func(ctx context.Context) error {
		return c.Client.Archive(ctx, refs)
	})
}

func (c *RetryingClient) Remove(ctx context.Context, refs []Ref) error {
	return c.do(ctx, func(ctx context.Context) error {
		return c.Client.Remove(ctx, refs)
	})
}

// HTTPStatusClassTransient builds a TransientPredicate from a function
// extracting an HTTP-like status code from an error (returning ok=false
// for errors that carry no status, which are never retried). Per §6's
// "a configurable HTTP-status-class predicate", the 429 and 5xx classes
// are retried; everything else is not.
func HTTPStatusClassTransient(statusOf func(err error) (code int, ok bool)) TransientPredicate {
	return func(err error) bool {
		code, ok := statusOf(err)
		if !ok {
			return false
		}
		return code == 429 || (code >= 500 && code < 600)
	}
}
