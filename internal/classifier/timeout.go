package classifier

import (
	"context"
	"time"

	"github.com/featherframe/featherframe/internal/errors"
)

// TimeoutClassifier bounds every Identify call with a deadline. A model that
// hangs past the deadline is reported as a classifier error, not as an
// unidentified result.
type TimeoutClassifier struct {
	inner   Classifier
	timeout time.Duration
}

// WithTimeout wraps c so every Identify call is cancelled after timeout.
func WithTimeout(c Classifier, timeout time.Duration) *TimeoutClassifier {
	return &TimeoutClassifier{inner: c, timeout: timeout}
}

// Identify delegates to the wrapped classifier under a deadline.
func (t *TimeoutClassifier) Identify(ctx context.Context, image []byte) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	result, err := t.inner.Identify(ctx, image)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return Result{}, errors.New(err).
				Component("classifier").
				Category(errors.CategoryTimeout).
				Context("timeout", t.timeout.String()).
				Build()
		}
		return Result{}, errors.New(err).
			Component("classifier").
			Category(errors.CategoryClassifier).
			Build()
	}
	return result, nil
}
