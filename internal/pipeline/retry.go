package pipeline

import (
	"errors"
	"math/rand/v2"
	"time"

	"github.com/dgallion1/linkpost/internal/newsletter"
)

// MaxRetries bounds generator calls per job.
const MaxRetries = 3

const maxBackoff = 30 * time.Second

// IsRetryable reports whether Gemini rejected the call in a way a later call
// may not be: rate limits and server errors.
func IsRetryable(err error) bool {
	var re *newsletter.RetryableError
	return errors.As(err, &re)
}

// Backoff is the wait after failed attempt n (0-indexed): one second doubling
// up to maxBackoff, plus up to half again as jitter.
func Backoff(attempt int) time.Duration {
	d := maxBackoff
	if attempt < 5 {
		d = min(time.Second<<attempt, maxBackoff)
	}
	return d + rand.N(d/2)
}
