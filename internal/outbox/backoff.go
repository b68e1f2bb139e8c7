package outbox

import (
	"time"

	"github.com/losnotables/opsconsole/internal/models"
)

// maxExponent keeps 2^n minutes inside time.Duration.
const maxExponent = 27

// Backoff is the wait after the given number of failed attempts:
// 2^retries minutes, never more than limit when limit > 0.
func Backoff(retries int, limit time.Duration) time.Duration {
	if retries <= 0 {
		return 0
	}
	if retries > maxExponent {
		retries = maxExponent
	}
	d := time.Duration(1<<uint(retries)) * time.Minute
	if limit > 0 && d > limit {
		d = limit
	}
	return d
}

// NextAttempt is the earliest time item may be sent again. Items that
// never failed are due immediately (zero time).
func NextAttempt(item models.OutboxItem, limit time.Duration) time.Time {
	if item.Retries <= 0 || item.LastAttemptAt == nil {
		return time.Time{}
	}
	return item.LastAttemptAt.Add(Backoff(item.Retries, limit))
}
