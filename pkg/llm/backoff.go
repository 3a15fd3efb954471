package llm

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// RetryPolicy handles rate limit detection and backoff for generation calls.
// It is passed into the client explicitly so the attempt loop upstream never
// sees or duplicates this retry count.
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	BufferTime time.Duration
}

// NewRetryPolicy returns a policy with sensible defaults.
func NewRetryPolicy() *RetryPolicy {
	return &RetryPolicy{
		MaxRetries: 5,
		BaseDelay:  2 * time.Second,
		MaxDelay:   120 * time.Second,
		BufferTime: 2 * time.Second,
	}
}

func containsRateLimitPhrases(s string) bool {
	s = strings.ToLower(s)
	return strings.Contains(s, "rate limit") ||
		strings.Contains(s, "rate exceeded") ||
		strings.Contains(s, "quota exceeded") ||
		strings.Contains(s, "too many requests") ||
		strings.Contains(s, "insufficient_quota")
}

// IsRateLimit checks whether an error or HTTP response indicates rate limiting.
func (p *RetryPolicy) IsRateLimit(err error, statusCode int) bool {
	if statusCode == http.StatusTooManyRequests {
		return true
	}
	if err != nil {
		errStr := strings.ToLower(err.Error())
		if strings.Contains(errStr, "429") {
			return true
		}
		return containsRateLimitPhrases(errStr)
	}
	return false
}

// Delay computes how long to wait before the given retry attempt, preferring
// a Retry-After header over exponential backoff when one is present.
func (p *RetryPolicy) Delay(resp *http.Response, attempt int) time.Duration {
	if resp != nil {
		if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
			if seconds, err := strconv.Atoi(retryAfter); err == nil {
				return p.capDelay(time.Duration(seconds)*time.Second + p.BufferTime)
			}
		}
	}
	return p.capDelay(p.BaseDelay * time.Duration(math.Pow(2, float64(attempt))))
}

// ShouldRetry reports whether another retry is allowed after attempt.
func (p *RetryPolicy) ShouldRetry(attempt int) bool {
	return attempt < p.MaxRetries
}

func (p *RetryPolicy) capDelay(delay time.Duration) time.Duration {
	if delay > p.MaxDelay {
		return p.MaxDelay
	}
	if delay < 0 {
		return p.BaseDelay
	}
	return delay
}
