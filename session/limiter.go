package session

import "sync"

const resendAttemptLimit = 5

// ResendThrottle caps consecutive verification-email resends within one
// flow session. It belongs to the calling surface: the store itself never
// refuses a resend, the UI driving it does.
type ResendThrottle struct {
	mu       sync.Mutex
	attempts int
}

// NewResendThrottle returns a throttle allowing five attempts.
func NewResendThrottle() *ResendThrottle {
	return &ResendThrottle{}
}

// Allow consumes one attempt, reporting false once the limit is reached.
func (t *ResendThrottle) Allow() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.attempts >= resendAttemptLimit {
		return false
	}
	t.attempts++
	return true
}

// Remaining returns how many attempts are left.
func (t *ResendThrottle) Remaining() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return resendAttemptLimit - t.attempts
}

// Reset starts a new flow session.
func (t *ResendThrottle) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.attempts = 0
}
