package app

import "time"

type toastLevel int

const (
	toastInfo toastLevel = iota
	toastWarn
	toastError
)

// toast is a transient footer message with an absolute expiry.
type toast struct {
	level     toastLevel
	message   string
	expiresAt time.Time
}

const toastDuration = 3 * time.Second

func newToast(level toastLevel, message string, now time.Time) *toast {
	return &toast{level: level, message: message, expiresAt: now.Add(toastDuration)}
}

func (t *toast) expired(now time.Time) bool {
	return t == nil || !now.Before(t.expiresAt)
}
