package domain

import "time"

// Window is the length of one rate limit window
const Window = time.Minute

// WindowStart floors t to the start of its minute in UTC
func WindowStart(t time.Time) time.Time { return t.UTC().Truncate(Window) }

// RetryAfter is the whole seconds left in t's window, never below 1
func RetryAfter(t time.Time) int {
	left := WindowStart(t).Add(Window).Sub(t)
	secs := int((left + time.Second - 1) / time.Second)
	return max(1, secs)
}
