package timeouts

import "time"

const (
	// Probe bounds daemon liveness checks; anything slower counts as down.
	Probe        = 300 * time.Millisecond
	PollInterval = 3 * time.Second
	Shutdown     = 2 * time.Second
	Request      = 10 * time.Second
	// Event covers classification plus plan generation for one message.
	Event = 2 * time.Minute
)
