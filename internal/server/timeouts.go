package server

import "time"

// Feed posts arrive roughly twice a second per viewer and are small, so the
// read and write deadlines stay tight.
const (
	readTimeout  = 5 * time.Second
	writeTimeout = 5 * time.Second
	idleTimeout  = 90 * time.Second
)

// shutdownTimeout remains a var for tests to override.
var shutdownTimeout = 10 * time.Second
