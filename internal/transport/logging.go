// SPDX-License-Identifier: MIT
package transport

import (
	"shottimer/internal/log"
)

// LoggingTransport implements the Transport interface by logging shots.
type LoggingTransport struct {
	log log.Logger
}

// NewLoggingTransport creates a new LoggingTransport instance.
func NewLoggingTransport() *LoggingTransport {
	return &LoggingTransport{log: log.New("transport")}
}

// Send logs the shot at info level.
func (lt *LoggingTransport) Send(msg ShotMessage) error {
	lt.log.Infof("session %s: %s", msg.SessionID, msg.Event())
	return nil // Logging transport never fails to "send"
}

// Close is a no-op for LoggingTransport.
func (lt *LoggingTransport) Close() error {
	return nil
}

// Ensure LoggingTransport satisfies the interface at compile time.
var _ Transport = (*LoggingTransport)(nil)
