package ws

import "time"

// ConnInfo is the identity captured at connect time; disconnect handling and
// event publishing use it instead of re-parsing the request.
type ConnInfo struct {
	ConnID      string
	UserID      int
	IP          string
	RequestID   string
	TraceID     string
	ConnectedAt time.Time
}
