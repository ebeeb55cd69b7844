package logging

// Common structured log field keys to keep logs searchable/consistent.
const (
	FieldService    = "service"
	FieldVersion    = "version"
	FieldSession    = "session_id"
	FieldMatchID    = "match_id"
	FieldAccountID  = "account_id"
	FieldEvent      = "event"
	FieldRequestID  = "request_id"
	FieldPath       = "path"
	FieldMethod     = "method"
	FieldStatusCode = "status_code"
	FieldCount      = "count"
	FieldDurationMS = "duration_ms"
	FieldAttempt    = "attempt"
)
