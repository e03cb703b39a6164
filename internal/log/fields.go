package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldQuery      = "query"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldUserAgent  = "user_agent"
	FieldSuccess    = "success"
	FieldError      = "error"
	FieldOperation  = "operation"
	FieldYear       = "year"
	FieldMonth      = "month"
	FieldDate       = "date"
	FieldEndpoint   = "endpoint"
	FieldFetchSeq   = "fetch_seq"
	FieldAppliedSeq = "applied_seq"
	FieldCacheState = "cache_state"
	FieldShape      = "payload_shape"
	FieldPanel      = "panel"
	FieldTitleID    = "title_id"
	FieldGames      = "games"
	FieldDays       = "days"
	FieldBackend    = "backend"
	FieldReason     = "reason"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentDashboard = "dashboard"
	ComponentNormalize = "normalize"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentUpstream  = "upstream"
	ComponentCache     = "cache"
	ComponentRateLimit = "rate_limit"
	ComponentTrace     = "trace"
	ComponentBackend   = "backend"
	ComponentCLI       = "cli"
)

// Cache slot operations reported with FieldOperation
const (
	OpRead  = "read"
	OpWrite = "write"
)

// Cache states reported with FieldCacheState
const (
	CacheFresh  = "fresh"
	CacheStale  = "stale"
	CacheAbsent = "absent"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithClientIP adds client IP field
func (f LogFields) WithClientIP(ip string) LogFields {
	f[FieldClientIP] = ip
	return f
}

// WithDataset adds dataset size fields
func (f LogFields) WithDataset(games, days int) LogFields {
	f[FieldGames] = games
	f[FieldDays] = days
	return f
}

// WithHTTPRequest adds HTTP request fields
func (f LogFields) WithHTTPRequest(method, path, query, userAgent string) LogFields {
	f[FieldMethod] = method
	f[FieldPath] = path
	f[FieldQuery] = query
	if userAgent != "" {
		f[FieldUserAgent] = userAgent
	}
	return f
}

// WithHTTPResponse adds HTTP response fields
func (f LogFields) WithHTTPResponse(statusCode int, durationMs int64, success bool) LogFields {
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = durationMs
	f[FieldSuccess] = success
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
