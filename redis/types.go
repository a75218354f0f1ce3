package redis

import "time"

// Job types understood by the consumer.
const (
	JobUserInsights   = "user_insights"
	JobWorkflowHealth = "workflow_health"
	JobSecurityScan   = "security_scan"
)

// Job is one unit of work read off the job stream. Producers publish it
// as a JSON document under the "data" field of a stream entry.
type Job struct {
	Type     string `json:"type" validate:"required,oneof=user_insights workflow_health security_scan"`
	Username string `json:"username" validate:"required_if=Type user_insights"`
	Owner    string `json:"owner" validate:"required_unless=Type user_insights"`
	Repo     string `json:"repo" validate:"required_unless=Type user_insights"`
	Ref      string `json:"ref"`
	Days     int    `json:"days" validate:"gte=0"`
}

// Streams describes the stream topology and consumer tuning. Zero
// fields fall back to the defaults below.
type Streams struct {
	JobStream    string
	Group        string
	ResultStream string
	MaxLen       int64
	BatchSize    int
	BlockTimeout time.Duration
	BackoffMin   time.Duration
	BackoffMax   time.Duration
	ConnTimeout  time.Duration
}

const (
	defaultJobStream    = "insights:jobs"
	defaultGroup        = "insights-workers"
	defaultResultStream = "insights:results"
	defaultMaxLen       = 1000
	defaultBatchSize    = 10
	defaultBlockTimeout = time.Second
	defaultBackoffMin   = 100 * time.Millisecond
	defaultBackoffMax   = 3 * time.Second
	defaultConnTimeout  = 3 * time.Second
)

func (s Streams) withDefaults() Streams {
	if s.JobStream == "" {
		s.JobStream = defaultJobStream
	}
	if s.Group == "" {
		s.Group = defaultGroup
	}
	if s.ResultStream == "" {
		s.ResultStream = defaultResultStream
	}
	if s.MaxLen <= 0 {
		s.MaxLen = defaultMaxLen
	}
	if s.BatchSize <= 0 {
		s.BatchSize = defaultBatchSize
	}
	if s.BlockTimeout <= 0 {
		s.BlockTimeout = defaultBlockTimeout
	}
	if s.BackoffMin <= 0 {
		s.BackoffMin = defaultBackoffMin
	}
	if s.BackoffMax < s.BackoffMin {
		s.BackoffMax = defaultBackoffMax
	}
	if s.ConnTimeout <= 0 {
		s.ConnTimeout = defaultConnTimeout
	}
	return s
}
