package redis

import (
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeJob(t *testing.T) {
	msg := redis.XMessage{
		ID: "1-0",
		Values: map[string]any{
			"data": `{"type":"workflow_health","owner":"octocat","repo":"hello-world","days":14}`,
		},
	}

	job, err := decodeJob(msg)
	require.NoError(t, err)
	assert.Equal(t, JobWorkflowHealth, job.Type)
	assert.Equal(t, "octocat", job.Owner)
	assert.Equal(t, "hello-world", job.Repo)
	assert.Equal(t, 14, job.Days)
}

func TestDecodeJobRejectsBadMessages(t *testing.T) {
	tests := []struct {
		name   string
		values map[string]any
	}{
		{name: "missing data field", values: map[string]any{"other": "x"}},
		{name: "data is not a string", values: map[string]any{"data": 42}},
		{name: "data is not json", values: map[string]any{"data": "{nope"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeJob(redis.XMessage{ID: "1-0", Values: tt.values})
			assert.Error(t, err)
		})
	}
}

func TestJobValidation(t *testing.T) {
	validate := validator.New()

	tests := []struct {
		name    string
		job     Job
		wantErr bool
	}{
		{
			name: "user insights with username",
			job:  Job{Type: JobUserInsights, Username: "octocat"},
		},
		{
			name:    "user insights without username",
			job:     Job{Type: JobUserInsights},
			wantErr: true,
		},
		{
			name: "workflow health with owner and repo",
			job:  Job{Type: JobWorkflowHealth, Owner: "octocat", Repo: "hello-world"},
		},
		{
			name:    "workflow health without repo",
			job:     Job{Type: JobWorkflowHealth, Owner: "octocat"},
			wantErr: true,
		},
		{
			name: "security scan with ref",
			job:  Job{Type: JobSecurityScan, Owner: "octocat", Repo: "hello-world", Ref: "main"},
		},
		{
			name:    "unknown type",
			job:     Job{Type: "mine_bitcoin", Owner: "octocat", Repo: "hello-world"},
			wantErr: true,
		},
		{
			name:    "negative days",
			job:     Job{Type: JobUserInsights, Username: "octocat", Days: -1},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validate.Struct(tt.job)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSubject(t *testing.T) {
	assert.Equal(t, "octocat",
		subject(Job{Type: JobUserInsights, Username: "octocat"}))
	assert.Equal(t, "octocat/hello-world",
		subject(Job{Type: JobSecurityScan, Owner: "octocat", Repo: "hello-world"}))
}

func TestStreamsDefaults(t *testing.T) {
	s := Streams{}.withDefaults()

	assert.Equal(t, "insights:jobs", s.JobStream)
	assert.Equal(t, "insights-workers", s.Group)
	assert.Equal(t, "insights:results", s.ResultStream)
	assert.EqualValues(t, 1000, s.MaxLen)
	assert.Equal(t, 10, s.BatchSize)
	assert.Equal(t, time.Second, s.BlockTimeout)
	assert.Equal(t, 100*time.Millisecond, s.BackoffMin)
	assert.Equal(t, 3*time.Second, s.BackoffMax)
	assert.Equal(t, 3*time.Second, s.ConnTimeout)
}

func TestStreamsDefaultsKeepOverrides(t *testing.T) {
	s := Streams{JobStream: "custom:jobs", BatchSize: 50}.withDefaults()

	assert.Equal(t, "custom:jobs", s.JobStream)
	assert.Equal(t, 50, s.BatchSize)
	assert.Equal(t, "insights-workers", s.Group)
}

func TestStreamsDefaultsFixInvertedBackoff(t *testing.T) {
	s := Streams{BackoffMin: time.Second, BackoffMax: time.Millisecond}.withDefaults()

	assert.Equal(t, time.Second, s.BackoffMin)
	assert.Equal(t, 3*time.Second, s.BackoffMax)
}
