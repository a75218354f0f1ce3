package pipeline

import (
	"context"
	"time"

	"github.com/devpulsehq/insights-engine/provider/github"
	"github.com/devpulsehq/insights-engine/scan"
	"github.com/devpulsehq/insights-engine/streak"
	"github.com/devpulsehq/insights-engine/workflow"
)

// Source is the slice of the data client the pipeline consumes.
// *github.Client satisfies it.
type Source interface {
	GetUserProfile(ctx context.Context, username string) (github.Profile, error)
	GetOptimizedContributions(ctx context.Context, username string, years []int) (map[int]github.Contributions, error)
	GetWorkflowRuns(ctx context.Context, owner, repo string, since time.Time) ([]workflow.Run, error)
	GetWorkflowJobs(ctx context.Context, owner, repo string, runID int64) ([]workflow.Job, error)
	GetRepositoryTree(ctx context.Context, owner, repo, ref string) ([]scan.Entry, error)
	GetRepositoryContent(ctx context.Context, owner, repo, path, ref string) (*github.FileContent, error)
}

// UserInsights bundles everything one user job produces.
type UserInsights struct {
	Username           string                       `json:"username"`
	Profile            github.Profile               `json:"profile"`
	Contributions      map[int]github.Contributions `json:"contributions"`
	TotalContributions int                          `json:"total_contributions"`
	Streak             streak.Stats                 `json:"streak"`
	Risk               streak.Assessment            `json:"risk"`
	RecheckAfter       time.Duration                `json:"recheck_after"`
	GeneratedAt        time.Time                    `json:"generated_at"`
}

// WorkflowHealth is the failure analysis of one repository's recent
// workflow runs.
type WorkflowHealth struct {
	Owner       string            `json:"owner"`
	Repo        string            `json:"repo"`
	Analysis    workflow.Analysis `json:"analysis"`
	GeneratedAt time.Time         `json:"generated_at"`
}

// SecurityScan is the credential scan report of one repository tree.
type SecurityScan struct {
	Owner       string      `json:"owner"`
	Repo        string      `json:"repo"`
	Ref         string      `json:"ref,omitempty"`
	Report      scan.Report `json:"report"`
	GeneratedAt time.Time   `json:"generated_at"`
}
