package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devpulsehq/insights-engine/provider/github"
	"github.com/devpulsehq/insights-engine/scan"
	"github.com/devpulsehq/insights-engine/streak"
	"github.com/devpulsehq/insights-engine/workflow"
)

type fakeSource struct {
	mu        sync.Mutex
	yearsSeen []int
	jobCalls  []int64
	pathsSeen []string

	profile     github.Profile
	profileErr  error
	contribs    map[int]github.Contributions
	contribsErr error
	runs        []workflow.Run
	runsErr     error
	jobs        map[int64][]workflow.Job
	jobErrs     map[int64]error
	tree        []scan.Entry
	treeErr     error
	contents    map[string]string
	contentErrs map[string]error
}

func (f *fakeSource) GetUserProfile(ctx context.Context, username string) (github.Profile, error) {
	return f.profile, f.profileErr
}

func (f *fakeSource) GetOptimizedContributions(ctx context.Context, username string, years []int) (map[int]github.Contributions, error) {
	f.mu.Lock()
	f.yearsSeen = years
	f.mu.Unlock()
	if f.contribsErr != nil {
		return nil, f.contribsErr
	}
	return f.contribs, nil
}

func (f *fakeSource) GetWorkflowRuns(ctx context.Context, owner, repo string, since time.Time) ([]workflow.Run, error) {
	return f.runs, f.runsErr
}

func (f *fakeSource) GetWorkflowJobs(ctx context.Context, owner, repo string, runID int64) ([]workflow.Job, error) {
	f.mu.Lock()
	f.jobCalls = append(f.jobCalls, runID)
	f.mu.Unlock()
	if err := f.jobErrs[runID]; err != nil {
		return nil, err
	}
	return f.jobs[runID], nil
}

func (f *fakeSource) GetRepositoryTree(ctx context.Context, owner, repo, ref string) ([]scan.Entry, error) {
	return f.tree, f.treeErr
}

func (f *fakeSource) GetRepositoryContent(ctx context.Context, owner, repo, path, ref string) (*github.FileContent, error) {
	f.mu.Lock()
	f.pathsSeen = append(f.pathsSeen, path)
	f.mu.Unlock()
	if err := f.contentErrs[path]; err != nil {
		return nil, err
	}
	content, ok := f.contents[path]
	if !ok {
		return nil, &github.ContentNotFoundError{Owner: owner, Repo: repo, Path: path}
	}
	return &github.FileContent{Path: path, Name: path, Size: len(content), Content: content}, nil
}

func newTestPipeline(t *testing.T, src Source, opts Options, now time.Time) *Pipeline {
	t.Helper()
	opts.Source = src
	p, err := New(opts)
	require.NoError(t, err)
	p.now = func() time.Time { return now }
	return p
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNewRequiresSource(t *testing.T) {
	_, err := New(Options{})
	assert.ErrorContains(t, err, "source")
}

func TestUserInsights(t *testing.T) {
	src := &fakeSource{
		profile: github.Profile{Login: "octocat", Followers: 42},
		contribs: map[int]github.Contributions{
			2023: {Total: 100, Days: []streak.ContributionDay{
				{Date: day(2023, 6, 10), Count: 1},
			}},
			2024: {Total: 200, Days: []streak.ContributionDay{
				{Date: day(2024, 6, 14), Count: 2},
				{Date: day(2024, 6, 15), Count: 1},
			}},
		},
	}
	now := time.Date(2024, 6, 15, 6, 0, 0, 0, time.UTC)
	p := newTestPipeline(t, src, Options{}, now)

	insights, err := p.UserInsights(context.Background(), "octocat")
	require.NoError(t, err)

	assert.Equal(t, []int{2023, 2024}, src.yearsSeen)
	assert.Equal(t, "octocat", insights.Username)
	assert.Equal(t, 42, insights.Profile.Followers)
	assert.Equal(t, 300, insights.TotalContributions)
	assert.Equal(t, 2, insights.Streak.CurrentStreak)
	assert.Equal(t, 2, insights.Streak.LongestStreak)
	require.NotNil(t, insights.Streak.LastContributionDate)
	assert.Equal(t, day(2024, 6, 15), *insights.Streak.LastContributionDate)
	assert.Equal(t, streak.RiskSafe, insights.Risk.Level)
	assert.Equal(t, 1, insights.Risk.Severity)
	assert.Zero(t, insights.RecheckAfter)
	assert.Equal(t, now, insights.GeneratedAt)
}

func TestUserInsightsPropagatesErrors(t *testing.T) {
	src := &fakeSource{profileErr: &github.NoDataError{Entity: "user", Subject: "ghost"}}
	p := newTestPipeline(t, src, Options{}, time.Now())

	_, err := p.UserInsights(context.Background(), "ghost")

	var noData *github.NoDataError
	require.ErrorAs(t, err, &noData)
	assert.Equal(t, "ghost", noData.Subject)
}

func TestWorkflowHealth(t *testing.T) {
	failedAt := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)
	src := &fakeSource{
		runs: []workflow.Run{
			{ID: 1, Name: "CI", Status: "completed", Conclusion: "failure", Branch: "main", CreatedAt: failedAt},
			{ID: 2, Name: "CI", Status: "completed", Conclusion: "success", Branch: "main", CreatedAt: failedAt},
			{ID: 3, Name: "Deploy", Status: "completed", Conclusion: "failure", Branch: "main", CreatedAt: failedAt.Add(time.Hour)},
		},
		jobs: map[int64][]workflow.Job{
			1: {{
				ID: 11, RunID: 1, Name: "build", Status: "completed", Conclusion: "failure",
				Steps: []workflow.Step{
					{Name: "Checkout", Status: "completed", Conclusion: "success", Number: 1},
					{Name: "Compile", Status: "completed", Conclusion: "failure", Number: 2},
				},
			}},
		},
		jobErrs: map[int64]error{3: errors.New("jobs endpoint unavailable")},
	}
	now := time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC)
	p := newTestPipeline(t, src, Options{}, now)

	health, err := p.WorkflowHealth(context.Background(), "octocat", "widget", 14)
	require.NoError(t, err)

	assert.ElementsMatch(t, []int64{1, 3}, src.jobCalls, "only failed runs need job detail")
	assert.Equal(t, 14, health.Analysis.WindowDays)
	assert.Equal(t, 2, health.Analysis.TotalFailures)

	reasons := make(map[int64]string, len(health.Analysis.Failures))
	for _, f := range health.Analysis.Failures {
		reasons[f.RunID] = f.FailureReason
	}
	assert.Equal(t, `Step "Compile" failed in job "build"`, reasons[1])
	assert.Equal(t, `Workflow "Deploy" failed`, reasons[3])
}

func TestWorkflowHealthPropagatesRunListFailure(t *testing.T) {
	src := &fakeSource{runsErr: errors.New("listing broke")}
	p := newTestPipeline(t, src, Options{}, time.Now())

	_, err := p.WorkflowHealth(context.Background(), "octocat", "widget", 0)
	assert.ErrorContains(t, err, "listing broke")
}

func TestSecurityScan(t *testing.T) {
	src := &fakeSource{
		tree: []scan.Entry{
			{Path: "config/app.env", Size: 40},
			{Path: "node_modules/lib.js", Size: 10},
			{Path: "README.md", Size: 10},
		},
		contents: map[string]string{
			"config/app.env": `password = "hunter2hunter2"`,
			"README.md":      "just docs",
		},
	}
	now := time.Date(2024, 5, 20, 12, 0, 0, 0, time.UTC)
	p := newTestPipeline(t, src, Options{
		Scan: scan.Config{Exclude: []string{"node_modules/**"}},
	}, now)

	result, err := p.SecurityScan(context.Background(), "octocat", "widget", "main")
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"config/app.env", "README.md"}, src.pathsSeen)
	assert.Equal(t, 2, result.Report.FilesScanned)
	require.Len(t, result.Report.Vulnerabilities, 1)
	vuln := result.Report.Vulnerabilities[0]
	assert.Equal(t, scan.TypeEnvVar, vuln.Type)
	assert.Equal(t, "config/app.env", vuln.File)
	assert.Equal(t, 1, vuln.Line)
	assert.Equal(t, 3, result.Report.RiskScore)
	assert.Equal(t, now, result.Report.ScannedAt)
}

func TestSecurityScanSkipsUnreadableFiles(t *testing.T) {
	src := &fakeSource{
		tree: []scan.Entry{
			{Path: "a.env", Size: 10},
			{Path: "b.env", Size: 10},
		},
		contents:    map[string]string{"a.env": "nothing secret"},
		contentErrs: map[string]error{"b.env": errors.New("fetch failed")},
	}
	p := newTestPipeline(t, src, Options{}, time.Now())

	result, err := p.SecurityScan(context.Background(), "octocat", "widget", "")
	require.NoError(t, err)

	assert.Equal(t, 1, result.Report.FilesScanned)
	assert.Empty(t, result.Report.Vulnerabilities)
	assert.Zero(t, result.Report.RiskScore)
}

func TestSecurityScanPropagatesTreeFailure(t *testing.T) {
	src := &fakeSource{treeErr: errors.New("tree unavailable")}
	p := newTestPipeline(t, src, Options{}, time.Now())

	_, err := p.SecurityScan(context.Background(), "octocat", "widget", "")
	assert.ErrorContains(t, err, "tree unavailable")
}
