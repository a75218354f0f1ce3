package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/devpulsehq/insights-engine/scan"
	"github.com/devpulsehq/insights-engine/streak"
	"github.com/devpulsehq/insights-engine/workflow"
)

const (
	defaultConcurrency = 10
	defaultYears       = 2
	defaultWindowDays  = 30
)

// Options configures a Pipeline. Source is required.
type Options struct {
	Source Source
	Logger *slog.Logger

	// Concurrency bounds parallel fetches within one operation. The
	// engine queue still serializes actual dispatch.
	Concurrency int

	// Years of contribution history per user insights run.
	Years int

	// WindowDays is the default failure-analysis window.
	WindowDays int

	// RiskThreshold for streak at-risk marking; zero uses the streak
	// package default.
	RiskThreshold time.Duration

	// Risk tier thresholds; zero value uses the defaults.
	Risk streak.RiskConfig

	// Scan controls security-scan file selection.
	Scan scan.Config
}

// Pipeline turns single job requests into aggregated results, fanning
// per-item fetches out over the shared request engine.
type Pipeline struct {
	source        Source
	logger        *slog.Logger
	concurrency   int
	years         int
	windowDays    int
	riskThreshold time.Duration
	risk          streak.RiskConfig
	scanCfg       scan.Config
	now           func() time.Time
}

// New builds a Pipeline with defaults filled in.
func New(opts Options) (*Pipeline, error) {
	if opts.Source == nil {
		return nil, errors.New("pipeline: source is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	years := opts.Years
	if years <= 0 {
		years = defaultYears
	}
	windowDays := opts.WindowDays
	if windowDays <= 0 {
		windowDays = defaultWindowDays
	}
	risk := opts.Risk
	if risk == (streak.RiskConfig{}) {
		risk = streak.DefaultRiskConfig()
	}
	return &Pipeline{
		source:        opts.Source,
		logger:        logger,
		concurrency:   concurrency,
		years:         years,
		windowDays:    windowDays,
		riskThreshold: opts.RiskThreshold,
		risk:          risk,
		scanCfg:       opts.Scan,
		now:           time.Now,
	}, nil
}

// UserInsights assembles a user's profile, contribution calendars,
// streak stats and risk assessment. All calendar years ride a single
// aliased request.
func (p *Pipeline) UserInsights(ctx context.Context, username string) (*UserInsights, error) {
	profile, err := p.source.GetUserProfile(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("user insights for %s: %w", username, err)
	}

	now := p.now()
	years := make([]int, 0, p.years)
	for y := now.Year() - p.years + 1; y <= now.Year(); y++ {
		years = append(years, y)
	}
	contribs, err := p.source.GetOptimizedContributions(ctx, username, years)
	if err != nil {
		return nil, fmt.Errorf("user insights for %s: %w", username, err)
	}

	total := 0
	var days []streak.ContributionDay
	for _, year := range years {
		total += contribs[year].Total
		days = append(days, contribs[year].Days...)
	}

	stats := streak.Calculate(days, now, p.riskThreshold)
	risk := streak.Assess(stats.LastContributionDate, now, p.risk)

	return &UserInsights{
		Username:           username,
		Profile:            profile,
		Contributions:      contribs,
		TotalContributions: total,
		Streak:             stats,
		Risk:               risk,
		RecheckAfter:       streak.Cooldown(risk.Level),
		GeneratedAt:        now,
	}, nil
}

// WorkflowHealth analyzes a repository's failed workflow runs inside
// the window. Job detail fetches are best effort: a run whose jobs
// cannot be fetched still counts as a failure, just without step
// attribution.
func (p *Pipeline) WorkflowHealth(ctx context.Context, owner, repo string, windowDays int) (*WorkflowHealth, error) {
	if windowDays <= 0 {
		windowDays = p.windowDays
	}
	now := p.now()
	since := now.AddDate(0, 0, -windowDays)

	runs, err := p.source.GetWorkflowRuns(ctx, owner, repo, since)
	if err != nil {
		return nil, fmt.Errorf("workflow health for %s/%s: %w", owner, repo, err)
	}

	jobs := make(map[int64][]workflow.Job, len(runs))
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for _, run := range runs {
		if run.Status != "completed" || run.Conclusion != "failure" {
			continue
		}
		g.Go(func() error {
			runJobs, err := p.source.GetWorkflowJobs(gctx, owner, repo, run.ID)
			if err != nil {
				p.logger.Warn("skipping job detail for run",
					"owner", owner, "repo", repo, "run_id", run.ID, "error", err)
				return nil
			}
			mu.Lock()
			jobs[run.ID] = runJobs
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return &WorkflowHealth{
		Owner:       owner,
		Repo:        repo,
		Analysis:    workflow.Analyze(runs, jobs, windowDays),
		GeneratedAt: now,
	}, nil
}

// SecurityScan walks a repository tree, fetches the selected files and
// scans them for exposed credentials. File fetches are best effort.
func (p *Pipeline) SecurityScan(ctx context.Context, owner, repo, ref string) (*SecurityScan, error) {
	entries, err := p.source.GetRepositoryTree(ctx, owner, repo, ref)
	if err != nil {
		return nil, fmt.Errorf("security scan for %s/%s: %w", owner, repo, err)
	}

	selected, err := scan.SelectFiles(entries, p.scanCfg)
	if err != nil {
		return nil, fmt.Errorf("security scan for %s/%s: %w", owner, repo, err)
	}

	// Slot-per-file keeps the scan order deterministic no matter how
	// the concurrent fetches interleave.
	files := make([]scan.File, len(selected))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for i, entry := range selected {
		g.Go(func() error {
			file, err := p.source.GetRepositoryContent(gctx, owner, repo, entry.Path, ref)
			if err != nil {
				p.logger.Warn("skipping unreadable file",
					"owner", owner, "repo", repo, "path", entry.Path, "error", err)
				return nil
			}
			files[i] = scan.File{Path: file.Path, Content: file.Content}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	scanned := make([]scan.File, 0, len(files))
	for _, f := range files {
		if f.Path != "" {
			scanned = append(scanned, f)
		}
	}

	now := p.now()
	report := scan.Summarize(len(scanned), scan.Execute(scanned), now)
	return &SecurityScan{
		Owner:       owner,
		Repo:        repo,
		Ref:         ref,
		Report:      report,
		GeneratedAt: now,
	}, nil
}
