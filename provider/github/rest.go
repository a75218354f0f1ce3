package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/go-github/v74/github"

	"github.com/devpulsehq/insights-engine/engine"
	"github.com/devpulsehq/insights-engine/scan"
	"github.com/devpulsehq/insights-engine/workflow"
)

// GetRepositories lists every repository owned by username, most
// recently updated first.
func (c *Client) GetRepositories(ctx context.Context, username string) ([]Repository, error) {
	key := "github:repos:" + username
	if v, ok := c.cached(key); ok {
		if repos, ok := v.([]Repository); ok {
			return repos, nil
		}
	}

	var out []Repository
	page := 1
	for page > 0 {
		opts := &github.RepositoryListByUserOptions{
			Type:        "owner",
			Sort:        "updated",
			Direction:   "desc",
			ListOptions: github.ListOptions{Page: page, PerPage: c.pageSize},
		}
		repos, resp, err := c.gh.Repositories.ListByUser(ctx, username, opts)
		if err != nil {
			return nil, fmt.Errorf("list repositories for %s: %w", username, err)
		}
		for _, repo := range repos {
			if repo == nil {
				continue
			}
			out = append(out, convertRepository(repo))
		}
		page = nextPage(resp, len(repos), c.pageSize, page)
	}
	c.store(key, out)
	return out, nil
}

// GetWorkflowRuns lists workflow runs created at or after since.
func (c *Client) GetWorkflowRuns(ctx context.Context, owner, repo string, since time.Time) ([]workflow.Run, error) {
	var out []workflow.Run
	page := 1
	for page > 0 {
		opts := &github.ListWorkflowRunsOptions{
			Created:     ">=" + since.UTC().Format("2006-01-02"),
			ListOptions: github.ListOptions{Page: page, PerPage: c.pageSize},
		}
		runs, resp, err := c.gh.Actions.ListRepositoryWorkflowRuns(ctx, owner, repo, opts)
		if err != nil {
			return nil, fmt.Errorf("list workflow runs for %s/%s: %w", owner, repo, err)
		}
		for _, run := range runs.WorkflowRuns {
			if run == nil {
				continue
			}
			out = append(out, convertRun(run))
		}
		page = nextPage(resp, len(runs.WorkflowRuns), c.pageSize, page)
	}
	return out, nil
}

// GetWorkflowJobs lists the latest-attempt jobs of one workflow run.
func (c *Client) GetWorkflowJobs(ctx context.Context, owner, repo string, runID int64) ([]workflow.Job, error) {
	var out []workflow.Job
	page := 1
	for page > 0 {
		opts := &github.ListWorkflowJobsOptions{
			Filter:      "latest",
			ListOptions: github.ListOptions{Page: page, PerPage: c.pageSize},
		}
		jobs, resp, err := c.gh.Actions.ListWorkflowJobs(ctx, owner, repo, runID, opts)
		if err != nil {
			return nil, fmt.Errorf("list jobs for run %d: %w", runID, err)
		}
		for _, job := range jobs.Jobs {
			if job == nil {
				continue
			}
			out = append(out, convertJob(job))
		}
		page = nextPage(resp, len(jobs.Jobs), c.pageSize, page)
	}
	return out, nil
}

// GetRepositoryContent fetches one file and decodes its content.
// Paths that resolve to directories, or to nothing, return
// ContentNotFoundError.
func (c *Client) GetRepositoryContent(ctx context.Context, owner, repo, path, ref string) (*FileContent, error) {
	var opts *github.RepositoryContentGetOptions
	if ref != "" {
		opts = &github.RepositoryContentGetOptions{Ref: ref}
	}
	file, _, _, err := c.gh.Repositories.GetContents(ctx, owner, repo, path, opts)
	if err != nil {
		var apiErr *engine.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return nil, &ContentNotFoundError{Owner: owner, Repo: repo, Path: path}
		}
		return nil, fmt.Errorf("get contents %s/%s/%s: %w", owner, repo, path, err)
	}
	if file == nil {
		return nil, &ContentNotFoundError{Owner: owner, Repo: repo, Path: path}
	}

	content, err := file.GetContent()
	if err != nil {
		return nil, fmt.Errorf("decode content %s/%s/%s: %w", owner, repo, path, err)
	}
	return &FileContent{
		Path:    file.GetPath(),
		Name:    file.GetName(),
		SHA:     file.GetSHA(),
		Size:    file.GetSize(),
		Content: content,
	}, nil
}

// GetRepositoryTree lists every blob reachable from ref, recursively.
func (c *Client) GetRepositoryTree(ctx context.Context, owner, repo, ref string) ([]scan.Entry, error) {
	if ref == "" {
		ref = "HEAD"
	}
	tree, _, err := c.gh.Git.GetTree(ctx, owner, repo, ref, true)
	if err != nil {
		return nil, fmt.Errorf("get tree %s/%s@%s: %w", owner, repo, ref, err)
	}

	entries := make([]scan.Entry, 0, len(tree.Entries))
	for _, entry := range tree.Entries {
		if entry == nil || entry.GetType() != "blob" {
			continue
		}
		entries = append(entries, scan.Entry{Path: entry.GetPath(), Size: entry.GetSize()})
	}
	if tree.GetTruncated() {
		c.logger.Warn("git tree truncated", "owner", owner, "repo", repo, "ref", ref)
	}
	return entries, nil
}

func convertRepository(r *github.Repository) Repository {
	return Repository{
		Name:          r.GetName(),
		FullName:      r.GetFullName(),
		Description:   r.GetDescription(),
		Language:      r.GetLanguage(),
		DefaultBranch: r.GetDefaultBranch(),
		HTMLURL:       r.GetHTMLURL(),
		Stars:         r.GetStargazersCount(),
		Forks:         r.GetForksCount(),
		Private:       r.GetPrivate(),
		Fork:          r.GetFork(),
		Archived:      r.GetArchived(),
		Topics:        r.Topics,
		PushedAt:      r.GetPushedAt().Time,
		UpdatedAt:     r.GetUpdatedAt().Time,
	}
}

func convertRun(r *github.WorkflowRun) workflow.Run {
	return workflow.Run{
		ID:         r.GetID(),
		Name:       r.GetName(),
		Status:     r.GetStatus(),
		Conclusion: r.GetConclusion(),
		Branch:     r.GetHeadBranch(),
		Actor:      r.GetActor().GetLogin(),
		Event:      r.GetEvent(),
		RunNumber:  r.GetRunNumber(),
		HTMLURL:    r.GetHTMLURL(),
		CreatedAt:  r.GetCreatedAt().Time,
		UpdatedAt:  r.GetUpdatedAt().Time,
	}
}

func convertJob(j *github.WorkflowJob) workflow.Job {
	steps := make([]workflow.Step, 0, len(j.Steps))
	for _, step := range j.Steps {
		if step == nil {
			continue
		}
		steps = append(steps, workflow.Step{
			Name:       step.GetName(),
			Status:     step.GetStatus(),
			Conclusion: step.GetConclusion(),
			Number:     int(step.GetNumber()),
		})
	}
	return workflow.Job{
		ID:          j.GetID(),
		RunID:       j.GetRunID(),
		Name:        j.GetName(),
		Status:      j.GetStatus(),
		Conclusion:  j.GetConclusion(),
		StartedAt:   j.GetStartedAt().Time,
		CompletedAt: j.GetCompletedAt().Time,
		Steps:       steps,
	}
}
