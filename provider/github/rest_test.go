package github

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetRepositoriesFollowsLinkHeader(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/users/octocat/repos", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("page") {
		case "", "1":
			w.Header().Set("Link", fmt.Sprintf(
				`<http://%s/users/octocat/repos?page=2>; rel="next", <http://%s/users/octocat/repos?page=2>; rel="last"`,
				r.Host, r.Host))
			fmt.Fprint(w, `[
				{"id":1,"name":"alpha","full_name":"octocat/alpha","stargazers_count":42,"forks_count":7,"language":"Go","default_branch":"main","html_url":"https://github.com/octocat/alpha","topics":["cli","go"],"pushed_at":"2024-03-01T10:00:00Z","updated_at":"2024-03-02T10:00:00Z"},
				{"id":2,"name":"beta","full_name":"octocat/beta","fork":true}
			]`)
		case "2":
			fmt.Fprint(w, `[{"id":3,"name":"gamma","full_name":"octocat/gamma","archived":true,"private":true}]`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	c := newTestClient(t, mux, Options{})

	repos, err := c.GetRepositories(context.Background(), "octocat")
	require.NoError(t, err)

	require.Len(t, repos, 3)
	assert.Equal(t, "alpha", repos[0].Name)
	assert.Equal(t, "octocat/alpha", repos[0].FullName)
	assert.Equal(t, 42, repos[0].Stars)
	assert.Equal(t, 7, repos[0].Forks)
	assert.Equal(t, "Go", repos[0].Language)
	assert.Equal(t, []string{"cli", "go"}, repos[0].Topics)
	assert.Equal(t, 2024, repos[0].PushedAt.Year())
	assert.True(t, repos[1].Fork)
	assert.True(t, repos[2].Archived)
	assert.True(t, repos[2].Private)
}

func TestGetRepositoriesFallsBackWithoutLinkHeader(t *testing.T) {
	var hits int32
	mux := http.NewServeMux()
	mux.HandleFunc("/users/octocat/repos", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		switch r.URL.Query().Get("page") {
		case "", "1":
			fmt.Fprint(w, `[{"id":1,"name":"alpha"},{"id":2,"name":"beta"}]`)
		case "2":
			fmt.Fprint(w, `[{"id":3,"name":"gamma"}]`)
		default:
			assert.Fail(t, "walk must stop after the first short page", "page %s", r.URL.Query().Get("page"))
			w.WriteHeader(http.StatusNotFound)
		}
	})
	c := newTestClient(t, mux, Options{PageSize: 2})

	repos, err := c.GetRepositories(context.Background(), "octocat")
	require.NoError(t, err)

	assert.Len(t, repos, 3)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

func TestGetRepositoriesCachesResult(t *testing.T) {
	var hits int32
	mux := http.NewServeMux()
	mux.HandleFunc("/users/octocat/repos", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		fmt.Fprint(w, `[{"id":1,"name":"alpha"}]`)
	})
	c := newTestClient(t, mux, Options{Cache: newTestCache(t)})

	first, err := c.GetRepositories(context.Background(), "octocat")
	require.NoError(t, err)
	second, err := c.GetRepositories(context.Background(), "octocat")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))

	c.InvalidateUser("octocat")
	_, err = c.GetRepositories(context.Background(), "octocat")
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits), "invalidation must force a refetch")
}

func TestGetWorkflowRunsFiltersByDate(t *testing.T) {
	created := make(chan string, 1)
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/octocat/widget/actions/runs", func(w http.ResponseWriter, r *http.Request) {
		created <- r.URL.Query().Get("created")
		fmt.Fprint(w, `{"total_count":1,"workflow_runs":[{
			"id":101,"name":"CI","head_branch":"main","run_number":7,"event":"push",
			"status":"completed","conclusion":"failure",
			"html_url":"https://github.com/octocat/widget/actions/runs/101",
			"created_at":"2024-05-01T12:00:00Z","updated_at":"2024-05-01T12:05:00Z",
			"actor":{"login":"octocat"}
		}]}`)
	})
	c := newTestClient(t, mux, Options{})

	since := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	runs, err := c.GetWorkflowRuns(context.Background(), "octocat", "widget", since)
	require.NoError(t, err)

	assert.Equal(t, ">=2024-04-01", <-created)
	require.Len(t, runs, 1)
	run := runs[0]
	assert.Equal(t, int64(101), run.ID)
	assert.Equal(t, "CI", run.Name)
	assert.Equal(t, "main", run.Branch)
	assert.Equal(t, "octocat", run.Actor)
	assert.Equal(t, "push", run.Event)
	assert.Equal(t, 7, run.RunNumber)
	assert.Equal(t, "completed", run.Status)
	assert.Equal(t, "failure", run.Conclusion)
	assert.Equal(t, 12, run.CreatedAt.Hour())
}

func TestGetWorkflowJobsIncludesSteps(t *testing.T) {
	filter := make(chan string, 1)
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/octocat/widget/actions/runs/101/jobs", func(w http.ResponseWriter, r *http.Request) {
		filter <- r.URL.Query().Get("filter")
		fmt.Fprint(w, `{"total_count":1,"jobs":[{
			"id":7001,"run_id":101,"name":"build","status":"completed","conclusion":"failure",
			"started_at":"2024-05-01T12:00:10Z","completed_at":"2024-05-01T12:04:00Z",
			"steps":[
				{"name":"Checkout","status":"completed","conclusion":"success","number":1},
				{"name":"Run tests","status":"completed","conclusion":"failure","number":2}
			]
		}]}`)
	})
	c := newTestClient(t, mux, Options{})

	jobs, err := c.GetWorkflowJobs(context.Background(), "octocat", "widget", 101)
	require.NoError(t, err)

	assert.Equal(t, "latest", <-filter)
	require.Len(t, jobs, 1)
	job := jobs[0]
	assert.Equal(t, int64(7001), job.ID)
	assert.Equal(t, int64(101), job.RunID)
	assert.Equal(t, "build", job.Name)
	assert.Equal(t, "failure", job.Conclusion)
	require.Len(t, job.Steps, 2)
	assert.Equal(t, "Run tests", job.Steps[1].Name)
	assert.Equal(t, "failure", job.Steps[1].Conclusion)
	assert.Equal(t, 2, job.Steps[1].Number)
}

func TestGetRepositoryContentDecodesBase64(t *testing.T) {
	raw := "API_KEY=super-secret-value\n"
	encoded := base64.StdEncoding.EncodeToString([]byte(raw))
	refs := make(chan string, 1)
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/octocat/widget/contents/config/app.env", func(w http.ResponseWriter, r *http.Request) {
		refs <- r.URL.Query().Get("ref")
		fmt.Fprintf(w, `{"type":"file","encoding":"base64","name":"app.env","path":"config/app.env","sha":"abc123","size":%d,"content":"%s"}`,
			len(raw), encoded)
	})
	c := newTestClient(t, mux, Options{})

	file, err := c.GetRepositoryContent(context.Background(), "octocat", "widget", "config/app.env", "main")
	require.NoError(t, err)

	assert.Equal(t, "main", <-refs)
	assert.Equal(t, "config/app.env", file.Path)
	assert.Equal(t, "app.env", file.Name)
	assert.Equal(t, "abc123", file.SHA)
	assert.Equal(t, len(raw), file.Size)
	assert.Equal(t, raw, file.Content)
}

func TestGetRepositoryContentDirectoryIsNotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/octocat/widget/contents/config", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"type":"file","name":"app.env","path":"config/app.env"}]`)
	})
	c := newTestClient(t, mux, Options{})

	_, err := c.GetRepositoryContent(context.Background(), "octocat", "widget", "config", "")

	var notFound *ContentNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "octocat", notFound.Owner)
	assert.Equal(t, "widget", notFound.Repo)
	assert.Equal(t, "config", notFound.Path)
}

func TestGetRepositoryContentMissingIsNotFound(t *testing.T) {
	var hits int32
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/octocat/widget/contents/nope.txt", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"message":"Not Found"}`)
	})
	c := newTestClient(t, mux, Options{})

	_, err := c.GetRepositoryContent(context.Background(), "octocat", "widget", "nope.txt", "")

	var notFound *ContentNotFoundError
	require.ErrorAs(t, err, &notFound)
	// Initial attempt plus one retry before the 404 goes terminal.
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

func TestGetRepositoryTreeKeepsOnlyBlobs(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/octocat/widget/git/trees/HEAD", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1", r.URL.Query().Get("recursive"))
		fmt.Fprint(w, `{"sha":"t1","truncated":false,"tree":[
			{"path":"main.go","type":"blob","size":120},
			{"path":"internal","type":"tree"},
			{"path":"config/app.env","type":"blob","size":64}
		]}`)
	})
	c := newTestClient(t, mux, Options{})

	entries, err := c.GetRepositoryTree(context.Background(), "octocat", "widget", "")
	require.NoError(t, err)

	require.Len(t, entries, 2)
	assert.Equal(t, "main.go", entries[0].Path)
	assert.Equal(t, 120, entries[0].Size)
	assert.Equal(t, "config/app.env", entries[1].Path)
	assert.Equal(t, 64, entries[1].Size)
}
