package github

import (
	"time"

	"github.com/devpulsehq/insights-engine/streak"
)

// Profile is a user's public profile as served by the GraphQL API.
type Profile struct {
	Login       string    `json:"login"`
	Name        string    `json:"name,omitempty"`
	Bio         string    `json:"bio,omitempty"`
	Company     string    `json:"company,omitempty"`
	Location    string    `json:"location,omitempty"`
	WebsiteURL  string    `json:"website_url,omitempty"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	Followers   int       `json:"followers"`
	Following   int       `json:"following"`
	PublicRepos int       `json:"public_repos"`
	CreatedAt   time.Time `json:"created_at"`
}

// Repository is the listing shape returned by GetRepositories.
type Repository struct {
	Name          string    `json:"name"`
	FullName      string    `json:"full_name"`
	Description   string    `json:"description,omitempty"`
	Language      string    `json:"language,omitempty"`
	DefaultBranch string    `json:"default_branch,omitempty"`
	HTMLURL       string    `json:"html_url"`
	Stars         int       `json:"stars"`
	Forks         int       `json:"forks"`
	Private       bool      `json:"private"`
	Fork          bool      `json:"fork"`
	Archived      bool      `json:"archived"`
	Topics        []string  `json:"topics,omitempty"`
	PushedAt      time.Time `json:"pushed_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// RepositoryDetails is the richer single-repository shape fetched over
// GraphQL.
type RepositoryDetails struct {
	Name             string    `json:"name"`
	Description      string    `json:"description,omitempty"`
	PrimaryLanguage  string    `json:"primary_language,omitempty"`
	License          string    `json:"license,omitempty"`
	DefaultBranch    string    `json:"default_branch,omitempty"`
	Stars            int       `json:"stars"`
	Forks            int       `json:"forks"`
	Watchers         int       `json:"watchers"`
	OpenIssues       int       `json:"open_issues"`
	OpenPullRequests int       `json:"open_pull_requests"`
	DiskUsageKB      int       `json:"disk_usage_kb"`
	Private          bool      `json:"private"`
	Archived         bool      `json:"archived"`
	Fork             bool      `json:"fork"`
	Topics           []string  `json:"topics,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
	PushedAt         time.Time `json:"pushed_at"`
}

// Language is one entry of a repository's language breakdown. Share is
// the fraction of the repository's code bytes written in it.
type Language struct {
	Name  string  `json:"name"`
	Color string  `json:"color,omitempty"`
	Size  int     `json:"size"`
	Share float64 `json:"share"`
}

// FileContent is a repository file with its content already decoded.
type FileContent struct {
	Path    string `json:"path"`
	Name    string `json:"name"`
	SHA     string `json:"sha"`
	Size    int    `json:"size"`
	Content string `json:"content"`
}

// Contributions is one contribution calendar window: the reported
// total plus every day in ascending date order.
type Contributions struct {
	Total int                      `json:"total"`
	Days  []streak.ContributionDay `json:"days"`
}
