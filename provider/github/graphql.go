package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphqlEnvelope struct {
	Data   json.RawMessage    `json:"data"`
	Errors []GraphQLErrorItem `json:"errors"`
}

// graphql posts one query and decodes the data payload into out. A
// non-empty errors array fails the call even when partial data came
// back.
func (c *Client) graphql(ctx context.Context, query string, variables map[string]any, out any) error {
	body, err := json.Marshal(graphqlRequest{Query: query, Variables: variables})
	if err != nil {
		return fmt.Errorf("encode graphql request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.graphqlURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build graphql request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("graphql request: %w", err)
	}
	defer resp.Body.Close()

	var envelope graphqlEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decode graphql response: %w", err)
	}
	if len(envelope.Errors) > 0 {
		return &GraphQLError{Errors: envelope.Errors}
	}
	if out != nil && len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return fmt.Errorf("decode graphql data: %w", err)
		}
	}
	return nil
}

const profileQuery = `query($login: String!) {
  user(login: $login) {
    login
    name
    bio
    company
    location
    websiteUrl
    avatarUrl
    createdAt
    followers { totalCount }
    following { totalCount }
    repositories(privacy: PUBLIC, ownerAffiliations: OWNER) { totalCount }
  }
}`

// GetUserProfile fetches a user's public profile.
func (c *Client) GetUserProfile(ctx context.Context, username string) (Profile, error) {
	key := "github:profile:" + username
	if v, ok := c.cached(key); ok {
		if profile, ok := v.(Profile); ok {
			return profile, nil
		}
	}

	var payload struct {
		User *struct {
			Login      string    `json:"login"`
			Name       string    `json:"name"`
			Bio        string    `json:"bio"`
			Company    string    `json:"company"`
			Location   string    `json:"location"`
			WebsiteURL string    `json:"websiteUrl"`
			AvatarURL  string    `json:"avatarUrl"`
			CreatedAt  time.Time `json:"createdAt"`
			Followers  struct {
				TotalCount int `json:"totalCount"`
			} `json:"followers"`
			Following struct {
				TotalCount int `json:"totalCount"`
			} `json:"following"`
			Repositories struct {
				TotalCount int `json:"totalCount"`
			} `json:"repositories"`
		} `json:"user"`
	}
	if err := c.graphql(ctx, profileQuery, map[string]any{"login": username}, &payload); err != nil {
		return Profile{}, err
	}
	if payload.User == nil {
		return Profile{}, &NoDataError{Entity: "user", Subject: username}
	}

	u := payload.User
	profile := Profile{
		Login:       u.Login,
		Name:        u.Name,
		Bio:         u.Bio,
		Company:     u.Company,
		Location:    u.Location,
		WebsiteURL:  u.WebsiteURL,
		AvatarURL:   u.AvatarURL,
		Followers:   u.Followers.TotalCount,
		Following:   u.Following.TotalCount,
		PublicRepos: u.Repositories.TotalCount,
		CreatedAt:   u.CreatedAt,
	}
	c.store(key, profile)
	return profile, nil
}

const languagesQuery = `query($owner: String!, $name: String!) {
  repository(owner: $owner, name: $name) {
    languages(first: 20, orderBy: {field: SIZE, direction: DESC}) {
      totalSize
      edges {
        size
        node { name color }
      }
    }
  }
}`

// GetRepositoryLanguages fetches a repository's language breakdown,
// largest first.
func (c *Client) GetRepositoryLanguages(ctx context.Context, owner, repo string) ([]Language, error) {
	key := fmt.Sprintf("github:languages:%s/%s", owner, repo)
	if v, ok := c.cached(key); ok {
		if langs, ok := v.([]Language); ok {
			return langs, nil
		}
	}

	var payload struct {
		Repository *struct {
			Languages struct {
				TotalSize int `json:"totalSize"`
				Edges     []struct {
					Size int `json:"size"`
					Node struct {
						Name  string `json:"name"`
						Color string `json:"color"`
					} `json:"node"`
				} `json:"edges"`
			} `json:"languages"`
		} `json:"repository"`
	}
	vars := map[string]any{"owner": owner, "name": repo}
	if err := c.graphql(ctx, languagesQuery, vars, &payload); err != nil {
		return nil, err
	}
	if payload.Repository == nil {
		return nil, &NoDataError{Entity: "repository", Subject: owner + "/" + repo}
	}

	total := payload.Repository.Languages.TotalSize
	langs := make([]Language, 0, len(payload.Repository.Languages.Edges))
	for _, edge := range payload.Repository.Languages.Edges {
		share := 0.0
		if total > 0 {
			share = float64(edge.Size) / float64(total)
		}
		langs = append(langs, Language{
			Name:  edge.Node.Name,
			Color: edge.Node.Color,
			Size:  edge.Size,
			Share: share,
		})
	}
	c.store(key, langs)
	return langs, nil
}

const repositoryDetailsQuery = `query($owner: String!, $name: String!) {
  repository(owner: $owner, name: $name) {
    name
    description
    stargazerCount
    forkCount
    diskUsage
    isPrivate
    isArchived
    isFork
    createdAt
    updatedAt
    pushedAt
    primaryLanguage { name }
    licenseInfo { name }
    defaultBranchRef { name }
    repositoryTopics(first: 10) { nodes { topic { name } } }
    issues(states: OPEN) { totalCount }
    pullRequests(states: OPEN) { totalCount }
    watchers { totalCount }
  }
}`

// GetRepositoryDetails fetches one repository's extended metadata.
func (c *Client) GetRepositoryDetails(ctx context.Context, owner, repo string) (RepositoryDetails, error) {
	key := fmt.Sprintf("github:details:%s/%s", owner, repo)
	if v, ok := c.cached(key); ok {
		if details, ok := v.(RepositoryDetails); ok {
			return details, nil
		}
	}

	var payload struct {
		Repository *struct {
			Name            string    `json:"name"`
			Description     string    `json:"description"`
			StargazerCount  int       `json:"stargazerCount"`
			ForkCount       int       `json:"forkCount"`
			DiskUsage       int       `json:"diskUsage"`
			IsPrivate       bool      `json:"isPrivate"`
			IsArchived      bool      `json:"isArchived"`
			IsFork          bool      `json:"isFork"`
			CreatedAt       time.Time `json:"createdAt"`
			UpdatedAt       time.Time `json:"updatedAt"`
			PushedAt        time.Time `json:"pushedAt"`
			PrimaryLanguage struct {
				Name string `json:"name"`
			} `json:"primaryLanguage"`
			LicenseInfo struct {
				Name string `json:"name"`
			} `json:"licenseInfo"`
			DefaultBranchRef struct {
				Name string `json:"name"`
			} `json:"defaultBranchRef"`
			RepositoryTopics struct {
				Nodes []struct {
					Topic struct {
						Name string `json:"name"`
					} `json:"topic"`
				} `json:"nodes"`
			} `json:"repositoryTopics"`
			Issues struct {
				TotalCount int `json:"totalCount"`
			} `json:"issues"`
			PullRequests struct {
				TotalCount int `json:"totalCount"`
			} `json:"pullRequests"`
			Watchers struct {
				TotalCount int `json:"totalCount"`
			} `json:"watchers"`
		} `json:"repository"`
	}
	vars := map[string]any{"owner": owner, "name": repo}
	if err := c.graphql(ctx, repositoryDetailsQuery, vars, &payload); err != nil {
		return RepositoryDetails{}, err
	}
	if payload.Repository == nil {
		return RepositoryDetails{}, &NoDataError{Entity: "repository", Subject: owner + "/" + repo}
	}

	r := payload.Repository
	topics := make([]string, 0, len(r.RepositoryTopics.Nodes))
	for _, node := range r.RepositoryTopics.Nodes {
		topics = append(topics, node.Topic.Name)
	}
	details := RepositoryDetails{
		Name:             r.Name,
		Description:      r.Description,
		PrimaryLanguage:  r.PrimaryLanguage.Name,
		License:          r.LicenseInfo.Name,
		DefaultBranch:    r.DefaultBranchRef.Name,
		Stars:            r.StargazerCount,
		Forks:            r.ForkCount,
		Watchers:         r.Watchers.TotalCount,
		OpenIssues:       r.Issues.TotalCount,
		OpenPullRequests: r.PullRequests.TotalCount,
		DiskUsageKB:      r.DiskUsage,
		Private:          r.IsPrivate,
		Archived:         r.IsArchived,
		Fork:             r.IsFork,
		Topics:           topics,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
		PushedAt:         r.PushedAt,
	}
	c.store(key, details)
	return details, nil
}
