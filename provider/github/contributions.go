package github

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/devpulsehq/insights-engine/streak"
)

// defaultStreakWindowDays stays within the API's one-year limit on a
// single contributionsCollection range.
const defaultStreakWindowDays = 365

const contributionsQuery = `query($login: String!, $from: DateTime!, $to: DateTime!) {
  user(login: $login) {
    contributionsCollection(from: $from, to: $to) {
      contributionCalendar {
        totalContributions
        weeks { contributionDays { date contributionCount } }
      }
    }
  }
}`

type calendarPayload struct {
	TotalContributions int `json:"totalContributions"`
	Weeks              []struct {
		ContributionDays []struct {
			Date              string `json:"date"`
			ContributionCount int    `json:"contributionCount"`
		} `json:"contributionDays"`
	} `json:"weeks"`
}

func (p *calendarPayload) contributions() (Contributions, error) {
	days := make([]streak.ContributionDay, 0, len(p.Weeks)*7)
	for _, week := range p.Weeks {
		for _, day := range week.ContributionDays {
			date, err := time.Parse("2006-01-02", day.Date)
			if err != nil {
				return Contributions{}, fmt.Errorf("parse contribution date %q: %w", day.Date, err)
			}
			days = append(days, streak.ContributionDay{Date: date, Count: day.ContributionCount})
		}
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date.Before(days[j].Date) })
	return Contributions{Total: p.TotalContributions, Days: days}, nil
}

// GetContributions fetches the contribution calendar for one window.
// Days come back sorted by date regardless of how the API grouped
// them into weeks.
func (c *Client) GetContributions(ctx context.Context, username string, from, to time.Time) (Contributions, error) {
	key := fmt.Sprintf("github:contrib:%s:%s:%s",
		username, from.UTC().Format("2006-01-02"), to.UTC().Format("2006-01-02"))
	if v, ok := c.cached(key); ok {
		if contrib, ok := v.(Contributions); ok {
			return contrib, nil
		}
	}

	var payload struct {
		User *struct {
			ContributionsCollection *struct {
				ContributionCalendar *calendarPayload `json:"contributionCalendar"`
			} `json:"contributionsCollection"`
		} `json:"user"`
	}
	vars := map[string]any{
		"login": username,
		"from":  from.UTC().Format(time.RFC3339),
		"to":    to.UTC().Format(time.RFC3339),
	}
	if err := c.graphql(ctx, contributionsQuery, vars, &payload); err != nil {
		return Contributions{}, err
	}
	if payload.User == nil ||
		payload.User.ContributionsCollection == nil ||
		payload.User.ContributionsCollection.ContributionCalendar == nil {
		return Contributions{}, &NoDataError{Entity: "contribution calendar", Subject: username}
	}

	contrib, err := payload.User.ContributionsCollection.ContributionCalendar.contributions()
	if err != nil {
		return Contributions{}, err
	}
	c.store(key, contrib)
	return contrib, nil
}

// GetContributionsForStreak fetches the trailing window of daily
// contributions that streak calculation needs. days values outside
// (0, 365] fall back to the full year.
func (c *Client) GetContributionsForStreak(ctx context.Context, username string, days int) ([]streak.ContributionDay, error) {
	if days <= 0 || days > defaultStreakWindowDays {
		days = defaultStreakWindowDays
	}
	to := c.now().UTC()
	from := to.AddDate(0, 0, -days)
	contrib, err := c.GetContributions(ctx, username, from, to)
	if err != nil {
		return nil, err
	}
	return contrib.Days, nil
}

// GetOptimizedContributions fetches several years of contribution
// calendars in one aliased query instead of one request per year.
func (c *Client) GetOptimizedContributions(ctx context.Context, username string, years []int) (map[int]Contributions, error) {
	if len(years) == 0 {
		return map[int]Contributions{}, nil
	}

	labels := make([]string, 0, len(years))
	for _, year := range years {
		labels = append(labels, strconv.Itoa(year))
	}
	key := fmt.Sprintf("github:contrib:%s:years:%s", username, strings.Join(labels, ","))
	if v, ok := c.cached(key); ok {
		if byYear, ok := v.(map[int]Contributions); ok {
			return byYear, nil
		}
	}

	var q strings.Builder
	q.WriteString("query($login: String!) {\n  user(login: $login) {\n")
	for _, year := range years {
		fmt.Fprintf(&q, "    y%d: contributionsCollection(from: \"%d-01-01T00:00:00Z\", to: \"%d-12-31T23:59:59Z\") {\n", year, year, year)
		q.WriteString("      contributionCalendar {\n")
		q.WriteString("        totalContributions\n")
		q.WriteString("        weeks { contributionDays { date contributionCount } }\n")
		q.WriteString("      }\n    }\n")
	}
	q.WriteString("  }\n}")

	var payload struct {
		User map[string]json.RawMessage `json:"user"`
	}
	if err := c.graphql(ctx, q.String(), map[string]any{"login": username}, &payload); err != nil {
		return nil, err
	}
	if payload.User == nil {
		return nil, &NoDataError{Entity: "user", Subject: username}
	}

	byYear := make(map[int]Contributions, len(years))
	for _, year := range years {
		raw, ok := payload.User[fmt.Sprintf("y%d", year)]
		if !ok {
			return nil, &NoDataError{Entity: fmt.Sprintf("%d contribution calendar", year), Subject: username}
		}
		var coll struct {
			ContributionCalendar *calendarPayload `json:"contributionCalendar"`
		}
		if err := json.Unmarshal(raw, &coll); err != nil {
			return nil, fmt.Errorf("decode %d contributions: %w", year, err)
		}
		if coll.ContributionCalendar == nil {
			return nil, &NoDataError{Entity: fmt.Sprintf("%d contribution calendar", year), Subject: username}
		}
		contrib, err := coll.ContributionCalendar.contributions()
		if err != nil {
			return nil, err
		}
		byYear[year] = contrib
	}
	c.store(key, byYear)
	return byYear, nil
}
