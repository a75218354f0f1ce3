// Package streak computes contribution streak statistics and streak
// risk from a contribution-day series. Everything here is a pure
// function of its inputs; the series is the single source of truth and
// nothing is cached between calls.
package streak

import (
	"sort"
	"time"
)

// DefaultRiskThreshold is the elapsed time after which a streak counts
// as at risk in the plain boolean model.
const DefaultRiskThreshold = 20 * time.Hour

// Calculate recomputes streak statistics for a contribution series as
// of now. riskAfter <= 0 falls back to DefaultRiskThreshold. Duplicate
// dates are summed; days missing from the series count as zero.
func Calculate(days []ContributionDay, now time.Time, riskAfter time.Duration) Stats {
	if riskAfter <= 0 {
		riskAfter = DefaultRiskThreshold
	}

	counts := make(map[time.Time]int, len(days))
	dates := make([]time.Time, 0, len(days))
	for _, d := range days {
		day := dateOf(d.Date)
		if _, seen := counts[day]; !seen {
			dates = append(dates, day)
		}
		counts[day] += d.Count
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	var stats Stats

	for i := len(dates) - 1; i >= 0; i-- {
		if counts[dates[i]] > 0 {
			last := dates[i]
			stats.LastContributionDate = &last
			break
		}
	}

	// Walk back from today; a zero-contribution today defers to
	// yesterday so the streak only breaks once a full day has elapsed.
	cursor := dateOf(now)
	if counts[cursor] <= 0 {
		cursor = cursor.AddDate(0, 0, -1)
	}
	for counts[cursor] > 0 {
		stats.CurrentStreak++
		cursor = cursor.AddDate(0, 0, -1)
	}
	if stats.CurrentStreak > 0 {
		start := cursor.AddDate(0, 0, 1)
		stats.StreakStartDate = &start
	}

	// Forward pass for the longest run. A run survives only across
	// dates exactly one calendar day apart; zero-count days reset it.
	var runLen int
	var runStart, prev time.Time
	for _, day := range dates {
		if counts[day] <= 0 {
			runLen = 0
			continue
		}
		if runLen > 0 && day.Sub(prev) == 24*time.Hour {
			runLen++
		} else {
			runLen = 1
			runStart = day
		}
		prev = day
		if runLen > stats.LongestStreak {
			stats.LongestStreak = runLen
			start, end := runStart, day
			stats.LongestStreakStartDate = &start
			stats.LongestStreakEndDate = &end
		}
	}

	stats.IsAtRisk = AtRisk(stats.LastContributionDate, now, riskAfter)
	return stats
}

// AtRisk reports whether a streak needs attention: no contribution
// history at all, or more than riskAfter elapsed since the last
// contributing day.
func AtRisk(last *time.Time, now time.Time, riskAfter time.Duration) bool {
	if last == nil {
		return true
	}
	return now.Sub(*last) > riskAfter
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
