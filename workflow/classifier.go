// Package workflow classifies failed CI runs against a static failure
// taxonomy and computes window-scoped aggregates: recurrence, per-type
// and per-workflow counts, and a daily failure trend.
package workflow

import (
	"fmt"
	"regexp"
	"strings"
)

// FailureReason derives the human-readable reason for a failed run
// from its jobs: the first failed step of the first failed job, the
// first failed job when no step carries the failure, or the run itself
// when no job-level detail exists.
func FailureReason(run Run, jobs []Job) string {
	for _, job := range jobs {
		if job.Conclusion != "failure" {
			continue
		}
		for _, step := range job.Steps {
			if step.Conclusion == "failure" {
				return fmt.Sprintf("Step %q failed in job %q", step.Name, job.Name)
			}
		}
		return fmt.Sprintf("Job %q failed", job.Name)
	}
	return fmt.Sprintf("Workflow %q failed", run.Name)
}

// Classify matches reason against the ordered pattern table,
// case-insensitively, first match wins. Unmatched reasons fall back to
// the unknown pattern with medium severity.
func Classify(reason string) FailurePattern {
	lower := strings.ToLower(reason)
	for _, p := range FailurePatterns {
		if strings.Contains(lower, p.MatchText) {
			return p
		}
	}
	return unknownPattern
}

var (
	digitRuns = regexp.MustCompile(`\d+`)
	spaceRuns = regexp.MustCompile(`\s+`)
)

// NormalizeReason folds a failure reason into its recurrence grouping
// key: lowercased, digit runs collapsed to #, quotes stripped and
// whitespace runs collapsed, so "error 123" and "error 456" group
// together.
func NormalizeReason(reason string) string {
	s := strings.ToLower(reason)
	s = digitRuns.ReplaceAllString(s, "#")
	s = strings.NewReplacer(`"`, "", "'", "", "`", "").Replace(s)
	s = spaceRuns.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
