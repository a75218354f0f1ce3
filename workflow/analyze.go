package workflow

import "sort"

// Analyze classifies every failed run in the window and computes the
// aggregate view. Recurrence is a property of the window as a whole,
// so the full set is grouped at once rather than counted incrementally;
// analyzing the same window twice yields identical records.
//
// jobs maps run ID to that run's jobs; runs without an entry are
// classified from run-level information only.
func Analyze(runs []Run, jobs map[int64][]Job, windowDays int) Analysis {
	a := Analysis{
		WindowDays: windowDays,
		ByType:     make(map[string]int),
		ByWorkflow: make(map[string]int),
		ByBranch:   make(map[string]int),
	}

	failures := make([]BuildFailure, 0, len(runs))
	normalized := make([]string, 0, len(runs))
	occurrences := make(map[string]int)

	for _, run := range runs {
		if run.Status != "completed" || run.Conclusion != "failure" {
			continue
		}
		reason := FailureReason(run, jobs[run.ID])
		p := Classify(reason)
		failures = append(failures, BuildFailure{
			RunID:         run.ID,
			WorkflowName:  run.Name,
			Branch:        run.Branch,
			Actor:         run.Actor,
			FailureType:   p.Type,
			Category:      p.Category,
			FailureReason: reason,
			Description:   p.Description,
			Severity:      p.Severity,
			SuggestedFix:  p.SuggestedFix,
			OccurredAt:    run.CreatedAt,
			HTMLURL:       run.HTMLURL,
		})
		key := NormalizeReason(reason)
		normalized = append(normalized, key)
		occurrences[key]++
	}

	for i := range failures {
		if n := occurrences[normalized[i]]; n >= 2 {
			failures[i].IsRecurring = true
			failures[i].SimilarFailures = n - 1
		}
	}

	for _, f := range failures {
		a.ByType[f.FailureType]++
		a.ByWorkflow[f.WorkflowName]++
		a.ByBranch[f.Branch]++
	}
	a.MostProblematicWorkflow = mostFrequent(failures, func(f BuildFailure) string { return f.WorkflowName })
	a.MostProblematicBranch = mostFrequent(failures, func(f BuildFailure) string { return f.Branch })

	buckets := make(map[string]int)
	for _, f := range failures {
		buckets[f.OccurredAt.UTC().Format("2006-01-02")]++
	}
	dates := make([]string, 0, len(buckets))
	for d := range buckets {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	for _, d := range dates {
		a.Trend = append(a.Trend, TrendPoint{Date: d, Count: buckets[d]})
	}

	a.TotalFailures = len(failures)
	a.Failures = failures
	return a
}

// mostFrequent returns the key with the highest count; ties go to the
// key encountered first in iteration order.
func mostFrequent(failures []BuildFailure, key func(BuildFailure) string) string {
	counts := make(map[string]int)
	var order []string
	for _, f := range failures {
		k := key(f)
		if k == "" {
			continue
		}
		if counts[k] == 0 {
			order = append(order, k)
		}
		counts[k]++
	}

	var best string
	bestN := 0
	for _, k := range order {
		if counts[k] > bestN {
			best, bestN = k, counts[k]
		}
	}
	return best
}
