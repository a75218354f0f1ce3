package workflow

import "time"

// Run is one execution of a CI workflow, snapshotted from the
// provider. Runs are read-only inputs; the classifier never mutates
// them.
type Run struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Status     string    `json:"status"`
	Conclusion string    `json:"conclusion"`
	Branch     string    `json:"branch"`
	Actor      string    `json:"actor"`
	Event      string    `json:"event"`
	RunNumber  int       `json:"run_number"`
	HTMLURL    string    `json:"html_url"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Job is one job inside a run, with its ordered steps.
type Job struct {
	ID          int64     `json:"id"`
	RunID       int64     `json:"run_id"`
	Name        string    `json:"name"`
	Status      string    `json:"status"`
	Conclusion  string    `json:"conclusion"`
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
	Steps       []Step    `json:"steps"`
}

// Step is one step inside a job.
type Step struct {
	Name       string `json:"name"`
	Status     string `json:"status"`
	Conclusion string `json:"conclusion"`
	Number     int    `json:"number"`
}

// Category groups failure patterns by the part of the delivery
// process that broke.
type Category string

const (
	CategoryBuild          Category = "build"
	CategoryTest           Category = "test"
	CategoryDeployment     Category = "deployment"
	CategoryDependency     Category = "dependency"
	CategoryTimeout        Category = "timeout"
	CategoryInfrastructure Category = "infrastructure"
	CategoryUnknown        Category = "unknown"
)

// Severity ranks how urgently a failure class needs attention.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// FailurePattern is one static taxonomy entry. The pattern table is
// ordered and matched first-match-wins; entries are never mutated at
// runtime.
type FailurePattern struct {
	Type         string   `json:"type"`
	MatchText    string   `json:"match_text"`
	Description  string   `json:"description"`
	Severity     Severity `json:"severity"`
	Category     Category `json:"category"`
	SuggestedFix string   `json:"suggested_fix"`
}

// BuildFailure is one classified failed run. Recurrence fields are
// window-scoped: they are only meaningful relative to the exact set of
// runs analyzed together.
type BuildFailure struct {
	RunID           int64     `json:"run_id"`
	WorkflowName    string    `json:"workflow_name"`
	Branch          string    `json:"branch"`
	Actor           string    `json:"actor"`
	FailureType     string    `json:"failure_type"`
	Category        Category  `json:"category"`
	FailureReason   string    `json:"failure_reason"`
	Description     string    `json:"description"`
	Severity        Severity  `json:"severity"`
	IsRecurring     bool      `json:"is_recurring"`
	SimilarFailures int       `json:"similar_failures"`
	SuggestedFix    string    `json:"suggested_fix"`
	OccurredAt      time.Time `json:"occurred_at"`
	HTMLURL         string    `json:"html_url"`
}

// TrendPoint is one day's failure count inside the analyzed window.
type TrendPoint struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// Analysis is the aggregate view over one window of failed runs.
type Analysis struct {
	WindowDays              int            `json:"window_days"`
	TotalFailures           int            `json:"total_failures"`
	Failures                []BuildFailure `json:"failures"`
	ByType                  map[string]int `json:"by_type"`
	ByWorkflow              map[string]int `json:"by_workflow"`
	ByBranch                map[string]int `json:"by_branch"`
	Trend                   []TrendPoint   `json:"trend"`
	MostProblematicWorkflow string         `json:"most_problematic_workflow,omitempty"`
	MostProblematicBranch   string         `json:"most_problematic_branch,omitempty"`
}
