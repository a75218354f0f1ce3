package streak

import "time"

// ContributionDay is one calendar date's activity count for a user.
// Date is normalized to midnight UTC; missing days mean zero.
type ContributionDay struct {
	Date  time.Time `json:"date"`
	Count int       `json:"count"`
}

// Stats is the fully recomputed streak view over a contribution
// sequence. Optional dates are nil when the sequence has no
// contributing days.
type Stats struct {
	CurrentStreak          int        `json:"current_streak"`
	LongestStreak          int        `json:"longest_streak"`
	IsAtRisk               bool       `json:"is_at_risk"`
	LastContributionDate   *time.Time `json:"last_contribution_date,omitempty"`
	StreakStartDate        *time.Time `json:"streak_start_date,omitempty"`
	LongestStreakStartDate *time.Time `json:"longest_streak_start_date,omitempty"`
	LongestStreakEndDate   *time.Time `json:"longest_streak_end_date,omitempty"`
}

// RiskLevel tiers how close a streak is to breaking.
type RiskLevel string

const (
	RiskSafe     RiskLevel = "safe"
	RiskWarning  RiskLevel = "warning"
	RiskDanger   RiskLevel = "danger"
	RiskCritical RiskLevel = "critical"
)

// RiskConfig carries the tier thresholds. Elapsed time since the last
// contribution is compared against the Under bounds in order; on
// weekends every bound is extended by WeekendGrace.
type RiskConfig struct {
	SafeUnder    time.Duration
	WarningUnder time.Duration
	DangerUnder  time.Duration
	WeekendGrace time.Duration
}

// Assessment is the notification-oriented risk view of a streak.
type Assessment struct {
	Level           RiskLevel `json:"level"`
	Severity        int       `json:"severity"`
	HoursSinceLast  float64   `json:"hours_since_last"`
	Recommendations []string  `json:"recommendations"`
}
