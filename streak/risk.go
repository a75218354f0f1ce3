package streak

import "time"

// DefaultRiskConfig returns the production tier thresholds.
func DefaultRiskConfig() RiskConfig {
	return RiskConfig{
		SafeUnder:    8 * time.Hour,
		WarningUnder: 16 * time.Hour,
		DangerUnder:  20 * time.Hour,
		WeekendGrace: 2 * time.Hour,
	}
}

var recommendations = map[RiskLevel][]string{
	RiskSafe: {
		"No action needed, the streak is in good shape.",
	},
	RiskWarning: {
		"Push a commit or open a pull request in the next few hours.",
		"Small contributions count: a doc fix or a review keeps the streak alive.",
	},
	RiskDanger: {
		"The streak breaks soon. Land any pending work today.",
		"Even a one-line commit to a side project preserves the streak.",
	},
	RiskCritical: {
		"The streak is about to break or already has. Contribute now to save or restart it.",
		"Set a daily reminder so future saves are not last minute.",
	},
}

// Assess classifies streak risk into tiers for notification purposes.
// Elapsed time since the last contributing day is compared against the
// configured bounds; when now falls on a weekend every bound is
// extended by the grace period. A user with no contribution history is
// immediately critical.
func Assess(last *time.Time, now time.Time, cfg RiskConfig) Assessment {
	if last == nil {
		return Assessment{
			Level:           RiskCritical,
			Severity:        severityOf(RiskCritical),
			Recommendations: recommendations[RiskCritical],
		}
	}

	elapsed := now.Sub(*last)
	var grace time.Duration
	if wd := now.Weekday(); wd == time.Saturday || wd == time.Sunday {
		grace = cfg.WeekendGrace
	}

	var level RiskLevel
	switch {
	case elapsed < cfg.SafeUnder+grace:
		level = RiskSafe
	case elapsed < cfg.WarningUnder+grace:
		level = RiskWarning
	case elapsed < cfg.DangerUnder+grace:
		level = RiskDanger
	default:
		level = RiskCritical
	}

	return Assessment{
		Level:           level,
		Severity:        severityOf(level),
		HoursSinceLast:  elapsed.Hours(),
		Recommendations: recommendations[level],
	}
}

func severityOf(level RiskLevel) int {
	switch level {
	case RiskSafe:
		return 1
	case RiskWarning:
		return 2
	case RiskDanger:
		return 3
	default:
		return 4
	}
}

// Cooldown returns the minimum time between repeated notifications for
// a risk level. Higher severity notifies more often; safe never
// notifies at all.
func Cooldown(level RiskLevel) time.Duration {
	switch level {
	case RiskWarning:
		return 8 * time.Hour
	case RiskDanger:
		return 4 * time.Hour
	case RiskCritical:
		return time.Hour
	default:
		return 0
	}
}
