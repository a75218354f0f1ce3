package scan

import "math"

var severityWeights = map[Severity]float64{
	SeverityLow:      1,
	SeverityMedium:   3,
	SeverityHigh:     7,
	SeverityCritical: 15,
}

var typeMultipliers = map[VulnType]float64{
	TypeEnvVar:     1.0,
	TypeAPIKey:     1.2,
	TypeAWSKey:     1.5,
	TypePrivateKey: 2.0,
}

// RiskScore aggregates findings into a 0-100 score. Each finding
// contributes its severity weight times its type multiplier. Every
// finding beyond the first at a given severity adds a flat penalty
// (+10 critical, +5 high, +2 medium). The sum is rounded and clamped
// to [0, 100].
func RiskScore(vulns []Vulnerability) int {
	var score float64
	counts := make(map[Severity]int)
	for _, v := range vulns {
		score += severityWeights[v.Severity] * typeMultipliers[v.Type]
		counts[v.Severity]++
	}
	score += repeatPenalty(counts[SeverityCritical], 10)
	score += repeatPenalty(counts[SeverityHigh], 5)
	score += repeatPenalty(counts[SeverityMedium], 2)

	n := int(math.Round(score))
	if n > 100 {
		n = 100
	}
	if n < 0 {
		n = 0
	}
	return n
}

func repeatPenalty(count int, per float64) float64 {
	if count <= 1 {
		return 0
	}
	return float64(count-1) * per
}
