package scan

import (
	"strings"
	"time"
)

// Execute runs every detector over every line of every file. Output
// order is deterministic: file order, then line order, then detector
// table order. Detector families are independent, so one line can
// yield several findings.
func Execute(files []File) []Vulnerability {
	var vulns []Vulnerability
	for _, f := range files {
		lines := strings.Split(f.Content, "\n")
		for i, line := range lines {
			for _, d := range detectors {
				match := d.re.FindString(line)
				if match == "" {
					continue
				}
				if d.validate != nil && !d.validate(line, match) {
					continue
				}
				vulns = append(vulns, Vulnerability{
					Type:        d.vtype,
					Severity:    d.severity,
					File:        f.Path,
					Line:        i + 1,
					Description: d.description,
					Suggestion:  d.suggestion,
				})
			}
		}
	}
	return vulns
}

// Summarize assembles the report for one scan.
func Summarize(filesScanned int, vulns []Vulnerability, at time.Time) Report {
	bySeverity := make(map[Severity]int)
	for _, v := range vulns {
		bySeverity[v.Severity]++
	}
	return Report{
		FilesScanned:    filesScanned,
		Vulnerabilities: vulns,
		BySeverity:      bySeverity,
		RiskScore:       RiskScore(vulns),
		ScannedAt:       at,
	}
}
