package scan

import "time"

// VulnType is the secret category a detector reports.
type VulnType string

const (
	TypeEnvVar     VulnType = "env_var"
	TypeAPIKey     VulnType = "api_key"
	TypeAWSKey     VulnType = "aws_key"
	TypePrivateKey VulnType = "private_key"
)

// Severity ranks a finding.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Vulnerability is one finding in one file. The matched text itself is
// deliberately not carried so reports never leak the secret.
type Vulnerability struct {
	Type        VulnType `json:"type"`
	Severity    Severity `json:"severity"`
	File        string   `json:"file"`
	Line        int      `json:"line"`
	Description string   `json:"description"`
	Suggestion  string   `json:"suggestion"`
}

// File is fetched text content ready for scanning.
type File struct {
	Path    string
	Content string
}

// Entry is a repository tree entry considered for scanning.
type Entry struct {
	Path string
	Size int
}

// Config bounds a scan. Include and Exclude are glob patterns
// (`**`, `*`, `?`); an entry must match an include and no exclude.
type Config struct {
	Include     []string
	Exclude     []string
	MaxFileSize int
	MaxFiles    int
}

// Report is the aggregate result for one repository scan.
type Report struct {
	FilesScanned    int              `json:"files_scanned"`
	Vulnerabilities []Vulnerability  `json:"vulnerabilities"`
	BySeverity      map[Severity]int `json:"by_severity"`
	RiskScore       int              `json:"risk_score"`
	ScannedAt       time.Time        `json:"scanned_at"`
}

const (
	// DefaultMaxFiles bounds how many files one scan may fetch.
	DefaultMaxFiles = 500
	// DefaultMaxFileSize in bytes; larger files are skipped.
	DefaultMaxFileSize = 100 * 1024
)
