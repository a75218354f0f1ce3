package scan

import (
	"fmt"
	"regexp"
	"strings"
)

// SelectFiles filters tree entries down to the set worth scanning.
// An entry must match at least one include pattern and no exclude
// pattern; exclude wins on conflict. Oversized entries are skipped
// and selection stops at the file cap, preserving input order.
func SelectFiles(entries []Entry, cfg Config) ([]Entry, error) {
	include := cfg.Include
	if len(include) == 0 {
		include = []string{"**"}
	}
	includes, err := compileGlobs(include)
	if err != nil {
		return nil, fmt.Errorf("include patterns: %w", err)
	}
	excludes, err := compileGlobs(cfg.Exclude)
	if err != nil {
		return nil, fmt.Errorf("exclude patterns: %w", err)
	}

	maxFiles := cfg.MaxFiles
	if maxFiles <= 0 {
		maxFiles = DefaultMaxFiles
	}
	maxSize := cfg.MaxFileSize
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}

	var out []Entry
	for _, e := range entries {
		if e.Size > maxSize {
			continue
		}
		if !matchAny(includes, e.Path) {
			continue
		}
		if matchAny(excludes, e.Path) {
			continue
		}
		out = append(out, e)
		if len(out) >= maxFiles {
			break
		}
	}
	return out, nil
}

func compileGlobs(patterns []string) ([]*regexp.Regexp, error) {
	res := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := translateGlob(p)
		if err != nil {
			return nil, fmt.Errorf("pattern %q: %w", p, err)
		}
		res = append(res, re)
	}
	return res, nil
}

func matchAny(res []*regexp.Regexp, path string) bool {
	for _, re := range res {
		if re.MatchString(path) {
			return true
		}
	}
	return false
}

// translateGlob compiles a glob into an anchored case-insensitive
// regexp. `**` spans path separators and `**/` also matches zero
// directories; `*` and `?` stop at separators. Everything else is
// literal.
func translateGlob(pattern string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString("(?i)^")
	for i := 0; i < len(pattern); {
		switch c := pattern[i]; c {
		case '*':
			if i+1 < len(pattern) && pattern[i+1] == '*' {
				if i+2 < len(pattern) && pattern[i+2] == '/' {
					b.WriteString(`(?:.*/)?`)
					i += 3
				} else {
					b.WriteString(`.*`)
					i += 2
				}
			} else {
				b.WriteString(`[^/]*`)
				i++
			}
		case '?':
			b.WriteString(`[^/]`)
			i++
		default:
			b.WriteString(regexp.QuoteMeta(string(c)))
			i++
		}
	}
	b.WriteString("$")
	return regexp.Compile(b.String())
}
