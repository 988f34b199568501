package synth

import (
	"regexp"
	"strings"
)

// Sanitization normalizes raw completion text into a bare artifact body:
// fenced-code extraction, removal of package/import declarations (the test
// harness injects the canonical imports), and rewriting of the namespace
// spellings models tend to invent for the injected capabilities. Pure,
// deterministic, and idempotent; it never executes anything.

var (
	fenceRE        = regexp.MustCompile("(?is)```(?:golang|go)?[ \t]*\n?(.*?)```")
	tabularRE      = regexp.MustCompile(`\btabular\.`)
	openCallRE     = regexp.MustCompile(`\b(?:pdf|doc|document)\.Open\(`)
	singleImportRE = regexp.MustCompile(`^import\s+(?:[A-Za-z_.][\w.]*\s+)?"[^"]*"$`)
)

// Sanitize converts raw generated text into compilable artifact source.
func Sanitize(raw string) string {
	code := extractFenced(strings.TrimSpace(raw))
	code = stripDeclarations(code)
	code = tabularRE.ReplaceAllString(code, "table.")
	code = openCallRE.ReplaceAllString(code, "extract.Open(")
	return strings.TrimSpace(code)
}

// extractFenced pulls the body out of the first fenced code block, dropping
// a leading language-tag or shell-prompt line and surrounding blank lines.
// Without a fence, stray fence/quote characters are trimmed from the ends.
func extractFenced(raw string) string {
	m := fenceRE.FindStringSubmatch(raw)
	if m == nil {
		return strings.Trim(raw, "` \n\r\t")
	}
	lines := strings.Split(m[1], "\n")
	if len(lines) > 0 {
		first := strings.ToLower(strings.TrimSpace(lines[0]))
		if first == "go" || first == "golang" ||
			strings.HasPrefix(first, "$") || strings.HasPrefix(first, "!") || strings.HasPrefix(first, "%") {
			lines = lines[1:]
		}
	}
	for len(lines) > 0 && strings.TrimSpace(lines[0]) == "" {
		lines = lines[1:]
	}
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// stripDeclarations drops package clauses and import declarations so the
// harness's canonical import block is the only one in the executed unit.
func stripDeclarations(code string) string {
	var kept []string
	inImportBlock := false
	for _, line := range strings.Split(code, "\n") {
		trimmed := strings.TrimSpace(line)
		if inImportBlock {
			if strings.HasPrefix(trimmed, ")") {
				inImportBlock = false
			}
			continue
		}
		if strings.HasPrefix(trimmed, "package ") {
			continue
		}
		if strings.HasPrefix(trimmed, "import (") {
			inImportBlock = true
			continue
		}
		if singleImportRE.MatchString(trimmed) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}
