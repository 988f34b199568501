package synth

import (
	"fmt"
	"strings"
)

// SystemPrompt anchors the completion service's role for every attempt.
const SystemPrompt = "You are an expert Go developer."

// PromptInput carries everything one synthesis request needs. Feedback is
// empty on the first attempt and holds the previous attempt's failure text
// afterwards; it is the only state that crosses attempts.
type PromptInput struct {
	DocumentExcerpt  string
	ReferenceExcerpt string
	Feedback         string
}

// workedExample anchors the expected output shape. It follows the same
// contract the fallback artifact uses: no package clause, no imports, the
// injected table and extract capabilities, regex-based row splitting.
const workedExample = `func Parse(docPath string) (*table.Table, error) {
	doc, err := extract.Open(docPath)
	if err != nil {
		return nil, err
	}
	var lines []string
	for _, page := range doc.Pages {
		for _, line := range strings.Split(page.Text, "\n") {
			if s := strings.TrimSpace(line); s != "" {
				lines = append(lines, s)
			}
		}
	}
	rowRE := regexp.MustCompile("^(\\d{2}-\\d{2}-\\d{4})\\s+(.*?)\\s+(\\d*[.,]?\\d*)\\s+(\\d*[.,]?\\d*)\\s+(\\d*[.,]?\\d*)$")
	t := table.New("Date", "Description", "Debit Amt", "Credit Amt", "Balance")
	for _, line := range lines {
		if strings.Contains(line, "Date") && strings.Contains(line, "Description") {
			continue
		}
		if m := rowRE.FindStringSubmatch(line); m != nil {
			t.AppendRow(m[1], m[2], m[3], m[4], m[5])
		}
	}
	t.CoerceDate("Date", true)
	t.CoerceNumber("Debit Amt", "Credit Amt", "Balance")
	t.DropMissing("Date")
	return t, nil
}`

// BuildPrompt assembles the synthesis request. Pure function; malformed
// inputs are the caller's problem.
func BuildPrompt(in PromptInput) string {
	var sb strings.Builder
	sb.WriteString(`Write a single valid Go function with the exact signature
Parse(docPath string) (*table.Table, error) that:
- Parses bank statement tables or text using the extract capability (extract.Open).
- Returns a table with columns Date, Description, Debit Amt, Credit Amt, Balance.
- Cleans and safely converts the numeric columns with t.CoerceNumber.
- Parses the Date column day-first with t.CoerceDate("Date", true).
- Skips repeated header lines and empty lines.
- Handles rows with missing columns gracefully by appending empty strings.
- Drops rows whose Date cannot be parsed (t.DropMissing("Date")).
- Uses regexp to split lines with multi-word descriptions correctly.
- Refers to the tabular capability as 'table' and the document capability as 'extract'.
- Does NOT include a package clause, import statements, comments, explanations, or markdown.
- Does NOT start the output with a 'go' language tag or any command lines.
The execution environment preloads fmt, regexp, strconv, strings, time, extract, and table.

Example safe parsing logic you must follow (do NOT add imports or comments):

`)
	sb.WriteString(workedExample)
	fmt.Fprintf(&sb, `

Given this sample bank statement text:
%s

Given expected CSV sample:
%s

Previous feedback:
%s

Return only the complete function code (no extra text).
`, in.DocumentExcerpt, in.ReferenceExcerpt, in.Feedback)
	return sb.String()
}
