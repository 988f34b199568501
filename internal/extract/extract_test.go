package extract

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeDoc(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "statement.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestOpenSplitsPages(t *testing.T) {
	doc, err := Open(writeDoc(t, "page one\fpage two"))
	require.NoError(t, err)
	require.Len(t, doc.Pages, 2)
	assert.Equal(t, "page one", doc.Pages[0].Text)
	assert.Equal(t, "page two", doc.Pages[1].Text)
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope.txt"))
	assert.Error(t, err)
}

func TestDetectTables(t *testing.T) {
	content := `ICICI Bank Statement

Date  Description  Debit Amt  Credit Amt  Balance
01-08-2024  UPI Payment  120.50  0.00  6879.50
02-08-2024  Salary Credit  0.00  50000.00  56879.50

Closing remarks follow here.`

	doc, err := Open(writeDoc(t, content))
	require.NoError(t, err)
	require.Len(t, doc.Pages, 1)

	want := [][][]string{{
		{"Date", "Description", "Debit Amt", "Credit Amt", "Balance"},
		{"01-08-2024", "UPI Payment", "120.50", "0.00", "6879.50"},
		{"02-08-2024", "Salary Credit", "0.00", "50000.00", "56879.50"},
	}}
	if diff := cmp.Diff(want, doc.Pages[0].Tables); diff != "" {
		t.Errorf("detected tables mismatch (-want +got):\n%s", diff)
	}
}

func TestDetectTablesIgnoresSingleRows(t *testing.T) {
	// one multi-column line on its own is not a table
	doc, err := Open(writeDoc(t, "just  one  line"))
	require.NoError(t, err)
	assert.Empty(t, doc.Pages[0].Tables)
}

func TestDocumentText(t *testing.T) {
	doc, err := Open(writeDoc(t, "alpha\fbeta"))
	require.NoError(t, err)
	assert.Equal(t, "alpha\nbeta", doc.Text())
}
