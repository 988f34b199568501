package history

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j
}

func TestJournalRecordsAttemptsInOrder(t *testing.T) {
	j := openTestJournal(t)
	require.NoError(t, j.StartRun("run-1", "llama-3.1-8b-instant"))
	require.NoError(t, j.RecordAttempt("run-1", 2, true, false, "row count mismatch"))
	require.NoError(t, j.RecordAttempt("run-1", 1, false, false, "syntax error"))
	require.NoError(t, j.RecordAttempt("run-1", 3, true, true, ""))
	require.NoError(t, j.FinishRun("run-1", "passed"))

	attempts, err := j.RunAttempts("run-1")
	require.NoError(t, err)
	require.Len(t, attempts, 3)
	assert.Equal(t, Attempt{Index: 1, Valid: false, Passed: false, Feedback: "syntax error"}, attempts[0])
	assert.Equal(t, Attempt{Index: 2, Valid: true, Passed: false, Feedback: "row count mismatch"}, attempts[1])
	assert.Equal(t, Attempt{Index: 3, Valid: true, Passed: true, Feedback: ""}, attempts[2])
}

func TestJournalRerecordedAttemptWins(t *testing.T) {
	j := openTestJournal(t)
	require.NoError(t, j.StartRun("run-1", "m"))
	require.NoError(t, j.RecordAttempt("run-1", 1, true, false, "first word"))
	require.NoError(t, j.RecordAttempt("run-1", 1, true, false, "last word"))

	attempts, err := j.RunAttempts("run-1")
	require.NoError(t, err)
	require.Len(t, attempts, 1)
	assert.Equal(t, "last word", attempts[0].Feedback)
}

func TestJournalKeepsRunsSeparate(t *testing.T) {
	j := openTestJournal(t)
	require.NoError(t, j.StartRun("run-a", "m"))
	require.NoError(t, j.StartRun("run-b", "m"))
	require.NoError(t, j.RecordAttempt("run-a", 1, true, true, ""))
	require.NoError(t, j.RecordAttempt("run-b", 1, false, false, "syntax error"))

	attempts, err := j.RunAttempts("run-a")
	require.NoError(t, err)
	require.Len(t, attempts, 1)
	assert.True(t, attempts[0].Valid)
}

func TestJournalDuplicateRunIDRejected(t *testing.T) {
	j := openTestJournal(t)
	require.NoError(t, j.StartRun("run-1", "m"))
	assert.Error(t, j.StartRun("run-1", "m"))
}

func TestJournalCreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "deep", "journal.db")
	j, err := Open(path)
	require.NoError(t, err)
	defer j.Close()
	require.NoError(t, j.StartRun("run-1", "m"))
}

func TestJournalUnknownRunHasNoAttempts(t *testing.T) {
	j := openTestJournal(t)
	attempts, err := j.RunAttempts("missing")
	require.NoError(t, err)
	assert.Empty(t, attempts)
}
