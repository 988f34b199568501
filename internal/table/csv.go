package table

import (
	"encoding/csv"
	"fmt"
	"os"
)

// ReadCSV loads a reference table from disk. The first record is the header;
// every value is kept as a text cell (blank values collapse to Missing), so
// callers normalize against a schema before comparing.
func ReadCSV(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open reference csv: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse reference csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("reference csv %s is empty", path)
	}

	t := New(records[0]...)
	for _, record := range records[1:] {
		t.AppendRow(record...)
	}
	return t, nil
}
