package synth

// FallbackArtifact is the deterministic parser installed when synthesis is
// exhausted. It extracts rows only from tables the document capability
// recognized, skips each table's header row, pads short rows to the column
// count, coerces dates day-first and amounts permissively, and drops rows
// with unparseable dates. Valid by construction and never fed feedback.
const FallbackArtifact = `func Parse(docPath string) (*table.Table, error) {
	doc, err := extract.Open(docPath)
	if err != nil {
		return nil, err
	}
	t := table.New("Date", "Description", "Debit Amt", "Credit Amt", "Balance")
	for _, page := range doc.Pages {
		for _, rows := range page.Tables {
			if len(rows) == 0 {
				continue
			}
			for _, row := range rows[1:] {
				if len(row) == 0 {
					continue
				}
				padded := make([]string, 5)
				copy(padded, row)
				t.AppendRow(padded...)
			}
		}
	}
	t.CoerceDate("Date", true)
	t.CoerceNumber("Debit Amt", "Credit Amt", "Balance")
	t.DropMissing("Date")
	return t, nil
}
`
