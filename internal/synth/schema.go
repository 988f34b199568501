package synth

import "parsesmith/internal/table"

// StatementSchema is the fixed output contract every parser artifact must
// reproduce: ordered columns with declared cell kinds. Both the parsed and
// the reference table are normalized against it before comparison.
var StatementSchema = table.Schema{
	{Name: "Date", Kind: table.KindDate},
	{Name: "Description", Kind: table.KindText},
	{Name: "Debit Amt", Kind: table.KindNumber},
	{Name: "Credit Amt", Kind: table.KindNumber},
	{Name: "Balance", Kind: table.KindNumber},
}
