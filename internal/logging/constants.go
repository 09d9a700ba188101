package logging

// Field names used across the ledger's log output.
const (
	FieldFile       = "file_path"
	FieldProvider   = "provider"
	FieldFormat     = "format"
	FieldPurchaseID = "purchase_id"
	FieldItemID     = "provider_item_id"
	FieldRow        = "row"
	FieldCategory   = "category"
	FieldReason     = "reason"
	FieldOperation  = "operation"
	FieldStatus     = "status"
	FieldError      = "error"
	FieldDuration   = "duration_ms"
	FieldCount      = "count"
	FieldCurrency   = "currency"
	FieldDelimiter  = "delimiter"
	FieldInputFile  = "input_file"
	FieldOutputFile = "output_file"
	FieldAdded      = "added"
	FieldUpdated    = "updated"
	FieldEnriched   = "enriched"
	FieldSkipped    = "skipped"
	FieldProcessed  = "processed"
	FieldTotal      = "total"
)
