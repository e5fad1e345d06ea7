package log

// Common field names for structured logging
const (
	FieldComponent     = "component"
	FieldError         = "error"
	FieldOperation     = "operation"
	FieldDuration      = "duration_ms"
	FieldTransactionID = "transaction_id"
	FieldAccount       = "account"
	FieldPartner       = "partner"
	FieldAmount        = "amount"
	FieldCurrency      = "currency"
	FieldCategory      = "category"
	FieldFile          = "file"
	FieldLine          = "line"
	FieldSpreadsheet   = "spreadsheet_id"
	FieldSheet         = "sheet"
	FieldRow           = "row"
	FieldColumns       = "columns"
	FieldTransferDate  = "transfer_date"
	FieldInserted      = "inserted"
	FieldSkipped       = "skipped"
	FieldUpdated       = "updated"
)

// Components defines standard component names
const (
	ComponentApp      = "app"
	ComponentStorage  = "storage"
	ComponentSheets   = "sheets"
	ComponentBackend  = "backend"
	ComponentImporter = "importer"
	ComponentUpdater  = "updater"
	ComponentExporter = "exporter"
)

// Operations defines standard operation names
const (
	OpInsert  = "insert"
	OpUpdate  = "update"
	OpExport  = "export"
	OpFetch   = "fetch"
	OpParse   = "parse"
	OpStartup = "startup"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithComponent adds component field
func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithTransaction adds the identifying fields of a transaction
func (f LogFields) WithTransaction(id, account, partner, amount, currency string) LogFields {
	f[FieldTransactionID] = id
	f[FieldAccount] = account
	f[FieldPartner] = partner
	f[FieldAmount] = amount
	f[FieldCurrency] = currency
	return f
}

// WithCounters adds the run counters
func (f LogFields) WithCounters(inserted, skipped, updated int) LogFields {
	f[FieldInserted] = inserted
	f[FieldSkipped] = skipped
	f[FieldUpdated] = updated
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
