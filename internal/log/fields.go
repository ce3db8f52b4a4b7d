package log

// Common field names for structured logging
const (
	FieldComponent = "component"
	FieldRequestID = "request_id"
	FieldClientIP  = "client_ip"
	FieldOperation = "operation"
	FieldError     = "error"
	FieldDuration  = "duration_ms"

	FieldOwner         = "owner"
	FieldAccountID     = "account_id"
	FieldTransactionID = "transaction_id"
	FieldComponentID   = "component_id"
	FieldCurrency      = "currency"
	FieldAmountCents   = "amount_cents"
	FieldVersion       = "version"
	FieldBackend       = "backend"
	FieldImportJobID   = "import_job_id"
)
