package log

// Common field names for structured logging
const (
	FieldComponent     = "component"
	FieldRequestID     = "request_id"
	FieldClientIP      = "client_ip"
	FieldMethod        = "method"
	FieldPath          = "path"
	FieldQuery         = "query"
	FieldStatusCode    = "status_code"
	FieldDuration      = "duration_ms"
	FieldDurationHuman = "duration_human"
	FieldUserAgent     = "user_agent"
	FieldSuccess       = "success"
	FieldError         = "error"
	FieldUserID        = "user_id"
	FieldBudgetID      = "budget_id"
	FieldExpenseID     = "expense_id"
	FieldProjectID     = "project_id"
	FieldAmountCents   = "amount_cents"
)

// Components defines standard component names
const (
	ComponentApp    = "app"
	ComponentLedger = "ledger"
	ComponentAMQP   = "amqp"
	ComponentWorker = "worker"
	ComponentTrace  = "trace"
)
