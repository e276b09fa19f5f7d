package log

// Common field names for structured logging.
const (
	FieldComponent   = "component"
	FieldRequestID   = "request_id"
	FieldClientIP    = "client_ip"
	FieldError       = "error"
	FieldUserID      = "user_id"
	FieldBudgetID    = "budget_id"
	FieldCategoryID  = "category_id"
	FieldMonth       = "month"
	FieldReason      = "reason"
	FieldAmountCents = "amount_cents"
	FieldDuration    = "duration_ms"
)

// Components defines standard component names.
const (
	ComponentAPI     = "api"
	ComponentHTTP    = "http"
	ComponentStorage = "storage"
	ComponentAMQP    = "amqp"
	ComponentWorker  = "worker"
	ComponentSweeper = "sweeper"
	ComponentMonitor = "monitor"
	ComponentCache   = "cache"
)
