package log

// Common field names for structured logging.
const (
	FieldComponent  = "component"
	FieldOperation  = "operation"
	FieldError      = "error"
	FieldRecordID   = "record_id"
	FieldEventID    = "event_id"
	FieldMemberName = "member_name"
	FieldAmount     = "amount"
	FieldCategory   = "category"
	FieldFrom       = "from"
	FieldTo         = "to"
	FieldCount      = "count"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
)

// Standard component names.
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentLedger    = "ledger"
	ComponentDues      = "dues"
	ComponentReconcile = "reconcile"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentCache     = "cache"
	ComponentDirectory = "directory"
)

// Standard operation names.
const (
	OpCreate  = "create"
	OpUpdate  = "update"
	OpDelete  = "delete"
	OpFetch   = "fetch"
	OpBatch   = "batch"
	OpDiff    = "diff"
	OpCommit  = "commit"
	OpPublish = "publish"
	OpConsume = "consume"
)
