package handlers

// Common error message constants shared across handlers
const (
	ErrMsgInvalidRequestBody = "Invalid request body"
	ErrMsgUnauthorized       = "Unauthorized"
	ErrMsgPermissionDenied   = "permission denied"
	ErrMsgNotFound           = "not found"
	ErrMsgInternal           = "Internal server error"
	ErrMsgInvalidEventID     = "Invalid event ID"
	ErrMsgInvalidDate        = "Dates must be formatted as YYYY-MM-DD"
)

// Audit action constants
const (
	AuditActionLogin       = "account.login"
	AuditActionLoginFailed = "account.login.failed"
)

const (
	dateLayout     = "2006-01-02"
	maxUploadBytes = 20 << 20
)
