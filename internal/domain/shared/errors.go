package shared

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotFound          = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists     = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput      = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrInvalidState      = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
	ErrAlreadyPosted     = NewDomainError("ALREADY_POSTED", "Document has already been posted")
	ErrInsufficientStock = NewDomainError("INSUFFICIENT_STOCK", "Insufficient stock available")
	ErrImmutableField    = NewDomainError("IMMUTABLE_FIELD", "Field cannot be changed after creation")
	ErrHasLedgerEntries  = NewDomainError("HAS_LEDGER_ENTRIES", "Record has dependent ledger entries and cannot be deleted")
)
