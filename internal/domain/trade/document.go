package trade

// DocumentStatus represents the lifecycle state of a postable document.
// The only transition is DRAFT -> POSTED; posted is terminal.
type DocumentStatus string

const (
	DocumentStatusDraft  DocumentStatus = "DRAFT"
	DocumentStatusPosted DocumentStatus = "POSTED"
)

// IsValid returns true if the status is valid
func (s DocumentStatus) IsValid() bool {
	return s == DocumentStatusDraft || s == DocumentStatusPosted
}

// String returns the string representation of DocumentStatus
func (s DocumentStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status
func (s DocumentStatus) CanTransitionTo(target DocumentStatus) bool {
	return s == DocumentStatusDraft && target == DocumentStatusPosted
}

// PaymentMethod represents how a document is settled
type PaymentMethod string

const (
	PaymentMethodCash   PaymentMethod = "CASH"
	PaymentMethodCredit PaymentMethod = "CREDIT"
)

// IsValid returns true if the payment method is valid
func (m PaymentMethod) IsValid() bool {
	return m == PaymentMethodCash || m == PaymentMethodCredit
}

// String returns the string representation of PaymentMethod
func (m PaymentMethod) String() string {
	return string(m)
}

// PaymentStatus tracks settlement progress on a posted invoice.
// It belongs to the whitelisted payment-tracking fields that remain mutable
// after posting.
type PaymentStatus string

const (
	PaymentStatusUnpaid  PaymentStatus = "UNPAID"
	PaymentStatusPartial PaymentStatus = "PARTIAL"
	PaymentStatusPaid    PaymentStatus = "PAID"
)

// String returns the string representation of PaymentStatus
func (s PaymentStatus) String() string {
	return string(s)
}
