package ledger

import (
	"time"

	"github.com/bizledger/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType represents the type of treasury transaction
type TransactionType string

const (
	TransactionTypeCollection       TransactionType = "COLLECTION"
	TransactionTypePayment          TransactionType = "PAYMENT"
	TransactionTypeRefund           TransactionType = "REFUND"
	TransactionTypeIncome           TransactionType = "INCOME"
	TransactionTypeExpense          TransactionType = "EXPENSE"
	TransactionTypeCapitalDeposit   TransactionType = "CAPITAL_DEPOSIT"
	TransactionTypePartnerDrawing   TransactionType = "PARTNER_DRAWING"
	TransactionTypeProfitAllocation TransactionType = "PROFIT_ALLOCATION"
)

// String returns the string representation of TransactionType
func (t TransactionType) String() string {
	return string(t)
}

// IsValid returns true if the transaction type is valid
func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionTypeCollection,
		TransactionTypePayment,
		TransactionTypeRefund,
		TransactionTypeIncome,
		TransactionTypeExpense,
		TransactionTypeCapitalDeposit,
		TransactionTypePartnerDrawing,
		TransactionTypeProfitAllocation:
		return true
	}
	return false
}

// TreasuryTransaction is an immutable, append-only record of a money change.
// Amount is a signed 4-decimal fixed-point value. Treasury balance is the sum
// of amounts per treasury; partner balance derivations filter by reference
// kind (see the treasury engine).
//
// Two sign conventions coexist and must never be mixed up:
//
//   - Document-posted transactions carry a treasury-centric sign: cash in is
//     positive (collection, purchase-return refund, income, capital deposit)
//     and cash out is negative (payment, sale-return refund, expense,
//     drawing).
//   - Manual settlement transactions (reference kind FINANCIAL_TRANSACTION)
//     carry a partner-centric sign: the amount encodes the effect on the
//     partner balance, so a settlement collection is stored negative (it
//     reduces customer debt) and a settlement payment is stored positive.
//
// The sign logic lives exclusively in the constructors below; nothing else
// in the system decides a transaction sign.
type TreasuryTransaction struct {
	shared.BaseEntity
	TreasuryID  *uuid.UUID      `gorm:"type:uuid;index"` // Nil for capital-only entries that move no cash
	Type        TransactionType `gorm:"type:varchar(25);not null;index"`
	Amount      decimal.Decimal `gorm:"type:decimal(18,4);not null"` // Signed
	Discount    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	PartnerID   *uuid.UUID      `gorm:"type:uuid;index"`
	Reference   DocumentRef     `gorm:"embedded"`
	Description string          `gorm:"type:varchar(255)"`
	CreatedByID *uuid.UUID      `gorm:"type:uuid"`
	OccurredAt  time.Time       `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (TreasuryTransaction) TableName() string {
	return "treasury_transactions"
}

func newTransaction(
	treasuryID *uuid.UUID,
	txType TransactionType,
	amount decimal.Decimal,
	reference DocumentRef,
) (*TreasuryTransaction, error) {
	if !txType.IsValid() {
		return nil, shared.NewDomainError("INVALID_TRANSACTION_TYPE", "Invalid treasury transaction type")
	}
	if amount.IsZero() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Transaction amount cannot be zero")
	}
	if !reference.Kind.IsValid() || reference.ID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_REFERENCE", "Transaction must reference a source document")
	}
	if treasuryID != nil && *treasuryID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TREASURY", "Treasury ID cannot be empty")
	}

	return &TreasuryTransaction{
		BaseEntity: shared.NewBaseEntity(),
		TreasuryID: treasuryID,
		Type:       txType,
		Amount:     amount.Round(4),
		Discount:   decimal.Zero,
		Reference:  reference,
		OccurredAt: time.Now(),
	}, nil
}

func requirePositive(amount decimal.Decimal, what string) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_AMOUNT", what+" must be positive")
	}
	return nil
}

// NewCollection creates a collection for a posted sales invoice: cash into
// the treasury, stored positive.
func NewCollection(treasuryID uuid.UUID, amount decimal.Decimal, reference DocumentRef) (*TreasuryTransaction, error) {
	if err := requirePositive(amount, "Collection amount"); err != nil {
		return nil, err
	}
	return newTransaction(&treasuryID, TransactionTypeCollection, amount, reference)
}

// NewPayment creates a payment for a posted purchase invoice: cash out of
// the treasury, stored negative.
func NewPayment(treasuryID uuid.UUID, amount decimal.Decimal, reference DocumentRef) (*TreasuryTransaction, error) {
	if err := requirePositive(amount, "Payment amount"); err != nil {
		return nil, err
	}
	return newTransaction(&treasuryID, TransactionTypePayment, amount.Neg(), reference)
}

// NewSaleReturnRefund creates a refund for a cash sales return: cash out of
// the treasury, stored negative.
func NewSaleReturnRefund(treasuryID uuid.UUID, amount decimal.Decimal, reference DocumentRef) (*TreasuryTransaction, error) {
	if err := requirePositive(amount, "Refund amount"); err != nil {
		return nil, err
	}
	return newTransaction(&treasuryID, TransactionTypeRefund, amount.Neg(), reference)
}

// NewPurchaseReturnRefund creates a refund for a cash purchase return: cash
// back into the treasury, stored positive.
func NewPurchaseReturnRefund(treasuryID uuid.UUID, amount decimal.Decimal, reference DocumentRef) (*TreasuryTransaction, error) {
	if err := requirePositive(amount, "Refund amount"); err != nil {
		return nil, err
	}
	return newTransaction(&treasuryID, TransactionTypeRefund, amount, reference)
}

// NewIncome creates a revenue entry: cash in, stored positive.
func NewIncome(treasuryID uuid.UUID, amount decimal.Decimal, reference DocumentRef) (*TreasuryTransaction, error) {
	if err := requirePositive(amount, "Income amount"); err != nil {
		return nil, err
	}
	return newTransaction(&treasuryID, TransactionTypeIncome, amount, reference)
}

// NewExpense creates an expense entry: cash out, stored negative.
func NewExpense(treasuryID uuid.UUID, amount decimal.Decimal, reference DocumentRef) (*TreasuryTransaction, error) {
	if err := requirePositive(amount, "Expense amount"); err != nil {
		return nil, err
	}
	return newTransaction(&treasuryID, TransactionTypeExpense, amount.Neg(), reference)
}

// NewSettlementCollection creates a manual collection settling customer debt.
// The stored amount is netAmount = amount - discount, NEGATED: the sign
// encodes the effect on the partner balance (debt goes down), not the cash
// direction.
func NewSettlementCollection(treasuryID, partnerID uuid.UUID, amount, discount decimal.Decimal, reference DocumentRef) (*TreasuryTransaction, error) {
	if err := requirePositive(amount, "Collection amount"); err != nil {
		return nil, err
	}
	if discount.IsNegative() {
		return nil, shared.NewDomainError("INVALID_DISCOUNT", "Discount cannot be negative")
	}
	net := amount.Sub(discount)
	if err := requirePositive(net, "Collection amount after discount"); err != nil {
		return nil, err
	}

	tx, err := newTransaction(&treasuryID, TransactionTypeCollection, net.Neg(), reference)
	if err != nil {
		return nil, err
	}
	tx.Discount = discount
	tx.PartnerID = &partnerID
	return tx, nil
}

// NewSettlementPayment creates a manual payment settling supplier debt.
// The stored amount is netAmount = amount - discount, POSITIVE: like
// settlement collections the sign encodes the effect on the partner balance.
func NewSettlementPayment(treasuryID, partnerID uuid.UUID, amount, discount decimal.Decimal, reference DocumentRef) (*TreasuryTransaction, error) {
	if err := requirePositive(amount, "Payment amount"); err != nil {
		return nil, err
	}
	if discount.IsNegative() {
		return nil, shared.NewDomainError("INVALID_DISCOUNT", "Discount cannot be negative")
	}
	net := amount.Sub(discount)
	if err := requirePositive(net, "Payment amount after discount"); err != nil {
		return nil, err
	}

	tx, err := newTransaction(&treasuryID, TransactionTypePayment, net, reference)
	if err != nil {
		return nil, err
	}
	tx.Discount = discount
	tx.PartnerID = &partnerID
	return tx, nil
}

// NewCapitalDeposit creates a capital injection: cash into the treasury,
// stored positive, linked to the shareholder.
func NewCapitalDeposit(treasuryID uuid.UUID, partnerID uuid.UUID, amount decimal.Decimal, reference DocumentRef) (*TreasuryTransaction, error) {
	if err := requirePositive(amount, "Capital deposit amount"); err != nil {
		return nil, err
	}
	tx, err := newTransaction(&treasuryID, TransactionTypeCapitalDeposit, amount, reference)
	if err != nil {
		return nil, err
	}
	tx.PartnerID = &partnerID
	return tx, nil
}

// NewEquityContribution creates a capital entry that moves no cash, used
// when a fixed asset is funded directly from partner equity.
func NewEquityContribution(partnerID uuid.UUID, amount decimal.Decimal, reference DocumentRef) (*TreasuryTransaction, error) {
	if err := requirePositive(amount, "Contribution amount"); err != nil {
		return nil, err
	}
	tx, err := newTransaction(nil, TransactionTypeCapitalDeposit, amount, reference)
	if err != nil {
		return nil, err
	}
	tx.PartnerID = &partnerID
	return tx, nil
}

// NewPartnerDrawing creates a drawing: cash out of the treasury, stored
// negative, linked to the shareholder.
func NewPartnerDrawing(treasuryID uuid.UUID, partnerID uuid.UUID, amount decimal.Decimal, reference DocumentRef) (*TreasuryTransaction, error) {
	if err := requirePositive(amount, "Drawing amount"); err != nil {
		return nil, err
	}
	tx, err := newTransaction(&treasuryID, TransactionTypePartnerDrawing, amount.Neg(), reference)
	if err != nil {
		return nil, err
	}
	tx.PartnerID = &partnerID
	return tx, nil
}

// NewProfitAllocation creates a period-close profit allocation for one
// shareholder. It moves no cash: capital increases, treasury is unaffected.
func NewProfitAllocation(partnerID uuid.UUID, amount decimal.Decimal, reference DocumentRef) (*TreasuryTransaction, error) {
	if err := requirePositive(amount, "Allocation amount"); err != nil {
		return nil, err
	}
	tx, err := newTransaction(nil, TransactionTypeProfitAllocation, amount, reference)
	if err != nil {
		return nil, err
	}
	tx.PartnerID = &partnerID
	return tx, nil
}

// WithDescription sets the transaction description
func (t *TreasuryTransaction) WithDescription(description string) *TreasuryTransaction {
	t.Description = description
	return t
}

// WithCreatedBy sets the user who caused the transaction
func (t *TreasuryTransaction) WithCreatedBy(userID uuid.UUID) *TreasuryTransaction {
	t.CreatedByID = &userID
	return t
}

// WithOccurredAt sets the transaction timestamp
func (t *TreasuryTransaction) WithOccurredAt(at time.Time) *TreasuryTransaction {
	t.OccurredAt = at
	return t
}

// IsSettlement returns true if this is a manual settlement entry
// (partner-centric sign convention).
func (t *TreasuryTransaction) IsSettlement() bool {
	return t.Reference.Kind == DocumentKindFinancialTransaction
}

// MovesCash returns true if the transaction affects a treasury balance
func (t *TreasuryTransaction) MovesCash() bool {
	return t.TreasuryID != nil
}
