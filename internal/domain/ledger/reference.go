package ledger

import (
	"github.com/bizledger/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// DocumentKind identifies the source document table a ledger entry points at.
// It is a closed enum: ledger rows never reference arbitrary tables.
type DocumentKind string

const (
	DocumentKindSalesInvoice         DocumentKind = "SALES_INVOICE"
	DocumentKindPurchaseInvoice      DocumentKind = "PURCHASE_INVOICE"
	DocumentKindSalesReturn          DocumentKind = "SALES_RETURN"
	DocumentKindPurchaseReturn       DocumentKind = "PURCHASE_RETURN"
	DocumentKindStockAdjustment      DocumentKind = "STOCK_ADJUSTMENT"
	DocumentKindWarehouseTransfer    DocumentKind = "WAREHOUSE_TRANSFER"
	DocumentKindFixedAsset           DocumentKind = "FIXED_ASSET"
	DocumentKindFinancialTransaction DocumentKind = "FINANCIAL_TRANSACTION"
	DocumentKindCapital              DocumentKind = "CAPITAL"
	DocumentKindInvoicePayment       DocumentKind = "INVOICE_PAYMENT"
	DocumentKindExpense              DocumentKind = "EXPENSE"
	DocumentKindRevenue              DocumentKind = "REVENUE"
)

// String returns the string representation of DocumentKind
func (k DocumentKind) String() string {
	return string(k)
}

// IsValid returns true if the document kind is valid
func (k DocumentKind) IsValid() bool {
	switch k {
	case DocumentKindSalesInvoice,
		DocumentKindPurchaseInvoice,
		DocumentKindSalesReturn,
		DocumentKindPurchaseReturn,
		DocumentKindStockAdjustment,
		DocumentKindWarehouseTransfer,
		DocumentKindFixedAsset,
		DocumentKindFinancialTransaction,
		DocumentKindCapital,
		DocumentKindInvoicePayment,
		DocumentKindExpense,
		DocumentKindRevenue:
		return true
	}
	return false
}

// DocumentRef is a typed reference to the source document of a ledger entry.
// It replaces a stringly-typed polymorphic join with an explicit tagged pair
// stored as two columns (reference_kind, reference_id). The composite indexes
// over the pair are declared per table in the SQL migrations; naming one here
// would collide across the embedding models.
type DocumentRef struct {
	Kind DocumentKind `gorm:"column:reference_kind;type:varchar(30);not null;index"`
	ID   uuid.UUID    `gorm:"column:reference_id;type:uuid;not null;index"`
}

// NewDocumentRef creates a validated document reference
func NewDocumentRef(kind DocumentKind, id uuid.UUID) (DocumentRef, error) {
	if !kind.IsValid() {
		return DocumentRef{}, shared.NewDomainError("INVALID_REFERENCE_KIND", "Invalid document reference kind")
	}
	if id == uuid.Nil {
		return DocumentRef{}, shared.NewDomainError("INVALID_REFERENCE_ID", "Document reference ID cannot be empty")
	}
	return DocumentRef{Kind: kind, ID: id}, nil
}

// Equals returns true if both references point at the same document
func (r DocumentRef) Equals(other DocumentRef) bool {
	return r.Kind == other.Kind && r.ID == other.ID
}
