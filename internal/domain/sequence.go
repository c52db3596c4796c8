package domain

import "fmt"

// DocumentKind identifies a document numbering sequence.
type DocumentKind string

const (
	DocumentKindInvoice      DocumentKind = "invoice"
	DocumentKindExpense      DocumentKind = "expense"
	DocumentKindProduction   DocumentKind = "production"
	DocumentKindLaborEntry   DocumentKind = "labor-entry"
	DocumentKindLaborPayment DocumentKind = "labor-payment"
	DocumentKindPurchase     DocumentKind = "purchase"
	DocumentKindPayment      DocumentKind = "payment"
	DocumentKindTransfer     DocumentKind = "transfer"
)

var documentPrefixes = map[DocumentKind]string{
	DocumentKindInvoice:      "INV",
	DocumentKindExpense:      "EXP",
	DocumentKindProduction:   "PROD",
	DocumentKindLaborEntry:   "LAB",
	DocumentKindLaborPayment: "LPAY",
	DocumentKindPurchase:     "PUR",
	DocumentKindPayment:      "PAY",
	DocumentKindTransfer:     "TRF",
}

// ParseDocumentKind converts a string to a DocumentKind.
func ParseDocumentKind(s string) (DocumentKind, error) {
	k := DocumentKind(s)
	if _, ok := documentPrefixes[k]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownDocumentKind, s)
	}
	return k, nil
}

// Prefix returns the human-readable prefix for the kind.
func (k DocumentKind) Prefix() string {
	return documentPrefixes[k]
}

// FormatDocumentNumber renders a counter value as PREFIX-NNNNNN.
func FormatDocumentNumber(kind DocumentKind, value int64) string {
	return fmt.Sprintf("%s-%06d", kind.Prefix(), value)
}
