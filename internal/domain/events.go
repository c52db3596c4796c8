package domain

import "time"

// Event types
const (
	EventTypeAccountOpened    = "account.opened"
	EventTypeEntryRecorded    = "entry.recorded"
	EventTypeTransferProposed = "transfer.proposed"
	EventTypeTransferApproved = "transfer.approved"
	EventTypeTransferRejected = "transfer.rejected"
	EventTypeSaleCreated      = "sale.created"
)

// OutboxEvent represents an event to be published
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// EntryRecordedPayload builds the payload for an entry.recorded event.
func EntryRecordedPayload(e *Entry) map[string]any {
	return map[string]any{
		"entry_id":        e.ID,
		"document_number": e.DocumentNumber,
		"kind":            string(e.Kind),
		"account_id":      e.AccountID,
		"amount":          e.Amount.String(),
		"balance":         e.AccountCurrentBalance.String(),
		"occurred_at":     e.OccurredAt.Format(time.RFC3339Nano),
	}
}

// TransferPayload builds the payload for transfer lifecycle events.
func TransferPayload(t *TransferRequest) map[string]any {
	p := map[string]any{
		"transfer_id":     t.ID,
		"from_account_id": t.FromAccountID,
		"to_account_id":   t.ToAccountID,
		"amount":          t.Amount.String(),
		"status":          string(t.Status),
	}
	if t.DocumentNumber != "" {
		p["document_number"] = t.DocumentNumber
	}
	return p
}
