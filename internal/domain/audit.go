package domain

import (
	"encoding/json"
	"time"
)

// AuditLog represents an audit trail entry for every ledger mutation.
type AuditLog struct {
	ID           string
	Actor        string // Who performed the action
	Action       string // What action (entry.record, transfer.approve, etc.)
	ResourceType string // Type of resource (entry, transfer, sale)
	ResourceID   string
	RequestID    string
	BeforeState  JSON
	AfterState   JSON
	CreatedAt    time.Time
}

// JSON is a type alias for JSON data
type JSON map[string]any

// AuditAction represents different types of auditable actions
type AuditAction string

const (
	AuditActionAccountOpen     AuditAction = "account.open"
	AuditActionEntryRecord     AuditAction = "entry.record"
	AuditActionTransferPropose AuditAction = "transfer.propose"
	AuditActionTransferApprove AuditAction = "transfer.approve"
	AuditActionTransferReject  AuditAction = "transfer.reject"
	AuditActionSaleCreate      AuditAction = "sale.create"
	AuditActionSaleSettle      AuditAction = "sale.settle"
)

// Resource types used in audit logs and outbox events.
const (
	ResourceTypeAccount  = "account"
	ResourceTypeEntry    = "entry"
	ResourceTypeTransfer = "transfer"
	ResourceTypeSale     = "sale"
)

// MarshalState converts a domain object to JSON for audit logging
func MarshalState(v any) JSON {
	if v == nil {
		return nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return JSON{"error": "failed to marshal state"}
	}

	var result JSON
	if err := json.Unmarshal(data, &result); err != nil {
		return JSON{"error": "failed to unmarshal state"}
	}

	return result
}

// AuditFilter defines filters for querying audit logs
type AuditFilter struct {
	Actor        string
	Action       string
	ResourceType string
	ResourceID   string
	Limit        int
	Offset       int
}
