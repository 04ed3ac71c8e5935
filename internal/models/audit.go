package models

import "time"

const (
	AuditStockUpdate      = "Stock Update"
	AuditBatchStockUpdate = "Batch Stock Update"
)

// AuditLog records who changed what and when.
type AuditLog struct {
	ID        int       `json:"id"`
	User      string    `json:"user"`
	Action    string    `json:"action"`
	Details   string    `json:"details"`
	Timestamp time.Time `json:"timestamp"`
}
