package models

import "time"

// AuditLog represents an audit trail event for report lifecycle actions.
type AuditLog struct {
	ID             string                 `json:"id" firestore:"-"`
	Timestamp      time.Time              `json:"timestamp" firestore:"timestamp,serverTimestamp"`
	UserID         string                 `json:"userId" firestore:"userId"` // Who performed the action
	OrganizationID string                 `json:"organizationId,omitempty" firestore:"organizationId,omitempty"`
	Action         string                 `json:"action" firestore:"action"` // e.g., "REPORT_GENERATE", "CRITICAL_APPS_SAVE", "REVIEW_STATUS_SAVE"
	TargetType     string                 `json:"targetType,omitempty" firestore:"targetType,omitempty"` // e.g., "REPORT"
	TargetID       string                 `json:"targetId,omitempty" firestore:"targetId,omitempty"`     // ID of the affected entity
	IPAddress      string                 `json:"ipAddress,omitempty" firestore:"ipAddress,omitempty"`
	UserAgent      string                 `json:"userAgent,omitempty" firestore:"userAgent,omitempty"`
	Details        map[string]interface{} `json:"details,omitempty" firestore:"details,omitempty"` // Additional information
}
