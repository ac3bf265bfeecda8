package models

// MarkCriticalApplicationsRequest is the request body for flagging
// applications as critical on the current report.
type MarkCriticalApplicationsRequest struct {
	ApplicationNames []string `json:"applicationNames" binding:"required"`
}

// SaveReviewStatusRequest is the request body for stamping review status.
// Applications named here are additionally marked critical; every application
// with an unset review timestamp is stamped regardless.
type SaveReviewStatusRequest struct {
	CriticalApplicationNames []string `json:"criticalApplicationNames"`
}
