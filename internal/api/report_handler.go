package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"vaultsight-backend-go/internal/core"
	"vaultsight-backend-go/internal/models"
)

// ReportHandler handles API endpoints for the organization risk report.
type ReportHandler struct {
	reportService core.RiskReportService
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(rs core.RiskReportService) *ReportHandler {
	return &ReportHandler{reportService: rs}
}

// respondWithState translates a report state into an HTTP response. The
// service never returns raw errors; failure is carried on the state itself.
// A validation failure means the persisted report may be corrupted, so it is
// surfaced verbatim instead of a generic message.
func respondWithState(c *gin.Context, state models.ReportState) {
	if state.Status == models.StatusError {
		resp := ErrorResponse{Error: "Report operation failed", Details: state.ErrorMessage}
		if state.ValidationFailure {
			resp.Error = state.ErrorMessage
			resp.Details = "The stored report failed integrity validation and was not loaded."
		}
		c.JSON(http.StatusInternalServerError, resp)
		return
	}
	c.JSON(http.StatusOK, state)
}

// requestIdentity extracts the authenticated user and the organization from
// the request. An empty user id means the auth middleware did not run.
func requestIdentity(c *gin.Context) (userID, orgID string, ok bool) {
	uid, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User ID not found in context"})
		return "", "", false
	}
	orgID = c.Param("orgId")
	if orgID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Organization ID is required"})
		return "", "", false
	}
	return uid.(string), orgID, true
}

// GetReport handles GET /orgs/:orgId/risk-report
func (h *ReportHandler) GetReport(c *gin.Context) {
	userID, orgID, ok := requestIdentity(c)
	if !ok {
		return
	}
	state := h.reportService.InitializeForOrganization(c.Request.Context(), orgID, userID)
	respondWithState(c, state)
}

// GenerateReport handles POST /orgs/:orgId/risk-report/generate
func (h *ReportHandler) GenerateReport(c *gin.Context) {
	userID, orgID, ok := requestIdentity(c)
	if !ok {
		return
	}
	state := h.reportService.GenerateReport(c.Request.Context(), orgID, userID)
	respondWithState(c, state)
}

// GetCriticalReport handles GET /orgs/:orgId/risk-report/critical
func (h *ReportHandler) GetCriticalReport(c *gin.Context) {
	_, orgID, ok := requestIdentity(c)
	if !ok {
		return
	}
	state := h.reportService.CriticalReportResults()
	if state.OrganizationID != orgID {
		c.JSON(http.StatusConflict, ErrorResponse{Error: "No report loaded for this organization"})
		return
	}
	respondWithState(c, state)
}

// MarkCriticalApplications handles PUT /orgs/:orgId/risk-report/critical
func (h *ReportHandler) MarkCriticalApplications(c *gin.Context) {
	userID, orgID, ok := requestIdentity(c)
	if !ok {
		return
	}

	var req models.MarkCriticalApplicationsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	state := h.reportService.SaveCriticalApplications(c.Request.Context(), orgID, userID, req.ApplicationNames)
	respondWithState(c, state)
}

// RemoveCriticalApplication handles DELETE /orgs/:orgId/risk-report/critical/:applicationName
func (h *ReportHandler) RemoveCriticalApplication(c *gin.Context) {
	userID, orgID, ok := requestIdentity(c)
	if !ok {
		return
	}
	applicationName := c.Param("applicationName")
	if applicationName == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Application name is required"})
		return
	}

	state := h.reportService.RemoveCriticalApplication(c.Request.Context(), orgID, userID, applicationName)
	respondWithState(c, state)
}

// SaveReviewStatus handles POST /orgs/:orgId/risk-report/review
func (h *ReportHandler) SaveReviewStatus(c *gin.Context) {
	userID, orgID, ok := requestIdentity(c)
	if !ok {
		return
	}

	var req models.SaveReviewStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	state := h.reportService.SaveApplicationReviewStatus(c.Request.Context(), orgID, userID, req.CriticalApplicationNames)
	respondWithState(c, state)
}
