package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"vaultsight-backend-go/internal/core"
)

// MemberAccessHandler handles API endpoints for the member access report.
type MemberAccessHandler struct {
	memberAccessService core.MemberAccessService
}

// NewMemberAccessHandler creates a new MemberAccessHandler.
func NewMemberAccessHandler(mas core.MemberAccessService) *MemberAccessHandler {
	return &MemberAccessHandler{memberAccessService: mas}
}

// ListMemberAccess handles GET /orgs/:orgId/member-access
func (h *MemberAccessHandler) ListMemberAccess(c *gin.Context) {
	_, orgID, ok := requestIdentity(c)
	if !ok {
		return
	}

	summaries, err := h.memberAccessService.GetMemberAccessSummaries(c.Request.Context(), orgID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to build member access report", Details: err.Error()})
		return
	}
	c.JSON(http.StatusOK, summaries)
}

// GetMemberAccessDetail handles GET /orgs/:orgId/member-access/:memberId
func (h *MemberAccessHandler) GetMemberAccessDetail(c *gin.Context) {
	_, orgID, ok := requestIdentity(c)
	if !ok {
		return
	}
	memberID := c.Param("memberId")
	if memberID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Member ID is required"})
		return
	}

	detail, err := h.memberAccessService.GetMemberAccessDetail(c.Request.Context(), orgID, memberID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to build member access detail", Details: err.Error()})
		return
	}
	if detail == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Member has no access in this organization"})
		return
	}
	c.JSON(http.StatusOK, detail)
}
