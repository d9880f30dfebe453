package controllers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/campuslink/campuslink-api/internal/app/services"
	"github.com/campuslink/campuslink-api/internal/domain/membership"
)

type MembershipController struct {
	requests  services.RequestService
	approvals services.ApprovalService
	views     services.MembershipViewService
}

func NewMembershipController(requests services.RequestService, approvals services.ApprovalService, views services.MembershipViewService) *MembershipController {
	return &MembershipController{requests: requests, approvals: approvals, views: views}
}

type joinResponse struct {
	RequestID string            `json:"requestId"`
	Status    membership.Status `json:"status"`
}

func (c *MembershipController) Join(w http.ResponseWriter, r *http.Request) {
	var in membership.JoinInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := validate.Struct(in); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	req, err := c.requests.Join(r.Context(), in)
	if err != nil {
		writeError(w, mapServiceStatus(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, joinResponse{RequestID: req.ID, Status: req.Status})
}

type cancelInput struct {
	ResourceID string `json:"resourceId" validate:"required"`
	UserID     string `json:"userId" validate:"required"`
}

func (c *MembershipController) Cancel(w http.ResponseWriter, r *http.Request) {
	var in cancelInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := validate.Struct(in); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := c.requests.Cancel(r.Context(), in.ResourceID, in.UserID); err != nil {
		writeError(w, mapServiceStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

type decideInput struct {
	RequestID     string `json:"requestId" validate:"required"`
	DeciderUserID string `json:"deciderUserId" validate:"required"`
	Decision      string `json:"decision" validate:"required,oneof=approve decline"`
}

func (c *MembershipController) Decide(w http.ResponseWriter, r *http.Request) {
	var in decideInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := validate.Struct(in); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	req, err := c.approvals.Decide(r.Context(), in.RequestID, in.DeciderUserID, membership.Decision(in.Decision))
	if err != nil {
		writeError(w, mapServiceStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, joinResponse{RequestID: req.ID, Status: req.Status})
}

func (c *MembershipController) Membership(w http.ResponseWriter, r *http.Request, resourceID string) {
	caller := callerID(r)
	view, err := c.views.Membership(r.Context(), resourceID, caller)
	if err != nil {
		writeError(w, mapServiceStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// callerID resolves the acting user for reads. Session resolution lives
// outside this service; clients pass the user id explicitly.
func callerID(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get("X-User-ID")); id != "" {
		return id
	}
	return strings.TrimSpace(r.URL.Query().Get("callerId"))
}
