package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/campuslink/campuslink-api/pkg/audit"
)

type AuditController struct {
	trail *audit.Trail
}

func NewAuditController(trail *audit.Trail) *AuditController {
	return &AuditController{trail: trail}
}

func (c *AuditController) Recent(w http.ResponseWriter, r *http.Request) {
	if !c.trail.Enabled() {
		writeError(w, http.StatusNotFound, errors.New("audit trail disabled"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	events, err := c.trail.Recent(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if events == nil {
		events = []audit.Event{}
	}
	writeJSON(w, http.StatusOK, events)
}
