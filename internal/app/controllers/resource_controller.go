package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/campuslink/campuslink-api/internal/app/services"
	"github.com/campuslink/campuslink-api/internal/domain/resource"
)

type ResourceController struct {
	service services.ResourceService
}

func NewResourceController(s services.ResourceService) *ResourceController {
	return &ResourceController{service: s}
}

func (c *ResourceController) Create(w http.ResponseWriter, r *http.Request) {
	var in resource.CreateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := validate.Struct(in); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	res, err := c.service.Create(r.Context(), in)
	if err != nil {
		writeError(w, mapServiceStatus(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (c *ResourceController) List(w http.ResponseWriter, r *http.Request) {
	items, err := c.service.List(r.Context())
	if err != nil {
		writeError(w, mapServiceStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (c *ResourceController) Get(w http.ResponseWriter, r *http.Request, id string) {
	res, err := c.service.Get(r.Context(), id)
	if err != nil {
		writeError(w, mapServiceStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
