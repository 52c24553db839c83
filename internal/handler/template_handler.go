package handler

import (
	"github.com/gin-gonic/gin"

	"fieldpulse/surveyhub/internal/service"
	"fieldpulse/surveyhub/pkg/response"
)

type TemplateHandler struct {
	templateService service.TemplateService
}

func NewTemplateHandler(templateService service.TemplateService) *TemplateHandler {
	return &TemplateHandler{templateService: templateService}
}

// Create writes version 1 of a new template name.
func (h *TemplateHandler) Create(c *gin.Context) {
	var req service.TemplateContent
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	tmpl, err := h.templateService.Create(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, tmpl)
}

// Update appends a new version forked from the current latest.
func (h *TemplateHandler) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req service.TemplateContent
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	tmpl, err := h.templateService.Update(c.Request.Context(), id, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, tmpl)
}

// Rollback republishes an older version's content as a new latest version.
func (h *TemplateHandler) Rollback(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	tmpl, err := h.templateService.Rollback(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, tmpl)
}

func (h *TemplateHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	tmpl, err := h.templateService.Get(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, tmpl)
}

// List returns the latest non-deleted version of every template name.
func (h *TemplateHandler) List(c *gin.Context) {
	templates, err := h.templateService.ListLatestActive(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, templates)
}

// History lists every version of a name, deleted ones included.
func (h *TemplateHandler) History(c *gin.Context) {
	name := c.Param("name")
	if name == "" {
		response.BadRequest(c, "missing template name")
		return
	}

	versions, err := h.templateService.History(c.Request.Context(), name)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, versions)
}

func (h *TemplateHandler) Delete(c *gin.Context) {
	name := c.Param("name")
	if name == "" {
		response.BadRequest(c, "missing template name")
		return
	}

	if err := h.templateService.SoftDelete(c.Request.Context(), name); err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, gin.H{"deleted": name})
}
