package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/cks-portal/identity-service/internal/core/domain"
	"github.com/cks-portal/identity-service/internal/core/ports"
)

// RelationshipHandler administers the relationship directory that feeds the
// visibility engine. Routes are gated to admin and manager principals.
type RelationshipHandler struct {
	repo ports.RelationshipRepository
}

func NewRelationshipHandler(repo ports.RelationshipRepository) *RelationshipHandler {
	return &RelationshipHandler{repo: repo}
}

type relationshipResponse struct {
	ViewerCode   string `json:"viewer_code"`
	SubjectCode  string `json:"subject_code"`
	Relationship string `json:"relationship"`
}

type upsertRelationshipRequest struct {
	ViewerCode   string `json:"viewer_code" validate:"required,max=64"`
	SubjectCode  string `json:"subject_code" validate:"required,max=64"`
	Relationship string `json:"relationship" validate:"required,oneof=owns-subject assigned-manager assigned-crew serving-contractor owning-customer"`
}

// Get handles GET /v1/relationships/:viewer/:subject.
//
// @Summary      Look up a directory link between a viewer and a subject
// @Tags         relationships
// @Produce      json
// @Security     BearerAuth
// @Param        viewer   path      string  true  "Viewer code"
// @Param        subject  path      string  true  "Subject code"
// @Success      200      {object}  relationshipResponse
// @Failure      404      {object}  map[string]string
// @Router       /v1/relationships/{viewer}/{subject} [get]
func (h *RelationshipHandler) Get(c echo.Context) error {
	viewer := strings.ToUpper(c.Param("viewer"))
	subject := strings.ToUpper(c.Param("subject"))

	rel, err := h.repo.Find(c.Request().Context(), viewer, subject)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, relationshipResponse{
		ViewerCode:   viewer,
		SubjectCode:  subject,
		Relationship: string(rel),
	})
}

// Upsert handles PUT /v1/relationships.
//
// @Summary      Record or replace a directory link
// @Tags         relationships
// @Accept       json
// @Security     BearerAuth
// @Param        body  body  upsertRelationshipRequest  true  "Directory link"
// @Success      204   "stored"
// @Failure      400   {object}  map[string]string
// @Router       /v1/relationships [put]
func (h *RelationshipHandler) Upsert(c echo.Context) error {
	var req upsertRelationshipRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	err := h.repo.Upsert(c.Request().Context(), ports.RelationshipLink{
		ViewerCode:   req.ViewerCode,
		SubjectCode:  req.SubjectCode,
		Relationship: domain.Relationship(req.Relationship),
	})
	if err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
