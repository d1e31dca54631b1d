package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/cks-portal/identity-service/internal/api/metrics"
	"github.com/cks-portal/identity-service/internal/core/domain"
	"github.com/cks-portal/identity-service/internal/core/ports"
)

// VisibilityHandler serves GET /v1/me/visibility: the field set the calling
// viewer may see on a given subject profile.
type VisibilityHandler struct {
	collector     ports.SignalCollector
	resolver      ports.RoleResolver
	engine        ports.VisibilityEngine
	relationships ports.RelationshipRepository
	log           zerolog.Logger
}

func NewVisibilityHandler(collector ports.SignalCollector, resolver ports.RoleResolver, engine ports.VisibilityEngine, relationships ports.RelationshipRepository, log zerolog.Logger) *VisibilityHandler {
	return &VisibilityHandler{
		collector:     collector,
		resolver:      resolver,
		engine:        engine,
		relationships: relationships,
		log:           log,
	}
}

type visibilityRequest struct {
	SubjectRole string `query:"subject_role" validate:"required,max=32"`
	SubjectCode string `query:"subject_code" validate:"required,max=64"`
}

type visibilityResponse struct {
	ViewerRole   string            `json:"viewer_role"`
	SubjectRole  string            `json:"subject_role"`
	SubjectCode  string            `json:"subject_code"`
	Relationship string            `json:"relationship"`
	Tier         string            `json:"tier"`
	ReadOnly     bool              `json:"read_only"`
	Fields       []domain.FieldKey `json:"fields"`
}

// Get handles GET /v1/me/visibility.
//
// @Summary      Compute the caller's visibility into a subject profile
// @Tags         visibility
// @Produce      json
// @Security     BearerAuth
// @Param        subject_role  query     string  true  "Subject role"
// @Param        subject_code  query     string  true  "Subject code"
// @Success      200           {object}  visibilityResponse
// @Failure      400           {object}  map[string]string
// @Router       /v1/me/visibility [get]
func (h *VisibilityHandler) Get(c echo.Context) error {
	var req visibilityRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid query parameters")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	subjectRole := domain.ParseRole(req.SubjectRole)
	if !subjectRole.Known() {
		return fmt.Errorf("%w: unknown role %q", domain.ErrInvalidSubject, req.SubjectRole)
	}

	ctx := c.Request().Context()
	signals := h.collector.Collect(ctx, ctxSignals(c))
	viewer := h.resolver.Resolve(signals)
	rel := h.relationship(ctx, viewer, req.SubjectCode)
	policy := h.engine.Compute(viewer.Role, subjectRole, rel)

	metrics.VisibilityTierTotal.WithLabelValues(string(policy.Tier)).Inc()

	return c.JSON(http.StatusOK, visibilityResponse{
		ViewerRole:   string(viewer.Role),
		SubjectRole:  string(subjectRole),
		SubjectCode:  req.SubjectCode,
		Relationship: string(rel),
		Tier:         string(policy.Tier),
		ReadOnly:     policy.ReadOnly,
		Fields:       policy.AllowedKeys(),
	})
}

// relationship determines how the viewer relates to the subject. Self-access
// is decided locally; anything else comes from the relationship directory. A
// directory failure degrades to no relationship, never to elevated access.
func (h *VisibilityHandler) relationship(ctx context.Context, viewer domain.Identity, subjectCode string) domain.Relationship {
	if viewer.Code != "" && strings.EqualFold(viewer.Code, subjectCode) {
		return domain.RelationshipOwnsSubject
	}
	rel, err := h.relationships.Find(ctx, viewer.Code, subjectCode)
	if err != nil {
		if !errors.Is(err, domain.ErrRelationshipNotFound) {
			h.log.Warn().Err(err).
				Str("viewer", viewer.Code).
				Str("subject", subjectCode).
				Msg("relationship lookup failed, treating as unrelated")
		}
		return domain.RelationshipNone
	}
	return rel
}
