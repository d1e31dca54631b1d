package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/cks-portal/identity-service/internal/api/metrics"
	"github.com/cks-portal/identity-service/internal/core/domain"
	"github.com/cks-portal/identity-service/internal/core/ports"
)

// SessionHandler serves the session lifecycle: bootstrap seeds the cache with
// the upstream's authoritative identity, logout clears it.
type SessionHandler struct {
	client ports.ProfileClient
	cache  ports.SessionCache
	// closeMount tears down the session's profile mount on logout.
	closeMount func(sessionID string)
	log        zerolog.Logger
}

func NewSessionHandler(client ports.ProfileClient, cache ports.SessionCache, closeMount func(sessionID string), log zerolog.Logger) *SessionHandler {
	return &SessionHandler{
		client:     client,
		cache:      cache,
		closeMount: closeMount,
		log:        log,
	}
}

type bootstrapResponse struct {
	Role string `json:"role"`
	Code string `json:"code"`
}

// Bootstrap handles POST /v1/session/bootstrap.
//
// @Summary      Seed the session cache from the upstream bootstrap endpoint
// @Tags         session
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  bootstrapResponse
// @Failure      400  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /v1/session/bootstrap [post]
func (h *SessionHandler) Bootstrap(c echo.Context) error {
	sessionID := ctxSessionID(c)
	if sessionID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "no session scope: authenticate or supply X-Session-ID")
	}

	ctx := c.Request().Context()
	result, err := h.client.FetchBootstrap(ctx, ctxPrincipal(c).Token)
	if err != nil {
		metrics.BootstrapTotal.WithLabelValues("unavailable").Inc()
		return err
	}

	identity := domain.Identity{Role: result.Role, Code: result.Code}
	if err := h.cache.StoreIdentity(ctx, sessionID, identity); err != nil {
		// The bootstrap answer is still valid; the next navigation just
		// resolves without a cache signal.
		h.log.Warn().Err(err).Str("session_id", sessionID).Msg("bootstrap cache seed failed")
	}
	metrics.BootstrapTotal.WithLabelValues("ok").Inc()

	return c.JSON(http.StatusOK, bootstrapResponse{
		Role: string(result.Role),
		Code: result.Code,
	})
}

// Logout handles POST /v1/session/logout.
//
// @Summary      Clear the session's cached identity and tear down its mount
// @Tags         session
// @Security     BearerAuth
// @Success      204  "cleared"
// @Failure      400  {object}  map[string]string
// @Router       /v1/session/logout [post]
func (h *SessionHandler) Logout(c echo.Context) error {
	sessionID := ctxSessionID(c)
	if sessionID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "no session scope: authenticate or supply X-Session-ID")
	}

	if err := h.cache.Clear(c.Request().Context(), sessionID); err != nil {
		return err
	}
	if h.closeMount != nil {
		h.closeMount(sessionID)
	}
	return c.NoContent(http.StatusNoContent)
}
