package handler

import (
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/cks-portal/identity-service/internal/api/metrics"
	"github.com/cks-portal/identity-service/internal/core/domain"
	"github.com/cks-portal/identity-service/internal/core/ports"
)

const (
	// maxMounts bounds the retained mounts. Authenticated sessions are freed
	// on logout, but anonymous X-Session-ID sessions have no logout, so the
	// map must not grow with them without limit.
	maxMounts = 4096
	// mountIdleAfter is how long a session can go unseen before its mount is
	// eligible for eviction once the map is full.
	mountIdleAfter = 30 * time.Minute
)

// ProfileHandler serves GET /v1/me/profile. Each session gets its own
// ProfileMount so the mount-time latch, refetch, and stale-result discard
// semantics hold across repeated requests from the same session.
type ProfileHandler struct {
	newMount func() ports.ProfileMount
	log      zerolog.Logger

	maxMounts int
	idleAfter time.Duration

	mu     sync.Mutex
	mounts map[string]*mountEntry
}

type mountEntry struct {
	mount    ports.ProfileMount
	lastSeen time.Time
}

func NewProfileHandler(newMount func() ports.ProfileMount, log zerolog.Logger) *ProfileHandler {
	return &ProfileHandler{
		newMount:  newMount,
		log:       log,
		maxMounts: maxMounts,
		idleAfter: mountIdleAfter,
		mounts:    make(map[string]*mountEntry),
	}
}

type meProfileResponse struct {
	Loading bool                  `json:"loading"`
	Error   *string               `json:"error"`
	Kind    string                `json:"kind"`
	Data    *domain.ProfileRecord `json:"data"`
}

// Me handles GET /v1/me/profile.
//
// @Summary      Resolve and hydrate the caller's profile
// @Tags         profile
// @Produce      json
// @Security     BearerAuth
// @Param        role     query     string  false  "Explicit role override (alias: kind)"
// @Param        code     query     string  false  "Explicit code override"
// @Param        refresh  query     string  false  "Force a refetch instead of the latched mount fetch"
// @Success      200      {object}  meProfileResponse
// @Router       /v1/me/profile [get]
func (h *ProfileHandler) Me(c echo.Context) error {
	req := ctxSignals(c)
	ctx := c.Request().Context()

	var view ports.ProfileView
	switch {
	case req.SessionID == "":
		// No session scope: a throwaway mount, never retained.
		view = h.newMount().Start(ctx, req)
	case req.HasOverride() || refreshRequested(c):
		// Overrides change the input signals, so the latched result no
		// longer applies.
		view = h.mount(req.SessionID).Refetch(ctx, req)
	default:
		view = h.mount(req.SessionID).Start(ctx, req)
	}

	role := string(view.Kind)
	if role == "" {
		role = string(domain.RoleUnknown)
	}
	metrics.ResolutionsTotal.WithLabelValues(role).Inc()
	metrics.HydrationLayerTotal.WithLabelValues(hydrationLayer(view)).Inc()

	resp := meProfileResponse{
		Loading: view.Loading,
		Kind:    string(view.Kind),
		Data:    view.Data,
	}
	if view.Error != "" {
		msg := view.Error
		resp.Error = &msg
	}
	return c.JSON(http.StatusOK, resp)
}

// mount returns the session's mount, creating it on first use. Creating a
// mount while the map is full first evicts idle sessions, then the least
// recently seen one, so retention stays bounded.
func (h *ProfileHandler) mount(sessionID string) ports.ProfileMount {
	h.mu.Lock()
	defer h.mu.Unlock()
	entry, ok := h.mounts[sessionID]
	if !ok {
		if len(h.mounts) >= h.maxMounts {
			h.evictLocked()
		}
		entry = &mountEntry{mount: h.newMount()}
		h.mounts[sessionID] = entry
	}
	entry.lastSeen = time.Now()
	return entry.mount
}

func (h *ProfileHandler) evictLocked() {
	cutoff := time.Now().Add(-h.idleAfter)
	oldestID := ""
	var oldest time.Time
	for id, entry := range h.mounts {
		if entry.lastSeen.Before(cutoff) {
			entry.mount.Close()
			delete(h.mounts, id)
			continue
		}
		if oldestID == "" || entry.lastSeen.Before(oldest) {
			oldestID, oldest = id, entry.lastSeen
		}
	}
	if len(h.mounts) >= h.maxMounts && oldestID != "" {
		h.mounts[oldestID].mount.Close()
		delete(h.mounts, oldestID)
		h.log.Debug().Str("session_id", oldestID).Msg("least recently seen mount evicted")
	}
}

// CloseMount tears down the session's mount on logout so in-flight results
// are discarded and the next request starts fresh.
func (h *ProfileHandler) CloseMount(sessionID string) {
	h.mu.Lock()
	entry, ok := h.mounts[sessionID]
	if ok {
		delete(h.mounts, sessionID)
	}
	h.mu.Unlock()
	if ok {
		entry.mount.Close()
	}
}

func refreshRequested(c echo.Context) bool {
	switch c.QueryParam("refresh") {
	case "1", "true":
		return true
	}
	return false
}

// hydrationLayer maps a settled view to the metric label of the layer that
// produced it.
func hydrationLayer(view ports.ProfileView) string {
	if view.Data != nil {
		return view.Data.Source
	}
	return "error"
}
