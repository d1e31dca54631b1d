package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/cks-portal/identity-service/internal/api/handler"
	"github.com/cks-portal/identity-service/internal/api/middleware"
	"github.com/cks-portal/identity-service/internal/core/domain"
	"github.com/cks-portal/identity-service/internal/core/ports"
	"github.com/cks-portal/identity-service/internal/core/service"
	mongostore "github.com/cks-portal/identity-service/internal/infrastructure/db/mongo"
	redisstore "github.com/cks-portal/identity-service/internal/infrastructure/db/redis"
)

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(db *mongo.Database, rdb *redis.Client, upstream ports.ProfileClient, jwtSecret string, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echoprometheus.NewMiddleware("portal"))
	e.Use(middleware.Auth(jwtSecret))

	// --- Dependencies ---
	sessionCache := redisstore.NewSessionCache(rdb)
	relationshipRepo := mongostore.NewRelationshipRepository(db)

	collector := service.NewSignalCollector(sessionCache, log)
	resolver := service.NewRoleResolver(log)
	hydrator := service.NewProfileHydrator(upstream, sessionCache, log)
	engine := service.NewVisibilityPolicyEngine(log)

	newMount := func() ports.ProfileMount {
		return service.NewProfileSession(collector, resolver, hydrator, log)
	}

	profileHandler := handler.NewProfileHandler(newMount, log)
	visibilityHandler := handler.NewVisibilityHandler(collector, resolver, engine, relationshipRepo, log)
	sessionHandler := handler.NewSessionHandler(upstream, sessionCache, profileHandler.CloseMount, log)
	relationshipHandler := handler.NewRelationshipHandler(relationshipRepo)

	// --- Identity routes ---
	v1 := e.Group("/v1")
	v1.GET("/me/profile", profileHandler.Me)
	v1.GET("/me/visibility", visibilityHandler.Get)
	v1.POST("/session/bootstrap", sessionHandler.Bootstrap)
	v1.POST("/session/logout", sessionHandler.Logout)

	// --- Directory administration (privileged) ---
	directoryGate := middleware.RoleGate(domain.RoleAdmin, domain.RoleManager)
	v1.GET("/relationships/:viewer/:subject", relationshipHandler.Get, directoryGate)
	v1.PUT("/relationships", relationshipHandler.Upsert, directoryGate)

	// --- Observability ---
	e.GET("/metrics", echoprometheus.NewHandler())

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(db, rdb)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?

	return e
}
