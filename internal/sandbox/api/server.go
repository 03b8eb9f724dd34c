package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-advanced-admin/admin"
	admingorm "github.com/go-advanced-admin/orm-gorm"
	adminecho "github.com/go-advanced-admin/web-echo"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"tourdesk/internal/config"
	"tourdesk/internal/events"
	"tourdesk/internal/models"
	sandboxmw "tourdesk/internal/sandbox/api/middleware"
	"tourdesk/internal/sandbox/services"
	console "tourdesk/internal/utils/logger"
	"tourdesk/internal/validation"
)

var log = console.New("API-SERVER")

const (
	csrfCookie  = "XSRF-TOKEN"
	csrfHeader  = "X-XSRF-TOKEN"
	adminPrefix = "/admin"
)

// Deps are the services the server routes to
type Deps struct {
	Storage   services.Storage
	Campaigns *services.CampaignService
	Bus       *events.EventBus
}

type Server struct {
	echo   *echo.Echo
	config *config.Config
	db     *gorm.DB
	auth   *services.AuthService
	deps   Deps
}

// NewServer @title Tourdesk Sandbox API
// @version 1.0
// @description Development backend speaking the tourdesk console's REST contract.
// @host localhost:8080
// @BasePath /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func NewServer(cfg *config.Config, db *gorm.DB, deps Deps) (*Server, error) {
	if deps.Bus == nil {
		deps.Bus = events.Default()
	}
	if deps.Campaigns == nil {
		deps.Campaigns = services.NewCampaignService(db, services.WithBus(deps.Bus))
	}
	if deps.Storage == nil {
		return nil, errors.New("sandbox server needs a storage backend")
	}

	e := echo.New()
	e.HideBanner = true
	e.Validator = validation.Default()
	e.HTTPErrorHandler = customHTTPErrorHandler

	basePath := cfg.Sandbox.Server.BasePath
	if basePath == "" {
		basePath = "/api"
	}

	// Configure middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPut, http.MethodPatch, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, echo.HeaderContentLength, csrfHeader, "X-Requested-With"},
	}))
	e.Use(middleware.RequestID())
	e.Use(middleware.Secure())
	e.Use(middleware.TimeoutWithConfig(middleware.TimeoutConfig{
		Timeout: 30 * time.Second,
	}))
	e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Level: 5,
	}))
	e.Use(middleware.BodyLimit("10M"))
	e.Use(middleware.CSRFWithConfig(middleware.CSRFConfig{
		Skipper: func(c echo.Context) bool {
			return !strings.HasPrefix(c.Path(), basePath)
		},
		TokenLookup:    "header:" + csrfHeader,
		CookieName:     csrfCookie,
		CookiePath:     "/",
		CookieSameSite: http.SameSiteLaxMode,
	}))
	if cfg.Sandbox.RateLimit > 0 {
		e.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(rate.Limit(cfg.Sandbox.RateLimit))))
	}

	s := &Server{
		echo:   e,
		config: cfg,
		db:     db,
		auth:   services.NewAuthService(db, cfg.Sandbox.JWT.Secret, cfg.Sandbox.JWT.TTL),
		deps:   deps,
	}

	if cfg.Sandbox.AdminPanel {
		if err := s.mountAdminPanel(); err != nil {
			return nil, err
		}
	}

	s.registerRoutes(basePath)
	return s, nil
}

// mountAdminPanel serves the go-advanced-admin UI behind basic auth for admins
func (s *Server) mountAdminPanel() error {
	s.echo.Use(middleware.BasicAuthWithConfig(middleware.BasicAuthConfig{
		Skipper: func(c echo.Context) bool {
			return !strings.HasPrefix(c.Request().URL.Path, adminPrefix)
		},
		Realm: "tourdesk admin",
		Validator: func(email, password string, c echo.Context) (bool, error) {
			user, err := models.GetUserByEmail(email, s.db.WithContext(c.Request().Context()))
			if err != nil || !user.CheckPassword(password) {
				return false, nil
			}
			c.Set(sandboxmw.ContextRole, string(user.Role))
			return true, nil
		},
	}))

	gormIntegrator := admingorm.NewIntegrator(s.db)
	echoIntegrator := adminecho.NewIntegrator(s.echo.Group(""))

	permissionChecker := func(request admin.PermissionRequest, ctx interface{}) (bool, error) {
		c, ok := ctx.(echo.Context)
		if !ok {
			return false, nil
		}
		return sandboxmw.GetUserRole(c) == string(models.UserRoleAdmin), nil
	}

	panel, err := admin.NewPanel(gormIntegrator, echoIntegrator, permissionChecker, nil)
	if err != nil {
		return log.Error("Failed to create admin panel", err)
	}

	app, err := panel.RegisterApp("Tourdesk", "Tourdesk Admin Panel", nil)
	if err != nil {
		return log.Error("Failed to register admin app", err)
	}
	// users stay out: the panel would render password hashes
	for _, model := range adminModels() {
		if _, err := app.RegisterModel(model, nil); err != nil {
			return log.Error("Failed to register admin model", err)
		}
	}
	log.Success("Admin panel mounted at %s", adminPrefix)
	return nil
}

func adminModels() []interface{} {
	return []interface{}{
		&models.Role{},
		&models.Boat{}, &models.Hotel{},
		&models.Customer{}, &models.Booking{},
		&models.FAQ{}, &models.Testimonial{},
		&models.Email{}, &models.Subscriber{}, &models.Recipient{},
	}
}

// Handler exposes the router, mainly for httptest
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Sandbox.Server.Host, s.config.Sandbox.Server.Port)
	log.Info("Listening on %s", addr)
	return s.echo.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// Health check endpoint
func (s *Server) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"version": "1.0.0",
		"time":    time.Now().Format(time.RFC3339),
	})
}

// csrfHandshake is a no-op: the CSRF middleware has already set the cookie
func (s *Server) csrfHandshake(c echo.Context) error {
	return c.NoContent(http.StatusNoContent)
}
