package api

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/satriahrh/lisan/internal/auth"
	"github.com/satriahrh/lisan/internal/metrics"
	"github.com/satriahrh/lisan/internal/websocket"
)

const serviceName = "lisan"

// Options configures the routes that depend on process configuration.
type Options struct {
	// StaticDir holds index.html and the assets served under /static.
	StaticDir string
	// ClientTokenSecret enables token checks on the WebSocket endpoint when set.
	ClientTokenSecret []byte
}

// InitRoutes initializes all HTTP routes
func InitRoutes(e *echo.Echo, hub *websocket.Hub, m *metrics.Metrics, opts Options, logger *zap.Logger) {
	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, HealthResponse{
			Status:      "ok",
			Service:     serviceName,
			Connections: hub.Count(),
			Recognizer:  hub.Recognizer().Name(),
		})
	})

	e.GET("/metrics", echo.WrapHandler(m.Handler()))

	// Landing page and recorder assets
	e.GET("/", func(c echo.Context) error {
		return serveIndex(c, opts.StaticDir, logger)
	})
	e.Static("/static", opts.StaticDir)

	// WebSocket relay, one connection per client identifier
	e.GET("/ws/:client_id", func(c echo.Context) error {
		return websocketRelay(hub, c, opts.ClientTokenSecret, logger)
	})
}

// CheckStaticDir reports whether the landing page can be served.
func CheckStaticDir(dir string) error {
	_, err := os.Stat(filepath.Join(dir, "index.html"))
	return err
}

func serveIndex(c echo.Context, staticDir string, logger *zap.Logger) error {
	content, err := os.ReadFile(filepath.Join(staticDir, "index.html"))
	if err != nil {
		logger.Error("Error serving index.html", zap.String("staticDir", staticDir), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "index_unavailable",
			Message: "Error serving index.html",
		})
	}
	return c.HTMLBlob(http.StatusOK, content)
}

// websocketRelay validates the client identifier and optional token before
// handing the connection to the hub.
func websocketRelay(hub *websocket.Hub, c echo.Context, secret []byte, logger *zap.Logger) error {
	clientID := strings.TrimSpace(c.Param("client_id"))
	if clientID == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "missing_client_id",
			Message: "Client identifier is required in the path",
		})
	}

	logger.Info("New WebSocket connection request", zap.String("clientID", clientID))

	if len(secret) > 0 {
		token := c.QueryParam("token")
		authHeader := c.Request().Header.Get("Authorization")
		if token == "" && strings.HasPrefix(authHeader, "Bearer ") {
			token = strings.TrimPrefix(authHeader, "Bearer ")
		}

		if token == "" {
			logger.Warn("WebSocket connection rejected: missing token", zap.String("clientID", clientID))
			return c.JSON(http.StatusUnauthorized, ErrorResponse{
				Error:   "missing_token",
				Message: "Client token is required",
			})
		}

		if _, err := auth.ValidateClientToken(secret, token, clientID); err != nil {
			logger.Warn("WebSocket connection rejected: invalid token",
				zap.String("clientID", clientID),
				zap.Error(err))
			status := http.StatusUnauthorized
			if errors.Is(err, auth.ErrClientMismatch) {
				status = http.StatusForbidden
			}
			return c.JSON(status, ErrorResponse{
				Error:   "invalid_token",
				Message: "Invalid or expired client token",
			})
		}
	}

	return websocket.HandleWebSocket(hub, c, clientID)
}
