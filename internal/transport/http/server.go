package http

import (
	stdhttp "net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/chromechat/internal/config"
	"github.com/vovakirdan/chromechat/internal/core"
)

// LivenessText is returned by the root endpoint.
const LivenessText = "Chrome Chat Server is running"

const indexFile = "index.html"

// NewServer builds an HTTP server with the relay routes.
func NewServer(hub *core.Hub, cfg *config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(CORSMiddleware())
	router.Use(LoggerMiddleware(logger))

	router.GET("/", rootHandler)
	router.GET("/health", healthHandler)
	router.NoRoute(staticFallback(cfg.StaticDir, logger))

	// The upgrade hijacks the raw connection, so it bypasses gin's writer.
	mux := stdhttp.NewServeMux()
	mux.Handle("/ws", NewWSHandler(hub, cfg.MaxMessageBytes, logger))
	mux.Handle("/", router)

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func rootHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, LivenessText)
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}

// staticFallback serves the pre-built UI bundle for any unmatched path.
func staticFallback(dir string, logger *zerolog.Logger) gin.HandlerFunc {
	index := filepath.Join(dir, indexFile)
	return func(c *gin.Context) {
		if _, err := os.Stat(index); err != nil {
			logger.Debug().Err(err).Str("path", index).Msg("ui bundle not found")
			c.String(stdhttp.StatusNotFound, "not found")
			return
		}
		c.File(index)
	}
}
