package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/dshills/phraseclip/internal/logger"
	"github.com/dshills/phraseclip/internal/observe"
)

// RouterConfig wires the router's dependencies. Optional parts are skipped
// when left empty.
type RouterConfig struct {
	Handler     *PhraseHandler
	APIPrefix   string
	CORSOrigins []string
	ClipsDir    string
	FrontendDir string
	Metrics     *observe.Metrics
	MetricsHTTP http.Handler
	Logger      *logger.Logger
}

// NewRouter builds the gin engine
func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(RequestLogger(cfg.Logger))
	r.Use(Metrics(cfg.Metrics))
	r.Use(CORS(cfg.CORSOrigins))

	prefix := "/" + strings.Trim(cfg.APIPrefix, "/")
	if prefix == "/" {
		prefix = "/api"
	}

	api := r.Group(prefix)
	{
		api.GET("/search", cfg.Handler.Search)
		api.GET("/clip/:id", cfg.Handler.GetClip)
		api.GET("/stats", cfg.Handler.Stats)
		api.GET("/health", cfg.Handler.Health)
	}

	r.GET("/readyz", cfg.Handler.Ready)

	if cfg.MetricsHTTP != nil {
		r.GET("/metrics", gin.WrapH(cfg.MetricsHTTP))
	}

	if cfg.ClipsDir != "" {
		r.Static("/clips", cfg.ClipsDir)
	}

	// The frontend owns every path the API does not
	if cfg.FrontendDir != "" {
		r.NoRoute(gin.WrapH(http.FileServer(http.Dir(cfg.FrontendDir))))
	}

	return r
}
