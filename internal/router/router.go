package router

import (
	"fmt"
	"net/http"
	"time"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kubotadaichi/HealthManagement/internal/config"
	"github.com/kubotadaichi/HealthManagement/internal/handlers"
	"github.com/kubotadaichi/HealthManagement/internal/repository"
)

// Deps are the components the routes are served by.
type Deps struct {
	Log      *zap.Logger
	Config   *config.Config
	Repo     *repository.Repository
	Sessions handlers.SessionCompleter
	Pages    handlers.PageCreator
}

func keyFunc(c *gin.Context) string {
	return c.ClientIP()
}

func errorHandler(c *gin.Context, info ratelimit.Info) {
	c.JSON(http.StatusTooManyRequests, gin.H{
		"detail": fmt.Sprintf("Too many requests. Try again in %s.", time.Until(info.ResetTime).Round(time.Second)),
	})
}

// Setup builds the gin engine with all API routes registered.
func Setup(d Deps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLogger(d.Log))
	router.Use(SecureHeaders())

	healthHandler := handlers.NewHealthHandler(d.Log, d.Repo)
	pvtHandler := handlers.NewTaskHandler(d.Log, d.Repo.PVT)
	flankerHandler := handlers.NewTaskHandler(d.Log, d.Repo.Flanker)
	efsiHandler := handlers.NewTaskHandler(d.Log, d.Repo.EFSI)
	vasHandler := handlers.NewTaskHandler(d.Log, d.Repo.VAS)
	sessionHandler := handlers.NewSessionHandler(d.Log, d.Sessions)
	exportHandler := handlers.NewExportHandler(d.Log, d.Pages)

	router.GET("/", healthHandler.Root)
	router.GET("/health", healthHandler.Health)

	tasks := router.Group("/api/tasks")
	{
		tasks.POST("/pvt", pvtHandler.Create)
		tasks.GET("/pvt", pvtHandler.List)
		tasks.GET("/pvt/:id", pvtHandler.Get)

		tasks.POST("/flanker", flankerHandler.Create)
		tasks.GET("/flanker", flankerHandler.List)
		tasks.GET("/flanker/:id", flankerHandler.Get)

		tasks.POST("/efsi", efsiHandler.Create)
		tasks.GET("/efsi", efsiHandler.List)
		tasks.GET("/efsi/:id", efsiHandler.Get)

		tasks.POST("/vas", vasHandler.Create)
		tasks.GET("/vas", vasHandler.List)
		tasks.GET("/vas/:id", vasHandler.Get)

		tasks.POST("/all", sessionHandler.CreateSession)

		exportChain := []gin.HandlerFunc{}
		if limit := d.Config.Export.RateLimit; limit > 0 {
			rateLimitStore := ratelimit.InMemoryStore(&ratelimit.InMemoryOptions{
				Rate:  time.Minute,
				Limit: limit,
			})
			exportChain = append(exportChain, ratelimit.RateLimiter(rateLimitStore, &ratelimit.Options{
				ErrorHandler: errorHandler,
				KeyFunc:      keyFunc,
			}))
		}
		exportChain = append(exportChain, exportHandler.SaveToNotion)
		tasks.POST("/notion/save", exportChain...)
	}

	return router
}

// Handler is the full HTTP handler: the gin engine behind CORS.
func Handler(d Deps) http.Handler {
	return CORS(d.Config.CORS, Setup(d))
}
