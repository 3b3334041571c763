package api

import (
	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go"

	"github.com/customeros/mailrefresh/api/middleware"
	"github.com/customeros/mailrefresh/api/rest/handlers"
	"github.com/customeros/mailrefresh/interfaces"
	"github.com/customeros/mailrefresh/internal/tracing"
)

const (
	APIKeyHeader  = "X-MAILREFRESH-API-KEY"
	appSourceREST = "api"
)

// RegisterRoutes sets up all API endpoints. publisher may be nil when no
// message queue is configured.
func RegisterRoutes(r *gin.Engine, inbox interfaces.InboxService, publisher interfaces.RefreshRequestPublisher, apikey string) {
	if inbox == nil {
		panic("Inbox service cannot be nil")
	}

	// Add recovery middlewares
	r.Use(gin.Recovery())
	r.Use(tracing.RecoveryWithJaeger(opentracing.GlobalTracer()))

	r.GET("/health", handlers.HealthCheck)

	apiKeyMiddleware := middleware.APIKeyMiddleware(middleware.APIKeyConfig{
		HeaderName:  APIKeyHeader,
		ValidAPIKey: apikey,
	})

	api := r.Group("/v1")
	api.Use(apiKeyMiddleware)
	api.Use(middleware.CustomContextMiddleware(appSourceREST))
	api.Use(middleware.TracingMiddleware())
	{
		inboxGroup := api.Group("/inbox")
		{
			inboxGroup.POST("/refresh", handlers.RefreshInbox(inbox))
			inboxGroup.POST("/refresh/async", handlers.RequestInboxRefresh(publisher))
		}
	}
}
