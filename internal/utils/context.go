package utils

import (
	"context"

	"github.com/gin-gonic/gin"
)

type CustomContext struct {
	AppSource string
	RunId     string
}

type customContextKeyType string

const customContextKey customContextKeyType = "CUSTOM_CONTEXT"

func WithCustomContext(ctx context.Context, customContext *CustomContext) context.Context {
	return context.WithValue(ctx, customContextKey, customContext)
}

func WithCustomContextFromGinRequest(c *gin.Context, appSource string) context.Context {
	customContext := &CustomContext{
		AppSource: appSource,
	}
	return WithCustomContext(c.Request.Context(), customContext)
}

// WithRunId returns a copy of ctx whose custom context carries the given refresh run id.
func WithRunId(ctx context.Context, runId string) context.Context {
	current := GetContext(ctx)
	next := *current
	next.RunId = runId
	return WithCustomContext(ctx, &next)
}

func GetContext(ctx context.Context) *CustomContext {
	customContext, ok := ctx.Value(customContextKey).(*CustomContext)
	if !ok {
		return new(CustomContext)
	}
	return customContext
}

func GetAppSourceFromContext(ctx context.Context) string {
	return GetContext(ctx).AppSource
}

func GetRunIdFromContext(ctx context.Context) string {
	return GetContext(ctx).RunId
}
