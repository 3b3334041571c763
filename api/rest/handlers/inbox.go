package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go"

	apierrors "github.com/customeros/mailrefresh/api/errors"
	"github.com/customeros/mailrefresh/dto"
	"github.com/customeros/mailrefresh/interfaces"
	"github.com/customeros/mailrefresh/internal/tracing"
	"github.com/customeros/mailrefresh/internal/utils"
)

// RefreshInbox runs one refresh cycle synchronously
func RefreshInbox(inbox interfaces.InboxService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := utils.WithRunId(c.Request.Context(), utils.GenerateNanoIdWithPrefix("refresh", 16))
		span, ctx := opentracing.StartSpanFromContext(ctx, "Handlers.RefreshInbox")
		defer span.Finish()
		tracing.SetDefaultRestSpanTags(ctx, span)

		if err := inbox.RefreshInbox(ctx); err != nil {
			tracing.TraceErr(span, err)
			c.JSON(apierrors.StatusCode(err), apierrors.NewErrorResponse(err))
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status": "refreshed",
			"runId":  utils.GetRunIdFromContext(ctx),
		})
	}
}

// RequestInboxRefresh queues a refresh on the message bus and returns immediately
func RequestInboxRefresh(publisher interfaces.RefreshRequestPublisher) gin.HandlerFunc {
	return func(c *gin.Context) {
		span, ctx := opentracing.StartSpanFromContext(c.Request.Context(), "Handlers.RequestInboxRefresh")
		defer span.Finish()
		tracing.SetDefaultRestSpanTags(ctx, span)

		if publisher == nil {
			c.JSON(http.StatusServiceUnavailable, apierrors.ErrorResponse{Error: "message queue not configured"})
			return
		}

		var request dto.InboxRefreshRequested
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&request); err != nil {
				c.JSON(http.StatusBadRequest, apierrors.ErrorResponse{Error: "invalid request body"})
				return
			}
		}
		if request.RequestedBy == "" {
			request.RequestedBy = utils.GetAppSourceFromContext(ctx)
		}

		if err := publisher.PublishInboxRefreshRequested(ctx, request); err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusInternalServerError, apierrors.NewErrorResponse(err))
			return
		}

		c.JSON(http.StatusAccepted, gin.H{"status": "queued"})
	}
}
