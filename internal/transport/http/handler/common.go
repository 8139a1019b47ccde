package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"notetutor/internal/ai"
	"notetutor/internal/app"
	"notetutor/internal/study"
	"notetutor/internal/transport/http/middleware"
	"notetutor/internal/transport/http/response"
)

const modelBusyMessage = "The AI model is temporarily busy. Please try again in a few seconds."

func getUserIDFromContext(c *gin.Context) (uint, bool) {
	userIDAny, exists := c.Get(middleware.ContextUserIDKey)
	if !exists {
		return 0, false
	}
	userID, ok := userIDAny.(uint)
	return userID, ok
}

func parseIDParam(c *gin.Context, name string) (uint, bool) {
	id64, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id64 == 0 {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid "+name)
		return 0, false
	}
	return uint(id64), true
}

// writeServiceError maps service errors onto the response envelope. notFoundCode
// lets each resource report its own not-found code.
func writeServiceError(c *gin.Context, err error, notFoundCode int, fallback string) {
	var genErr *ai.GenerationError
	var embedErr *ai.EmbeddingServiceError
	switch {
	case errors.Is(err, context.Canceled):
		// Client went away; nobody is listening for a body.
		c.Abort()
	case errors.Is(err, app.ErrInvalidInput):
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
	case errors.Is(err, app.ErrUnauthorized):
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, err.Error())
	case errors.Is(err, app.ErrNotFound):
		response.Error(c, http.StatusNotFound, notFoundCode, err.Error())
	case errors.Is(err, app.ErrExtraction):
		response.Error(c, http.StatusBadRequest, response.CodeExtractionFailed, "could not extract text from the PDF")
	case errors.Is(err, ai.ErrOverloaded):
		response.Error(c, http.StatusServiceUnavailable, response.CodeModelBusy, modelBusyMessage)
	case errors.Is(err, study.ErrMalformedGeneration):
		response.Error(c, http.StatusBadGateway, response.CodeMalformedGeneration, "the AI model returned an unusable result, please try again")
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &genErr), errors.As(err, &embedErr):
		response.Error(c, http.StatusBadGateway, response.CodeModelUnavailable, "the AI model is unavailable")
	default:
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, fallback)
	}
}

// formatSSE frames one event. Every line of data gets its own "data:" field,
// so clients rejoin them with "\n" and the text arrives unchanged.
func formatSSE(event, data string) []byte {
	var b strings.Builder
	if event != "" {
		b.WriteString("event: ")
		b.WriteString(event)
		b.WriteByte('\n')
	}
	data = strings.NewReplacer("\r\n", "\n", "\r", "\n").Replace(data)
	for _, line := range strings.Split(data, "\n") {
		b.WriteString("data: ")
		b.WriteString(line)
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	return []byte(b.String())
}
