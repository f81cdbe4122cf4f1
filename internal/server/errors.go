package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/abhisek/eduforge/internal/content"
	"github.com/abhisek/eduforge/internal/llm"
)

type apiError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type errorEnvelope struct {
	Error apiError `json:"error"`
}

func respondError(c *gin.Context, status int, kind, msg string) {
	c.AbortWithStatusJSON(status, errorEnvelope{Error: apiError{Kind: kind, Message: msg}})
}

// respondRunError maps a pipeline error onto a status code. Parse failures
// get a fixed message so raw model output never reaches the client.
func respondRunError(c *gin.Context, err error) {
	kind := content.Kind(err)
	status, msg := http.StatusInternalServerError, "internal error"

	switch kind {
	case content.KindInvalidInput:
		status, msg = http.StatusUnprocessableEntity, err.Error()
	case content.KindProvider:
		status, msg = http.StatusBadGateway, err.Error()
		var rl *llm.ErrRateLimit
		if errors.As(err, &rl) {
			status = http.StatusTooManyRequests
		}
	case content.KindGenerationParseError:
		status, msg = http.StatusBadGateway, "generated content could not be parsed"
	case content.KindReviewParseError:
		status, msg = http.StatusBadGateway, "review verdict could not be parsed"
	case content.KindTimeout:
		status, msg = http.StatusGatewayTimeout, "request timed out"
	}

	respondError(c, status, string(kind), msg)
}
