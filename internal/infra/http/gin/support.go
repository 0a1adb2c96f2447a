package ginserver

import (
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	"buckler/internal/domain/shared/errs"
)

const (
	actorHeader       = "X-Actor-ID"
	idempotencyHeader = "Idempotency-Key"
)

// requireActor reads the caller id set by the gateway.
func requireActor(c *gin.Context) (string, bool) {
	actor := strings.TrimSpace(c.GetHeader(actorHeader))
	if actor == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "actor id required"})
		return "", false
	}
	return actor, true
}

func bindJSON(c *gin.Context, out any) bool {
	if err := c.ShouldBindJSON(out); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}
	return true
}

func writeError(c *gin.Context, err error) {
	status := errs.HTTPStatus(err)
	body := gin.H{"error": err.Error()}
	if kind := errs.KindOf(err); kind != nil {
		body["kind"] = kind.Error()
	}
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.JSON(status, body)
}
