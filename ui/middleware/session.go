package middleware

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"vardrill/domain/core"
	"vardrill/internal/errors"
	"vardrill/internal/session"
)

const sessionKey = "drill_session"

// LoadSession resolves the :id path parameter to a live session and stores
// it on the context. Unknown ids end the request with 404.
func LoadSession(manager *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := core.ParseSessionID(c.Param("id"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": errors.CodeInvalidInput})
			return
		}
		s, err := manager.Get(c.Request.Context(), id)
		if err != nil {
			log.Printf("[LoadSession] session %s unavailable: %v", id, err)
			c.AbortWithStatusJSON(errors.HTTPStatus(err), gin.H{"error": err.Error(), "code": errors.GetCode(errors.Wrap(err, "session"))})
			return
		}
		c.Set(sessionKey, s)
		c.Next()
	}
}

// Session returns the session stored by LoadSession.
func Session(c *gin.Context) *session.Session {
	return c.MustGet(sessionKey).(*session.Session)
}
