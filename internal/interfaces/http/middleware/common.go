package middleware

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/bizledger/backend/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDHeader is the header carrying the request ID
const RequestIDHeader = "X-Request-ID"

// ActorIDHeader is the header carrying the acting user's ID.
// There is no authentication layer; the caller identifies the actor
// explicitly on every mutating request.
const ActorIDHeader = "X-Actor-ID"

// RequestID returns a middleware that generates or propagates a request ID
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = generateRequestID()
		}
		c.Set("request_id", requestID)
		c.Writer.Header().Set(RequestIDHeader, requestID)

		ctx, _ := logger.WithRequestID(c.Request.Context(), logger.FromContext(c.Request.Context()), requestID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// Actor returns a middleware that resolves the acting user from the
// X-Actor-ID header into the request context. Requests without the header
// pass through; handlers that require an actor reject them.
func Actor() gin.HandlerFunc {
	return func(c *gin.Context) {
		if raw := c.GetHeader(ActorIDHeader); raw != "" {
			if actorID, err := uuid.Parse(raw); err == nil {
				c.Set("actor_id", actorID)
				ctx, _ := logger.WithActorID(c.Request.Context(), logger.FromContext(c.Request.Context()), actorID.String())
				c.Request = c.Request.WithContext(ctx)
			}
		}
		c.Next()
	}
}

// GetActorID extracts the acting user's ID from the gin context
func GetActorID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get("actor_id")
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

func generateRequestID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return uuid.New().String()
	}
	return hex.EncodeToString(b)
}
