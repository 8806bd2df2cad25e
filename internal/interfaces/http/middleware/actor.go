package middleware

import (
	"net/http"
	"strings"

	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/erp/stockledger/internal/infrastructure/logger"
	"github.com/erp/stockledger/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Actor headers set by the calling application
const (
	HeaderActorID           = "X-Actor-ID"
	HeaderActorName         = "X-Actor-Name"
	HeaderActorCapabilities = "X-Actor-Capabilities"
)

// Gin context keys
const (
	ActorIDKey = "actor_id"
	actorKey   = "ledger_actor"
)

// MaxCapabilities bounds the capability list accepted from one header
const MaxCapabilities = 64

// Actor resolves the acting user from the actor headers. A request without
// X-Actor-ID runs as an anonymous actor holding no capabilities, so reads
// succeed and every guarded operation answers FORBIDDEN.
func Actor() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := shared.Actor{}
		if raw := strings.TrimSpace(c.GetHeader(HeaderActorID)); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponseWithRequestID(
					dto.ErrCodeBadRequest, "X-Actor-ID must be a UUID", getRequestID(c), nil))
				return
			}
			caps := ParseCapabilities(c.GetHeader(HeaderActorCapabilities))
			if len(caps) > MaxCapabilities {
				c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponseWithRequestID(
					dto.ErrCodeBadRequest, "Too many capabilities", getRequestID(c), nil))
				return
			}
			actor = shared.NewActor(id, strings.TrimSpace(c.GetHeader(HeaderActorName)), caps...)

			c.Set(ActorIDKey, id.String())
			ctx, reqLogger := logger.WithActorID(c.Request.Context(), logger.FromContext(c.Request.Context()), id.String())
			c.Set("logger", reqLogger)
			c.Request = c.Request.WithContext(ctx)
		}
		c.Set(actorKey, actor)
		c.Next()
	}
}

// ParseCapabilities splits a comma separated capability header, dropping
// blanks and duplicates
func ParseCapabilities(header string) []string {
	var caps []string
	seen := make(map[string]struct{})
	for _, part := range strings.Split(header, ",") {
		capability := strings.TrimSpace(part)
		if capability == "" {
			continue
		}
		if _, dup := seen[capability]; dup {
			continue
		}
		seen[capability] = struct{}{}
		caps = append(caps, capability)
	}
	return caps
}

// GetActor returns the actor resolved by the Actor middleware, or an
// anonymous actor
func GetActor(c *gin.Context) shared.Actor {
	if v, ok := c.Get(actorKey); ok {
		if actor, ok := v.(shared.Actor); ok {
			return actor
		}
	}
	return shared.Actor{}
}
