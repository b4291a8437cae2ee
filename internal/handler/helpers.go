package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"strive/meetuphub/internal/handler/middleware"
	"strive/meetuphub/internal/service"
	jwtpkg "strive/meetuphub/pkg/jwt"
	"strive/meetuphub/pkg/response"
)

var ErrNoClaims = errors.New("claims not found in context")

func getUserIDFromContext(c *gin.Context) (uuid.UUID, error) {
	claimsVal, exists := c.Get(middleware.ContextKeyUserClaims)
	if !exists {
		return uuid.Nil, ErrNoClaims
	}
	claims, ok := claimsVal.(*jwtpkg.Claims)
	if !ok {
		return uuid.Nil, ErrNoClaims
	}
	return uuid.Parse(claims.Subject)
}

// writeServiceError maps service sentinels onto the HTTP surface. Lock
// timeouts are the one retryable condition and get 503; business conflicts
// get 409.
func writeServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, service.ErrForbidden):
		response.Forbidden(c, err.Error())
	case errors.Is(err, service.ErrValidation):
		response.BadRequest(c, err.Error())
	case errors.Is(err, service.ErrMeetupInvalidState),
		errors.Is(err, service.ErrParticipationInvalidState),
		errors.Is(err, service.ErrDeadlinePassed),
		errors.Is(err, service.ErrDuplicateParticipation),
		errors.Is(err, service.ErrCapacityExceeded),
		errors.Is(err, service.ErrEditConflict):
		response.Conflict(c, err.Error())
	case errors.Is(err, service.ErrLockTimeout):
		response.ServiceUnavailable(c, err.Error())
	default:
		response.InternalError(c, "internal server error")
	}
}
