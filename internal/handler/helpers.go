package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"fieldpulse/surveyhub/internal/handler/middleware"
	"fieldpulse/surveyhub/internal/service"
	jwtpkg "fieldpulse/surveyhub/pkg/jwt"
	"fieldpulse/surveyhub/pkg/response"
)

var ErrNoClaims = errors.New("claims not found in context")

func claimsFromContext(c *gin.Context) (*jwtpkg.Claims, error) {
	claimsVal, exists := c.Get(middleware.ContextKeyUserClaims)
	if !exists {
		return nil, ErrNoClaims
	}
	claims, ok := claimsVal.(*jwtpkg.Claims)
	if !ok {
		return nil, ErrNoClaims
	}
	return claims, nil
}

func usernameFromContext(c *gin.Context) string {
	claims, err := claimsFromContext(c)
	if err != nil {
		return ""
	}
	return claims.Username
}

func paginationParams(c *gin.Context) (page, pageSize int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "50"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 500 {
		pageSize = 50
	}
	return page, pageSize
}

func parseIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.BadRequest(c, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// respondServiceError maps service sentinels onto HTTP statuses. Anything
// unrecognized is a 500 with a generic message so internals never leak.
func respondServiceError(c *gin.Context, err error) {
	var transitionErr *service.TransitionError
	switch {
	case errors.Is(err, service.ErrTemplateNotFound),
		errors.Is(err, service.ErrSurveyNotFound),
		errors.Is(err, service.ErrTokenNotFound),
		errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, service.ErrTemplateDeleted):
		response.NotFound(c, err.Error())
	case errors.Is(err, service.ErrDuplicateTemplateName),
		errors.Is(err, service.ErrConcurrentModification):
		response.Conflict(c, err.Error())
	case errors.Is(err, service.ErrEditLocked),
		errors.Is(err, service.ErrFormIDImmutable),
		errors.Is(err, service.ErrInvalidStatus),
		errors.Is(err, service.ErrMissingToken):
		response.BadRequest(c, err.Error())
	case errors.As(err, &transitionErr):
		response.BadRequest(c, err.Error())
	case errors.Is(err, service.ErrTokenExpired),
		errors.Is(err, service.ErrTokenFinalized),
		errors.Is(err, service.ErrTokenFailed):
		response.Forbidden(c, err.Error())
	default:
		response.InternalError(c, "internal error")
	}
}
