package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/buildingassets/buildingchat/internal/middleware"
	"github.com/buildingassets/buildingchat/internal/pkg/errcode"
	appErr "github.com/buildingassets/buildingchat/internal/pkg/errors"
	"github.com/buildingassets/buildingchat/internal/pkg/response"
)

func getUserID(c *gin.Context) string {
	value, _ := c.Get(middleware.ContextUserIDKey)
	userID, _ := value.(string)
	return userID
}

func getOrgID(c *gin.Context) int64 {
	value, _ := c.Get(middleware.ContextOrgIDKey)
	orgID, _ := value.(int64)
	return orgID
}

func getRequestID(c *gin.Context) string {
	value, _ := c.Get(middleware.ContextRequestIDKey)
	id, _ := value.(string)
	return id
}

func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	logutil.GetLogger(c.Request.Context()).Error("request failed",
		zap.String("request_id", getRequestID(c)),
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.String("user_id", getUserID(c)),
		zap.Error(err))
	switch {
	case errors.Is(err, appErr.ErrUnauthorized):
		response.Error(c, errcode.ErrUnauthorized, "unauthorized")
	case errors.Is(err, appErr.ErrForbidden), errors.Is(err, appErr.ErrAccessDenied):
		response.Error(c, errcode.ErrForbidden, "forbidden")
	case errors.Is(err, appErr.ErrNotFound):
		response.Error(c, errcode.ErrNotFound, "not found")
	case errors.Is(err, appErr.ErrInvalid):
		response.Error(c, errcode.ErrInvalid, "invalid request")
	case errors.Is(err, appErr.ErrGeneration):
		response.Error(c, errcode.ErrGenerationFailed, "generation failed")
	default:
		response.Error(c, errcode.ErrInternal, "internal error")
	}
}
