package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/webapi/proxyutil"

	"github.com/buildingassets/buildingchat/internal/pkg/errcode"
)

type apiError struct {
	code uint32
	msg  string
}

func (e apiError) Error() string {
	return e.msg
}

// Code is read by proxyutil when it renders the error envelope.
func (e apiError) Code() uint32 {
	return e.code
}

func Success(c *gin.Context, data interface{}) {
	proxyutil.SuccessJson(c, data)
}

func Error(c *gin.Context, code int, message string) {
	proxyutil.FailJson(c, statusFor(code), apiError{code: uint32(code), msg: message})
}

func statusFor(code int) int {
	switch code {
	case errcode.ErrUnauthorized:
		return http.StatusUnauthorized
	case errcode.ErrForbidden:
		return http.StatusForbidden
	case errcode.ErrNotFound:
		return http.StatusNotFound
	case errcode.ErrInvalid, errcode.ErrInvalidFile:
		return http.StatusBadRequest
	case errcode.ErrTooMany:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
