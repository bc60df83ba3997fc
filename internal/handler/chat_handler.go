package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/buildingassets/buildingchat/internal/model"
	"github.com/buildingassets/buildingchat/internal/pkg/errcode"
	appErr "github.com/buildingassets/buildingchat/internal/pkg/errors"
	"github.com/buildingassets/buildingchat/internal/pkg/response"
	"github.com/buildingassets/buildingchat/internal/service"
)

type ChatHandler struct {
	chats *service.ChatService
}

func NewChatHandler(chats *service.ChatService) *ChatHandler {
	return &ChatHandler{chats: chats}
}

func (h *ChatHandler) Chat(c *gin.Context) {
	var req model.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	// The token decides the tenant, not the request body.
	if orgID := getOrgID(c); orgID != 0 && orgID != req.OrgID {
		handleError(c, appErr.ErrAccessDenied)
		return
	}
	resp, err := h.chats.Chat(c.Request.Context(), &req)
	if err != nil {
		if appErr.IsGeneration(err) && resp != nil {
			// generation failure is the one user-visible pipeline error;
			// the apology and the usage snapshot still go out
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":      resp.Response,
				"metadata":   resp.Metadata,
				"request_id": resp.RequestID,
				"status":     "error",
			})
			return
		}
		handleError(c, err)
		return
	}
	response.Success(c, resp)
}
