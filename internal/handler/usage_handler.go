package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/buildingassets/buildingchat/internal/pkg/response"
	"github.com/buildingassets/buildingchat/internal/usage"
)

type UsageHandler struct {
	monitor *usage.Monitor
}

func NewUsageHandler(monitor *usage.Monitor) *UsageHandler {
	return &UsageHandler{monitor: monitor}
}

func (h *UsageHandler) Report(c *gin.Context) {
	response.Success(c, h.monitor.Report())
}
