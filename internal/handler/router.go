package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/buildingassets/buildingchat/internal/middleware"
)

type RouterDeps struct {
	Chat      *ChatHandler
	Files     *FileHandler
	Usage     *UsageHandler
	JWTSecret []byte
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	authGroup := api.Group("")
	authGroup.Use(middleware.JWTAuth(deps.JWTSecret))

	authGroup.POST("/chat", deps.Chat.Chat)
	authGroup.POST("/files/upload", deps.Files.Upload)
	authGroup.POST("/files/process", deps.Files.Process)
	authGroup.GET("/usage/report", deps.Usage.Report)
}
