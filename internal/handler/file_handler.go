package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"path"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/buildingassets/buildingchat/internal/filestore"
	"github.com/buildingassets/buildingchat/internal/invoke"
	"github.com/buildingassets/buildingchat/internal/model"
	"github.com/buildingassets/buildingchat/internal/pkg/errcode"
	"github.com/buildingassets/buildingchat/internal/pkg/response"
	"github.com/buildingassets/buildingchat/internal/repo"
	"github.com/buildingassets/buildingchat/internal/service"
)

type FileHandler struct {
	files   *repo.FileRepo
	blobs   filestore.Store
	invoker *invoke.Invoker
}

func NewFileHandler(files *repo.FileRepo, blobs filestore.Store, invoker *invoke.Invoker) *FileHandler {
	return &FileHandler{files: files, blobs: blobs, invoker: invoker}
}

// Upload stores the raw document and queues ingestion. The response
// returns immediately; chunking and indexing happen in the background.
func (h *FileHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, errcode.ErrInvalidFile, "file is required")
		return
	}
	buildingID, err := strconv.ParseInt(c.PostForm("building_id"), 10, 64)
	if err != nil || buildingID <= 0 {
		response.Error(c, errcode.ErrInvalid, "building_id is required")
		return
	}
	orgID := getOrgID(c)

	key := fmt.Sprintf("org%d/building%d/%s", orgID, buildingID, path.Base(fileHeader.Filename))
	if err := h.saveUpload(c.Request.Context(), key, fileHeader); err != nil {
		handleError(c, err)
		return
	}

	fileID, err := h.files.Create(c.Request.Context(), &model.Document{
		OrgID:      orgID,
		BuildingID: buildingID,
		FileName:   path.Base(fileHeader.Filename),
		FilePath:   key,
		FileType:   path.Ext(fileHeader.Filename),
		Status:     model.DocumentStatusProcessing,
		Source:     "upload",
	})
	if err != nil {
		handleError(c, err)
		return
	}

	payload := service.IngestRequest{OrgID: orgID, BuildingID: buildingID, FileID: fileID}
	if err := h.invoker.InvokeAsync(c.Request.Context(), service.IngestTarget, payload); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"file_id": fileID, "status": model.DocumentStatusProcessing})
}

func (h *FileHandler) saveUpload(ctx context.Context, key string, fh *multipart.FileHeader) error {
	src, err := fh.Open()
	if err != nil {
		return err
	}
	defer src.Close()
	return h.blobs.Save(ctx, key, src)
}

type processRequest struct {
	FileID     int64 `json:"file_id" binding:"required"`
	BuildingID int64 `json:"building_id" binding:"required"`
}

// Process runs ingestion synchronously and returns its stats. Used to
// reprocess a document or to block until indexing is done.
func (h *FileHandler) Process(c *gin.Context) {
	var req processRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	payload := service.IngestRequest{OrgID: getOrgID(c), BuildingID: req.BuildingID, FileID: req.FileID}
	result, err := h.invoker.Invoke(c.Request.Context(), service.IngestTarget, payload)
	if err != nil {
		handleError(c, err)
		return
	}
	var stats model.IngestStats
	if err := json.Unmarshal(result.Body, &stats); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"status": "success", "stats": stats})
}
