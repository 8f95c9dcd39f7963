package api

import (
	"fmt"
	"net/http"

	"sfu-globe/internal/service"
	"sfu-globe/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// FileHandler 头像上传和下载
type FileHandler struct {
	fileService    *service.FileService
	profileService *service.ProfileService
}

func NewFileHandler(fileService *service.FileService, profileService *service.ProfileService) *FileHandler {
	return &FileHandler{
		fileService:    fileService,
		profileService: profileService,
	}
}

// UploadAvatar 保存图片并更新 avatar_url
func (h *FileHandler) UploadAvatar(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return
	}

	// 从表单数据中获取文件
	file, err := c.FormFile("file")
	if err != nil {
		logger.L.Warn("Failed to get file from request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing or invalid file"})
		return
	}

	fileInfo, err := h.fileService.StoreAvatar(file, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	avatarURL := fmt.Sprintf("/api/avatars/%s/%s", userID, fileInfo.ID)
	if err := h.profileService.SetAvatar(c.Request.Context(), userID, avatarURL); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"avatar_url": avatarURL,
		"file_size":  fileInfo.Size,
		"mime_type":  fileInfo.MimeType,
	})
}

// DownloadAvatar 头像是公开的
func (h *FileHandler) DownloadAvatar(c *gin.Context) {
	userID, ok := getUUIDParam(c, "user_id")
	if !ok {
		return
	}

	filePath, err := h.fileService.GetFilePath(userID, c.Param("file_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.File(filePath)
}
