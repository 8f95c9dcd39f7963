package service

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"sfu-globe/pkg/config"
	"sfu-globe/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrFileTooLarge        = errors.New("file is too large")
	ErrFileNotFound        = errors.New("file not found")
)

// FileService 头像文件存储
type FileService struct {
	basePath    string
	maxFileSize int64
}

// FileInfo 包含文件的元数据
type FileInfo struct {
	ID       string
	Name     string
	Path     string
	Size     int64
	MimeType string
}

func NewFileService(cfg config.FileConfig) (*FileService, error) {
	basePath := cfg.StoragePath
	if basePath == "" {
		basePath = "uploads"
	}

	// 确保目录存在
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	return &FileService{basePath: basePath, maxFileSize: cfg.MaxFileSize}, nil
}

// StoreAvatar 保存上传的头像，只接受图片
func (s *FileService) StoreAvatar(file *multipart.FileHeader, userID uuid.UUID) (*FileInfo, error) {
	fileExt := strings.ToLower(filepath.Ext(file.Filename))
	mimeType := determineMimeType(fileExt)
	if !strings.HasPrefix(mimeType, "image/") {
		return nil, ErrUnsupportedFileType
	}
	if s.maxFileSize > 0 && file.Size > s.maxFileSize {
		return nil, ErrFileTooLarge
	}

	src, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	// 原始文件名+时间戳+用户ID 的哈希作为文件ID
	h := sha256.New()
	io.WriteString(h, fmt.Sprintf("%s%d%s", file.Filename, time.Now().UnixNano(), userID))
	hash := fmt.Sprintf("%x", h.Sum(nil))[:12]

	userPath := filepath.Join(s.basePath, userID.String())
	if err := os.MkdirAll(userPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create user storage directory: %w", err)
	}

	filename := hash + fileExt
	filePath := filepath.Join(userPath, filename)

	dst, err := os.Create(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	defer dst.Close()

	if _, err = io.Copy(dst, src); err != nil {
		return nil, fmt.Errorf("failed to save file: %w", err)
	}

	info := &FileInfo{
		ID:       filename,
		Name:     file.Filename,
		Path:     filePath,
		Size:     file.Size,
		MimeType: mimeType,
	}

	logger.L.Info("Avatar stored",
		zap.String("id", info.ID),
		zap.Int64("size", info.Size),
		zap.String("userID", userID.String()))

	return info, nil
}

// GetFilePath 返回头像文件路径，fileID 不能包含路径分隔符
func (s *FileService) GetFilePath(userID uuid.UUID, fileID string) (string, error) {
	if fileID == "" || fileID != filepath.Base(fileID) || strings.HasPrefix(fileID, ".") {
		return "", ErrFileNotFound
	}
	path := filepath.Join(s.basePath, userID.String(), fileID)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return "", ErrFileNotFound
		}
		return "", fmt.Errorf("failed to stat file: %w", err)
	}
	return path, nil
}

// 确定文件的MIME类型
func determineMimeType(fileExt string) string {
	mimeType := "application/octet-stream" // 默认类型
	switch strings.ToLower(fileExt) {
	case ".jpg", ".jpeg":
		mimeType = "image/jpeg"
	case ".png":
		mimeType = "image/png"
	case ".gif":
		mimeType = "image/gif"
	case ".webp":
		mimeType = "image/webp"
	}
	return mimeType
}
