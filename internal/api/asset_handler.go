package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dutchcoders/go-clamd"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"devboard/internal/storage"
)

// 资产类别决定对象键前缀与允许的文件类型。
var assetKinds = map[string][]string{
	"resume": {".pdf", ".doc", ".docx"},
	"avatar": {".png", ".jpg", ".jpeg", ".webp"},
	"logo":   {".png", ".jpg", ".jpeg", ".webp", ".svg"},
}

// AssetHandler 负责简历、头像与 Logo 的上传与访问。
// 上传的对象对核心只是 opaque URL，原样写入职位与投递记录。
type AssetHandler struct {
	Storage          *storage.Client
	Logger           *slog.Logger
	ClamdAddr        string
	Redis            *redis.Client
	MaxBytes         int64
	MaxUploadsPerDay int
}

// NewAssetHandler 返回 AssetHandler 实例。
func NewAssetHandler(storageClient *storage.Client, logger *slog.Logger, clamdAddr string, redisClient *redis.Client, maxBytes int64, maxUploadsPerDay int) *AssetHandler {
	return &AssetHandler{
		Storage:          storageClient,
		Logger:           logger,
		ClamdAddr:        clamdAddr,
		Redis:            redisClient,
		MaxBytes:         maxBytes,
		MaxUploadsPerDay: maxUploadsPerDay,
	}
}

// UploadAsset 处理受保护的文件上传，并在上传前扫描病毒。
func (h *AssetHandler) UploadAsset(c *gin.Context) {
	ident, ok := identityFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}
	userID := ident.UserID

	kind := strings.ToLower(c.DefaultPostForm("kind", "resume"))
	allowedExts, ok := assetKinds[kind]
	if !ok {
		BadRequest(c, "unknown asset kind")
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		BadRequest(c, "missing file")
		return
	}
	if h.MaxBytes > 0 && file.Size > h.MaxBytes {
		BadRequest(c, "file too large")
		return
	}

	ext := strings.ToLower(fileExt(file.Filename))
	if !containsString(allowedExts, ext) {
		BadRequest(c, fmt.Sprintf("file type %s not allowed for %s", ext, kind))
		return
	}

	// 每用户每日配额
	if h.Redis != nil && h.MaxUploadsPerDay > 0 {
		quotaKey := fmt.Sprintf("rate:upload:%d:%s", userID, time.Now().UTC().Format("20060102"))
		count, err := incrWithTTL(c.Request.Context(), h.Redis, quotaKey, 24*time.Hour)
		if err == nil && count > int64(h.MaxUploadsPerDay) {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "daily upload quota exceeded"})
			return
		}
	}

	if h.ClamdAddr != "" {
		clamdClient := clamd.NewClamd(h.ClamdAddr)

		fileReader, err := file.Open()
		if err != nil {
			Internal(c, "failed to open file")
			return
		}

		abortChan := make(chan bool)
		scanChan, err := clamdClient.ScanStream(fileReader, abortChan)
		fileReader.Close()
		if err != nil {
			h.Logger.Error("scan file", slog.String("error", err.Error()))
			Internal(c, "failed to scan file")
			return
		}
		defer close(abortChan)

		for result := range scanChan {
			if result.Status != clamd.RES_OK {
				BadRequest(c, "malicious file detected")
				return
			}
		}
	}

	fileReader, err := file.Open()
	if err != nil {
		Internal(c, "failed to reopen file")
		return
	}
	defer fileReader.Close()

	objectKey := fmt.Sprintf("user-assets/%d/%s/%s%s", userID, kind, uuid.NewString(), ext)
	contentType := file.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	if _, err := h.Storage.UploadFile(c.Request.Context(), objectKey, fileReader, file.Size, contentType); err != nil {
		h.Logger.Error("upload file", slog.String("error", err.Error()))
		Internal(c, "failed to upload file")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"objectKey": objectKey,
		"url":       h.Storage.PublicURL(objectKey),
	})
}

// GetAssetURL 返回资产的临时预签名 URL。
func (h *AssetHandler) GetAssetURL(c *gin.Context) {
	ident, ok := identityFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	objectKey := c.Query("key")
	if !isValidUserAssetObjectKey(ident.UserID, objectKey) {
		Forbidden(c, "access denied")
		return
	}

	signedURL, err := h.Storage.GeneratePresignedURL(c.Request.Context(), objectKey, 15*time.Minute)
	if err != nil {
		h.Logger.Error("generate presigned url", slog.String("error", err.Error()))
		Internal(c, "failed to generate url")
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": signedURL})
}

func fileExt(name string) string {
	idx := strings.LastIndex(name, ".")
	if idx < 0 {
		return ""
	}
	return name[idx:]
}

func containsString(list []string, target string) bool {
	for _, s := range list {
		if s == target {
			return true
		}
	}
	return false
}
