package api

import (
	"errors"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/LJTian/HeadlineCheck/internal/audio"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// analyzeAudio 接收 multipart 上传的 file 字段，分析完成后删除临时文件
func (s *Server) analyzeAudio(c *gin.Context) {
	if s.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxUploadBytes)
	}

	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "File too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}
	if fh.Filename == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file selected"})
		return
	}
	if !audio.AllowedFile(fh.Filename) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid file format"})
		return
	}

	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		log.Printf("api: create upload dir error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot store upload", "status": "failed"})
		return
	}
	// 存储名用随机 uuid，原文件名只用于回显
	dst := filepath.Join(s.uploadDir, uuid.NewString()+strings.ToLower(filepath.Ext(fh.Filename)))
	if err := c.SaveUploadedFile(fh, dst); err != nil {
		log.Printf("api: save upload error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot store upload", "status": "failed"})
		return
	}
	defer os.Remove(dst)

	a, err := s.detector.Analyze(dst)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, audio.ErrUnsupportedFormat) {
			status = http.StatusUnsupportedMediaType
		}
		log.Printf("api: analyze %s error: %v", fh.Filename, err)
		c.JSON(status, gin.H{"error": err.Error(), "status": "failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"filename":   filepath.Base(fh.Filename),
		"prediction": a.Prediction.Label,
		"confidence": a.Prediction.Confidence,
		"features":   a.Features,
		"status":     "success",
	})
}
