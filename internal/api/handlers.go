package api

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"counselgo/internal/models"
	"counselgo/internal/service/counselor"
	"counselgo/internal/service/record"
	"counselgo/internal/worker"
)

// SessionHandler runs the per-session conversation flow. Split out as an
// interface so handler tests can substitute fakes for the orchestrator.
type SessionHandler interface {
	StartSession(ctx context.Context, profile models.Profile) (*models.Session, *models.Message, error)
	HandleMessage(ctx context.Context, sessionID, text string) (*models.Message, error)
}

// Handler wires HTTP routes to the counseling services.
type Handler struct {
	orchestrator SessionHandler
	store        *record.Store
	workers      *worker.Manager
	fileBase     string
}

// NewHandler constructs a Handler instance.
func NewHandler(orchestrator *counselor.Orchestrator, store *record.Store, workers *worker.Manager, fileBase string) *Handler {
	return &Handler{
		orchestrator: orchestrator,
		store:        store,
		workers:      workers,
		fileBase:     fileBase,
	}
}

// RegisterRoutes attaches all HTTP routes to the router.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api")
	api.POST("/submit_questionnaire", h.submitQuestionnaire)
	api.POST("/send_message", h.sendMessage)
	api.GET("/get_chat_history/:session_id", h.getChatHistory)
	api.POST("/resume/upload", h.uploadResume)
	api.GET("/roadmap/:session_id", h.getRoadmap)
}

var (
	validLevels = map[string]bool{"class_10": true, "class_11": true, "class_12": true}
	validYears  = map[string]bool{"first_year": true, "second_year": true, "third_year": true, "fourth_year": true}
	validFields = map[string]bool{"engineering": true, "medical": true, "business": true, "arts": true, "science": true}
)

type questionnaireRequest struct {
	Name     string `json:"name"`
	Age      int    `json:"age"`
	Status   string `json:"status"`
	Level    string `json:"level"`
	Year     string `json:"year"`
	Field    string `json:"field"`
	Concerns string `json:"concerns"`
}

func (r questionnaireRequest) validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return errors.New("name is required")
	}
	if r.Age <= 0 {
		return errors.New("age must be positive")
	}
	if !models.ValidStatus(models.Status(r.Status)) {
		return fmt.Errorf("invalid status: %q", r.Status)
	}
	if r.Level != "" && !validLevels[r.Level] {
		return fmt.Errorf("invalid level: %q", r.Level)
	}
	if r.Year != "" && !validYears[r.Year] {
		return fmt.Errorf("invalid year: %q", r.Year)
	}
	if r.Field != "" && !validFields[r.Field] {
		return fmt.Errorf("invalid field: %q", r.Field)
	}
	return nil
}

func (h *Handler) submitQuestionnaire(c *gin.Context) {
	var req questionnaireRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid request body"})
		return
	}
	if err := req.validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}
	profile := models.Profile{
		Name:     strings.TrimSpace(req.Name),
		Age:      req.Age,
		Status:   models.Status(req.Status),
		Level:    req.Level,
		Year:     req.Year,
		Field:    req.Field,
		Concerns: req.Concerns,
	}
	session, _, err := h.orchestrator.StartSession(c.Request.Context(), profile)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"success":    true,
		"session_id": session.ID,
	})
}

type sendMessageRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

func (h *Handler) sendMessage(c *gin.Context) {
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid request body"})
		return
	}
	if strings.TrimSpace(req.SessionID) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "session_id is required"})
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "message is required"})
		return
	}

	release, err := h.workers.Acquire(c.Request.Context(), req.SessionID)
	if err != nil {
		c.JSON(http.StatusTooManyRequests, gin.H{"success": false, "error": "session is busy, please retry"})
		return
	}
	defer release()

	aiMessage, err := h.orchestrator.HandleMessage(c.Request.Context(), req.SessionID, req.Message)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Session not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"success":     true,
		"ai_response": aiMessage,
	})
}

func (h *Handler) getChatHistory(c *gin.Context) {
	sessionID := c.Param("session_id")
	session, err := h.store.GetSession(c.Request.Context(), sessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Session not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	messages, err := h.store.ListMessages(c.Request.Context(), sessionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	if messages == nil {
		messages = make([]*models.Message, 0)
	}
	c.JSON(http.StatusOK, gin.H{
		"session_id": session.ID,
		"name":       session.Profile.Name,
		"status":     session.Profile.Status,
		"messages":   messages,
	})
}

func (h *Handler) getRoadmap(c *gin.Context) {
	sessionID := c.Param("session_id")
	session, err := h.store.GetSession(c.Request.Context(), sessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !session.HasRoadmap() {
		c.JSON(http.StatusNotFound, gin.H{"error": "Roadmap not generated yet."})
		return
	}
	c.Data(http.StatusOK, "application/json", session.RoadmapData)
}

const maxResumeBytes = 10 << 20 // 10 MB

var allowedResumeTypes = []string{
	"application/pdf",
	"text/plain",
	"text/markdown",
}

func isAllowedResumeType(ct string) bool {
	for _, allowed := range allowedResumeTypes {
		if strings.HasPrefix(ct, allowed) {
			return true
		}
	}
	return false
}

func (h *Handler) uploadResume(c *gin.Context) {
	if err := c.Request.ParseMultipartForm(maxResumeBytes); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid multipart form"})
		return
	}
	sessionID := c.PostForm("session_id")
	if strings.TrimSpace(sessionID) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Session ID and resume file are required."})
		return
	}
	file, err := c.FormFile("resume")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Session ID and resume file are required."})
		return
	}
	if file.Size > maxResumeBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"success": false, "error": "file too large"})
		return
	}

	if _, err := h.store.GetSession(c.Request.Context(), sessionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Session not found."})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "open file failed"})
		return
	}
	buf := make([]byte, 512)
	n, _ := f.Read(buf)
	_ = f.Close()
	contentType := http.DetectContentType(buf[:n])
	if !isAllowedResumeType(contentType) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "unsupported file type"})
		return
	}

	release, err := h.workers.Acquire(c.Request.Context(), sessionID)
	if err != nil {
		c.JSON(http.StatusTooManyRequests, gin.H{"success": false, "error": "session is busy, please retry"})
		return
	}
	defer release()

	filename := filepath.Base(file.Filename)
	destDir, destPath, finalName := h.getUniqueFilePath(sessionID, filename)
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "create directory failed"})
		return
	}
	if err := c.SaveUploadedFile(file, destPath); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "save file failed"})
		return
	}
	if err := h.store.AttachResume(c.Request.Context(), sessionID, destPath); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	ack := fmt.Sprintf("Thank you for uploading your resume, '%s'. I will review it now. What specific roles are you interested in?", finalName)
	aiMessage, err := h.store.AppendMessage(c.Request.Context(), sessionID, models.SenderAI, ack)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"message":     "Resume uploaded successfully.",
		"file":        models.ResumeFile{FileName: finalName, StoredPath: destPath, MimeType: contentType, Size: file.Size},
		"ai_response": aiMessage,
	})
}

func (h *Handler) getFilePath(sessionID, filename string) (string, string) {
	destDir := filepath.Join(h.fileBase, sessionID)
	destPath := filepath.Join(destDir, filename)
	return destDir, destPath
}

func (h *Handler) getUniqueFilePath(sessionID, filename string) (string, string, string) {
	destDir, destPath := h.getFilePath(sessionID, filename)
	if _, err := os.Stat(destPath); os.IsNotExist(err) {
		return destDir, destPath, filename
	}
	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filename, ext)
	for idx := 1; idx <= 1000; idx++ {
		candidate := fmt.Sprintf("%s (%d)%s", base, idx, ext)
		dir, path := h.getFilePath(sessionID, candidate)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return dir, path, candidate
		}
	}
	stamped := fmt.Sprintf("%s-%d%s", base, time.Now().UnixNano(), ext)
	return destDir, filepath.Join(destDir, stamped), stamped
}
