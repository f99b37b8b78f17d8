package handler

import (
	"net/http"
	"strings"
	"time"

	"case-chat/internal/logger"
	"case-chat/internal/model"
	"case-chat/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// APIHandler serves the server's own /api routes.
type APIHandler struct {
	pingMessage string
}

func NewAPIHandler(pingMessage string) *APIHandler {
	return &APIHandler{pingMessage: pingMessage}
}

// GET /api/ping
func (h *APIHandler) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": h.pingMessage})
}

// POST /api/signup validates a signup form locally and answers with a
// generated user. Nothing is stored.
func (h *APIHandler) Signup(c *gin.Context) {
	var form model.SignupForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	req, err := model.ValidateSignup(form)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	logger.Info("signup.demo", "email", req.Email)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Account created successfully",
		"user": gin.H{
			"id":        uuid.NewString(),
			"name":      req.Name,
			"email":     req.Email,
			"age":       req.Age,
			"gender":    req.Gender,
			"createdAt": time.Now().UTC().Format(time.RFC3339),
		},
	})
}

// POST /api/chat  body: {"message":"...","conversationId":"..."}
func (h *APIHandler) Chat(c *gin.Context) {
	var req struct {
		Message        string `json:"message"`
		ConversationID string `json:"conversationId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Message) == "" || req.ConversationID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"conversationId": req.ConversationID,
		"response":       service.DemoReply(req.Message),
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
	})
}
