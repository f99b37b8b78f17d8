package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"case-chat/internal/logger"
	"case-chat/internal/model"
	"case-chat/internal/service"

	"github.com/gin-gonic/gin"
)

// Route is one proxied webhook endpoint.
type Route struct {
	Method    string
	Path      string // under the /webhook group, same as the upstream endpoint
	Auth      bool
	Failure   string
	Multipart string // failure message for multipart bodies, "" if not accepted
}

var Routes = []Route{
	{Method: http.MethodPost, Path: "/login", Failure: "Failed to process login request"},
	{Method: http.MethodPost, Path: "/sign-up-user", Failure: "Failed to process sign up request"},
	{Method: http.MethodGet, Path: "/user-details", Auth: true, Failure: "Failed to fetch user details"},
	{Method: http.MethodPost, Path: "/create-case", Auth: true, Failure: "Failed to create case"},
	{Method: http.MethodPost, Path: "/load-case-conversation", Auth: true, Failure: "Failed to load case conversation"},
	{Method: http.MethodPost, Path: "/initiate-chat", Auth: true, Failure: "Failed to initiate chat"},
	{Method: http.MethodPost, Path: "/ai-resp", Auth: true, Failure: "Failed to get AI response", Multipart: "Failed to process file upload"},
}

type WebhookHandler struct {
	svc       *service.WebhookService
	audit     *service.AuditService
	maxUpload int64
}

func NewWebhookHandler(svc *service.WebhookService, audit *service.AuditService, maxUpload int64) *WebhookHandler {
	return &WebhookHandler{svc: svc, audit: audit, maxUpload: maxUpload}
}

// Register mounts every route on g; auth guards the routes that need a bearer token.
func (h *WebhookHandler) Register(g *gin.RouterGroup, auth gin.HandlerFunc) {
	for _, rt := range Routes {
		handlers := []gin.HandlerFunc{h.forward(rt)}
		if rt.Auth {
			handlers = append([]gin.HandlerFunc{auth}, handlers...)
		}
		g.Handle(rt.Method, rt.Path, handlers...)
	}
}

func (h *WebhookHandler) forward(rt Route) gin.HandlerFunc {
	return func(c *gin.Context) {
		call := service.Call{Method: rt.Method, Endpoint: rt.Path}
		if rt.Auth {
			call.Auth = c.GetHeader("Authorization")
		}
		failure := rt.Failure

		if rt.Method != http.MethodGet {
			if rt.Multipart != "" && isMultipart(c.ContentType()) {
				if h.maxUpload > 0 && c.Request.ContentLength > h.maxUpload {
					c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "upload too large"})
					return
				}
				failure = rt.Multipart
				call.Body = c.Request.Body
				if h.maxUpload > 0 {
					call.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload)
				}
				call.ContentType = c.GetHeader("Content-Type")
			} else {
				body, ok := readJSONObject(c, h.maxUpload)
				if !ok {
					c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
					return
				}
				call.Body = bytes.NewReader(body)
				call.ContentType = "application/json"
			}
		}

		reply, err := h.svc.Forward(c.Request.Context(), call)
		h.record(c, call, reply, err)
		if err != nil {
			logger.Error("webhook.forward.failed", "endpoint", rt.Path, "request_id", c.GetString("request_id"), "err", err)
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "upload too large"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": failure})
			return
		}
		logger.Debug("webhook.forward", "endpoint", rt.Path, "status", reply.Status, "ms", reply.Duration.Milliseconds())
		c.Data(reply.Status, "application/json; charset=utf-8", reply.Body)
	}
}

func (h *WebhookHandler) record(c *gin.Context, call service.Call, reply *service.Reply, err error) {
	row := model.WebhookCall{
		RequestID:        c.GetString("request_id"),
		Endpoint:         call.Endpoint,
		Method:           call.Method,
		TokenFingerprint: c.GetString("token_fingerprint"),
	}
	if reply != nil {
		row.Status = reply.Status
		row.DurationMs = reply.Duration.Milliseconds()
	}
	if err != nil {
		row.Error = truncate(err.Error(), 512)
	}
	h.audit.RecordAsync(row)
}

// readJSONObject reads the request body and checks it is a JSON object. An
// empty body is forwarded as {}.
func readJSONObject(c *gin.Context, limit int64) ([]byte, bool) {
	r := io.Reader(c.Request.Body)
	if limit > 0 {
		r = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, false
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return []byte("{}"), true
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil || obj == nil {
		return nil, false
	}
	return data, true
}

func isMultipart(contentType string) bool {
	return strings.HasPrefix(contentType, "multipart/form-data")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
