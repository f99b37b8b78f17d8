// Package client talks to the case webhook API, either through the proxy
// server or directly against the workflow backend.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"case-chat/internal/model"
)

type Client struct {
	baseURL string
	http    *http.Client
	session *Session
	now     func() time.Time
}

func New(baseURL string, timeout time.Duration, session *Session) *Client {
	if session == nil {
		session = NewSession()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		session: session,
		now:     time.Now,
	}
}

func (c *Client) Session() *Session { return c.session }

func (c *Client) Login(ctx context.Context, req model.LoginRequest) (*model.AuthResponse, error) {
	if err := model.ValidateLogin(req); err != nil {
		return nil, err
	}
	return c.authenticate(ctx, "/login", req)
}

func (c *Client) SignUp(ctx context.Context, form model.SignupForm) (*model.AuthResponse, error) {
	req, err := model.ValidateSignup(form)
	if err != nil {
		return nil, err
	}
	return c.authenticate(ctx, "/sign-up-user", req)
}

func (c *Client) authenticate(ctx context.Context, path string, body any) (*model.AuthResponse, error) {
	var resp model.AuthResponse
	if err := c.doJSON(ctx, http.MethodPost, path, body, &resp, false); err != nil {
		return nil, err
	}
	if resp.Token == "" {
		return nil, ErrNoToken
	}
	c.session.Login(resp.Token)
	return &resp, nil
}

func (c *Client) UserDetails(ctx context.Context) (*model.UserDetails, error) {
	var resp model.UserDetails
	if err := c.doJSON(ctx, http.MethodGet, "/user-details", nil, &resp, true); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) CreateCase(ctx context.Context, req model.CreateCaseRequest) (*model.Case, error) {
	if err := model.ValidateCreateCase(req); err != nil {
		return nil, err
	}
	var resp model.Case
	if err := c.doJSON(ctx, http.MethodPost, "/create-case", req, &resp, true); err != nil {
		return nil, err
	}
	now := c.now().UTC().Format(time.RFC3339)
	resp.CreatedOn, resp.LastModifiedOn = now, now
	return &resp, nil
}

func (c *Client) LoadConversation(ctx context.Context, caseID model.CaseID) ([]model.ChatMessage, error) {
	var resp model.ConversationHistory
	req := model.LoadConversationRequest{CaseID: caseID}
	if err := c.doJSON(ctx, http.MethodPost, "/load-case-conversation", req, &resp, true); err != nil {
		return nil, err
	}
	return resp.Chat, nil
}

func (c *Client) InitiateChat(ctx context.Context, ref model.CaseRef) (*model.Envelope, error) {
	var env model.Envelope
	if err := c.doJSON(ctx, http.MethodPost, "/initiate-chat", ref.Normalized(), &env, true); err != nil {
		return nil, err
	}
	return &env, nil
}

func (c *Client) AIResponse(ctx context.Context, ref model.CaseRef, message string) (*model.Envelope, error) {
	req := model.AIRequest{
		CaseRef: ref.Normalized(),
		Content: model.AIContent{Message: message},
		Type:    "text",
	}
	var env model.Envelope
	if err := c.doJSON(ctx, http.MethodPost, "/ai-resp", req, &env, true); err != nil {
		return nil, err
	}
	return &env, nil
}

// AIResponseFiles uploads documents as multipart parts file_0..file_n plus
// the case fields.
func (c *Client) AIResponseFiles(ctx context.Context, ref model.CaseRef, files []model.File) (*model.Envelope, error) {
	ref = ref.Normalized()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for i, f := range files {
		if err := writeFilePart(mw, fmt.Sprintf("file_%d", i), f); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrEncodeRequest, err)
		}
	}
	fields := [][2]string{
		{"caseId", string(ref.CaseID)},
		{"caseName", ref.CaseName},
		{"caseType", ref.CaseType},
		{"type", "document"},
	}
	for _, kv := range fields {
		if err := mw.WriteField(kv[0], kv[1]); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrEncodeRequest, err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncodeRequest, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/ai-resp", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var env model.Envelope
	if err := c.do(req, &env, true); err != nil {
		return nil, err
	}
	return &env, nil
}

func writeFilePart(mw *multipart.Writer, field string, f model.File) error {
	if f.Open == nil {
		return fmt.Errorf("file %s: no content", f.Name)
	}
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer rc.Close()
	part, err := mw.CreateFormFile(field, f.Name)
	if err != nil {
		return err
	}
	_, err = io.Copy(part, rc)
	return err
}

// --- HTTP helper ---

func (c *Client) doJSON(ctx context.Context, method, path string, body, out any, authed bool) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrEncodeRequest, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, out, authed)
}

func (c *Client) do(req *http.Request, out any, authed bool) error {
	if authed {
		if token, ok := c.session.Token(); ok {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("webhook %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("webhook %s %s: read body: %w", req.Method, req.URL.Path, err)
	}

	if authed && resp.StatusCode == http.StatusUnauthorized {
		c.session.Logout()
		return ErrUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return mapRequestError(resp.StatusCode, data)
	}

	if out != nil && len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("%w: %v", ErrDecodeResponse, err)
		}
	}
	return nil
}
