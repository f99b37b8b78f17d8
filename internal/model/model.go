package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// FlexString decodes from a JSON string or any scalar (number, bool). null
// decodes to "".
type FlexString string

func (f *FlexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	switch string(b) {
	case "null":
		*f = ""
		return nil
	case "true", "false":
		*f = FlexString(b)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("decode scalar: %w", err)
	}
	*f = FlexString(n.String())
	return nil
}

func (f FlexString) String() string { return string(f) }

// CaseID is a FlexString that encodes numeric ids back as JSON numbers.
type CaseID string

func (id *CaseID) UnmarshalJSON(b []byte) error {
	var f FlexString
	if err := f.UnmarshalJSON(b); err != nil {
		return err
	}
	*id = CaseID(f)
	return nil
}

func (id CaseID) MarshalJSON() ([]byte, error) {
	if _, err := strconv.ParseInt(string(id), 10, 64); err == nil {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

func (id CaseID) String() string { return string(id) }

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type SignupRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	CreatePassword  string `json:"createPassword"`
	ConfirmPassword string `json:"confirmPassword"`
	Age             int    `json:"age"`
	Gender          string `json:"gender"`
}

type AuthResponse struct {
	Token   string `json:"token"`
	Message string `json:"message,omitempty"`
}

type UserDetails struct {
	ID     FlexString `json:"id"`
	Name   string     `json:"name"`
	Age    FlexString `json:"age"`
	Gender string     `json:"gender"`
	Email  string     `json:"email"`
	Cases  []Case     `json:"cases"`
}

type Case struct {
	CaseID         CaseID `json:"caseId"`
	Name           string `json:"name"`
	Type           string `json:"type"`
	CreatedOn      string `json:"createdOn,omitempty"`
	LastModifiedOn string `json:"lastModifiedOn,omitempty"`
}

// Ref identifies the case for chat requests.
func (c Case) Ref() CaseRef {
	return CaseRef{CaseID: c.CaseID, CaseName: c.Name, CaseType: c.Type}
}

type CreateCaseRequest struct {
	Name string `json:"name" validate:"required"`
	Type string `json:"type" validate:"required"`
}

// CaseRef is the case identity sent with every chat request.
type CaseRef struct {
	CaseID   CaseID `json:"caseId"`
	CaseName string `json:"caseName"`
	CaseType string `json:"caseType"`
}

// Normalized fills the display name the backend expects when none is known.
func (r CaseRef) Normalized() CaseRef {
	if r.CaseName == "" {
		r.CaseName = "Case #" + string(r.CaseID)
	}
	return r
}

type LoadConversationRequest struct {
	CaseID CaseID `json:"caseId"`
}

type ConversationHistory struct {
	Chat []ChatMessage `json:"chat"`
}

type AIContent struct {
	Message string `json:"message"`
}

type AIRequest struct {
	CaseRef
	Content AIContent `json:"content"`
	Type    string    `json:"type"`
}

// File is a document staged for upload.
type File struct {
	Name string
	Open func() (io.ReadCloser, error)
}

// LocalFile stages a file from disk.
func LocalFile(path string) File {
	return File{
		Name: filepath.Base(path),
		Open: func() (io.ReadCloser, error) { return os.Open(path) },
	}
}

// BytesFile stages an in-memory document.
func BytesFile(name string, data []byte) File {
	return File{
		Name: name,
		Open: func() (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader(data)), nil },
	}
}

// Ext returns the upper-cased extension without the dot.
func (f File) Ext() string {
	return strings.ToUpper(strings.TrimPrefix(filepath.Ext(f.Name), "."))
}
