package terminal

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"case-chat/internal/client"
	"case-chat/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	mu       sync.Mutex
	logins   []string
	cases    []model.Case
	created  []model.CreateCaseRequest
	initiate *model.Envelope
	replies  []*model.Envelope
	replyErr error
	messages []string
	uploads  [][]string
}

func (f *fakeAPI) Login(_ context.Context, req model.LoginRequest) (*model.AuthResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logins = append(f.logins, req.Email)
	return &model.AuthResponse{Token: "t"}, nil
}

func (f *fakeAPI) SignUp(_ context.Context, form model.SignupForm) (*model.AuthResponse, error) {
	if _, err := model.ValidateSignup(form); err != nil {
		return nil, err
	}
	return &model.AuthResponse{Token: "t"}, nil
}

func (f *fakeAPI) UserDetails(context.Context) (*model.UserDetails, error) {
	return &model.UserDetails{Cases: f.cases}, nil
}

func (f *fakeAPI) CreateCase(_ context.Context, req model.CreateCaseRequest) (*model.Case, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, req)
	return &model.Case{CaseID: "99", Name: req.Name, Type: req.Type}, nil
}

func (f *fakeAPI) LoadConversation(context.Context, model.CaseID) ([]model.ChatMessage, error) {
	return nil, nil
}

func (f *fakeAPI) InitiateChat(context.Context, model.CaseRef) (*model.Envelope, error) {
	return f.initiate, nil
}

func (f *fakeAPI) AIResponse(_ context.Context, _ model.CaseRef, msg string) (*model.Envelope, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, msg)
	if f.replyErr != nil {
		return nil, f.replyErr
	}
	return f.pop(), nil
}

func (f *fakeAPI) AIResponseFiles(_ context.Context, _ model.CaseRef, files []model.File) (*model.Envelope, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var names []string
	for _, file := range files {
		names = append(names, file.Name)
	}
	f.uploads = append(f.uploads, names)
	return f.pop(), nil
}

func (f *fakeAPI) pop() *model.Envelope {
	if len(f.replies) == 0 {
		return textEnv("ok")
	}
	env := f.replies[0]
	f.replies = f.replies[1:]
	return env
}

func textEnv(s string) *model.Envelope {
	content, _ := json.Marshal(map[string]string{"message": s})
	return &model.Envelope{Type: "text", Content: content}
}

func stepEnv(input model.InputType, options []string, formats ...string) *model.Envelope {
	content, _ := json.Marshal(map[string]any{
		"step_number":      2,
		"step_title":       "Intake",
		"message":          "Tell us more",
		"options":          options,
		"input_type":       input,
		"required_formats": formats,
	})
	return &model.Envelope{Type: "text", Content: content}
}

func run(t *testing.T, api *fakeAPI, input string) string {
	t.Helper()
	var out bytes.Buffer
	app := New(api, client.NewSession(), strings.NewReader(input), &out, "")
	require.NoError(t, app.Run(context.Background()))
	return out.String()
}

func TestRadioStepThenFreeText(t *testing.T) {
	api := &fakeAPI{
		cases:    []model.Case{{CaseID: "1", Name: "Smith v. Jones", Type: "civil"}},
		initiate: stepEnv(model.InputRadio, []string{"Yes", "No"}),
		replies:  []*model.Envelope{textEnv("Noted"), textEnv("hi there")},
	}
	out := run(t, api, "ann@example.com\nsecret123\n1\n2\nhello\n/quit\n")

	assert.Equal(t, []string{"ann@example.com"}, api.logins)
	assert.Equal(t, []string{"No", "hello"}, api.messages)
	assert.Contains(t, out, "1) Smith v. Jones [civil]")
	assert.Contains(t, out, "bot: Step 2: Intake")
	assert.Contains(t, out, "2) No")
	assert.Contains(t, out, "you: No")
	assert.Contains(t, out, "bot: Noted")
	assert.Contains(t, out, "you: hello")
	assert.Contains(t, out, "bot: hi there")
}

func TestCheckboxAndDocumentSteps(t *testing.T) {
	dir := t.TempDir()
	pdf := filepath.Join(dir, "a.pdf")
	txt := filepath.Join(dir, "b.txt")
	require.NoError(t, os.WriteFile(pdf, []byte("%PDF"), 0o644))
	require.NoError(t, os.WriteFile(txt, []byte("notes"), 0o644))

	api := &fakeAPI{
		initiate: stepEnv(model.InputCheckbox, []string{"A", "B", "C"}),
		replies: []*model.Envelope{
			stepEnv(model.InputDocument, []string{}, "PDF"),
			stepEnv(model.InputDocument, []string{}, "PDF"),
			textEnv("all done"),
		},
	}
	input := strings.Join([]string{
		"ann@example.com", "secret123",
		"n", "Lease dispute", "civil",
		"2, 1",
		pdf + ", " + txt,
		"skip",
		"/quit",
	}, "\n") + "\n"
	out := run(t, api, input)

	require.Len(t, api.created, 1)
	assert.Equal(t, "Lease dispute", api.created[0].Name)
	assert.Equal(t, []string{"B, A", ""}, api.messages)
	assert.Equal(t, [][]string{{"a.pdf"}}, api.uploads)
	assert.Contains(t, out, "b.txt: file type TXT is not allowed, accepted formats: PDF")
	assert.Contains(t, out, "you: Uploaded: a.pdf")
	assert.Contains(t, out, "you: Skip for now")
	assert.Contains(t, out, "bot: all done")
}

func TestUnknownOptionReprompts(t *testing.T) {
	api := &fakeAPI{
		cases:    []model.Case{{CaseID: "1", Name: "X"}},
		initiate: stepEnv(model.InputRadio, []string{"Yes", "No"}),
	}
	out := run(t, api, "a@b.co\nsecret123\n1\n7\nyes\n/quit\n")
	assert.Contains(t, out, "option not offered by this step")
	assert.Equal(t, []string{"Yes"}, api.messages)
}

func TestUnauthorizedReturnsToLogin(t *testing.T) {
	api := &fakeAPI{
		cases:    []model.Case{{CaseID: "1", Name: "X"}},
		initiate: textEnv("welcome"),
		replyErr: client.ErrUnauthorized,
	}
	out := run(t, api, "ann@example.com\nsecret123\n1\nhello\n\nsecret123\n/quit\n")

	assert.Equal(t, []string{"ann@example.com", "ann@example.com"}, api.logins)
	assert.Contains(t, out, "Session expired, please sign in again.")
	assert.Contains(t, out, "Email (or 'signup') [ann@example.com]: ")
}

func TestCasesCommandGoesBack(t *testing.T) {
	api := &fakeAPI{
		cases:    []model.Case{{CaseID: "1", Name: "First"}, {CaseID: "2", Name: "Second"}},
		initiate: textEnv("welcome"),
	}
	out := run(t, api, "a@b.co\nsecret123\n1\n/cases\n2\n/logout\n/quit\n")
	assert.Contains(t, out, "== First ==")
	assert.Contains(t, out, "== Second ==")
	assert.Contains(t, out, "Signed out.")
}

func TestEndOfInputQuits(t *testing.T) {
	out := run(t, &fakeAPI{}, "")
	assert.Contains(t, out, "Email (or 'signup'): ")
}

func TestCheckboxLineIsAtomic(t *testing.T) {
	api := &fakeAPI{
		cases:    []model.Case{{CaseID: "1", Name: "X"}},
		initiate: stepEnv(model.InputCheckbox, []string{"A", "B", "C"}),
	}
	out := run(t, api, "a@b.co\nsecret123\n1\n1, 9\n2, 1, 2\n/quit\n")

	assert.Contains(t, out, "option not offered by this step")
	assert.Equal(t, []string{"B, A"}, api.messages)
	assert.Contains(t, out, "you: B, A")
}

func TestOpenCaseByIDShowsSessionCounts(t *testing.T) {
	api := &fakeAPI{
		cases:    []model.Case{{CaseID: "1", Name: "First"}, {CaseID: "42", Name: "Second"}},
		initiate: textEnv("welcome"),
	}
	out := run(t, api, "a@b.co\nsecret123\n#7\n#42\nhello\n/cases\n/quit\n")

	assert.Contains(t, out, "No case with id 7.")
	assert.Contains(t, out, "== Second ==")
	assert.Equal(t, []string{"hello"}, api.messages)
	assert.Contains(t, out, "2) Second [] (3 messages this session)")
	assert.NotContains(t, out, "1) First [] (")
}
