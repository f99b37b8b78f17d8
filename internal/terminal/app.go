// Package terminal is a line-oriented front end for case chat: sign in,
// pick or create a case, then chat and answer step prompts.
package terminal

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"case-chat/internal/chat"
	"case-chat/internal/client"
	"case-chat/internal/logger"
	"case-chat/internal/model"
)

var (
	errQuit   = errors.New("quit")
	errLogout = errors.New("logout")
	errCases  = errors.New("back to cases")
)

// API is the webhook surface the terminal needs. *client.Client satisfies it.
type API interface {
	chat.Backend
	chat.CaseSource
	Login(ctx context.Context, req model.LoginRequest) (*model.AuthResponse, error)
	SignUp(ctx context.Context, form model.SignupForm) (*model.AuthResponse, error)
	CreateCase(ctx context.Context, req model.CreateCaseRequest) (*model.Case, error)
	LoadConversation(ctx context.Context, caseID model.CaseID) ([]model.ChatMessage, error)
}

type App struct {
	api     API
	session *client.Session
	in      *bufio.Reader
	r       *Renderer
	store   *chat.Store
	cases   *chat.Cases
	email   string
}

func New(api API, session *client.Session, in io.Reader, out io.Writer, email string) *App {
	return &App{
		api:     api,
		session: session,
		in:      bufio.NewReader(in),
		r:       NewRenderer(out),
		store:   chat.NewStore(),
		cases:   chat.NewCases(api),
		email:   email,
	}
}

// Run drives the login, case and chat screens until /quit or end of input.
func (a *App) Run(ctx context.Context) error {
	for {
		err := a.signIn(ctx)
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			return err
		}
		a.cases.Invalidate()

		err = a.caseLoop(ctx)
		switch {
		case errors.Is(err, errQuit):
			return nil
		case errors.Is(err, errLogout):
			a.session.Logout()
			a.r.Line("Signed out.")
		case err != nil:
			return err
		}
	}
}

func (a *App) signIn(ctx context.Context) error {
	for {
		email, err := a.ask(ctx, "Email (or 'signup')", a.email)
		if err != nil {
			return err
		}
		if email == "signup" {
			if err := a.signUp(ctx); err != nil {
				if isFatal(err) {
					return err
				}
				a.r.Line("Sign up failed: %s", err)
				continue
			}
			return nil
		}
		password, err := a.ask(ctx, "Password", "")
		if err != nil {
			return err
		}
		if _, err := a.api.Login(ctx, model.LoginRequest{Email: email, Password: password}); err != nil {
			a.r.Line("Login failed: %s", err)
			continue
		}
		a.email = email
		a.r.Line("Signed in as %s.", email)
		return nil
	}
}

func (a *App) signUp(ctx context.Context) error {
	var f model.SignupForm
	fields := []struct {
		label string
		dst   *string
	}{
		{"Name", &f.Name},
		{"Email", &f.Email},
		{"Password", &f.Password},
		{"Confirm password", &f.ConfirmPassword},
		{"Age", &f.Age},
		{"Gender", &f.Gender},
	}
	for _, fl := range fields {
		v, err := a.ask(ctx, fl.label, "")
		if err != nil {
			return err
		}
		*fl.dst = v
	}
	if _, err := a.api.SignUp(ctx, f); err != nil {
		return err
	}
	a.email = f.Email
	a.r.Line("Account created, signed in as %s.", f.Email)
	return nil
}

func (a *App) caseLoop(ctx context.Context) error {
	for {
		c, err := a.pickCase(ctx)
		if err != nil {
			return err
		}
		err = a.chatLoop(ctx, c)
		if err != nil && !errors.Is(err, errCases) {
			return err
		}
	}
}

func (a *App) pickCase(ctx context.Context) (model.Case, error) {
	for {
		list, err := a.cases.List(ctx)
		if err != nil {
			if errors.Is(err, client.ErrUnauthorized) {
				a.r.Line("Session expired, please sign in again.")
				return model.Case{}, errLogout
			}
			a.r.Line("Could not load cases: %s", err)
		}
		a.r.Line("Your cases:")
		if len(list) == 0 {
			a.r.Line("  (none yet)")
		}
		opened := make(map[string]int)
		for _, conv := range a.store.List() {
			opened[conv.ID] = len(conv.Messages)
		}
		for i, c := range list {
			line := fmt.Sprintf("  %d) %s [%s]", i+1, c.Ref().Normalized().CaseName, c.Type)
			if n, ok := opened[chat.ConversationID(c.CaseID)]; ok {
				line += fmt.Sprintf(" (%d messages this session)", n)
			}
			a.r.Line("%s", line)
		}
		a.r.Line("Pick a number, #<case id>, 'n' for a new case, /logout or /quit.")

		line, err := a.ask(ctx, "Case", "")
		if err != nil {
			return model.Case{}, err
		}
		if err := command(line); err != nil {
			if errors.Is(err, errCases) {
				a.cases.Invalidate()
				continue
			}
			return model.Case{}, err
		}
		if line == "n" {
			c, err := a.createCase(ctx)
			if err != nil {
				if errors.Is(err, client.ErrUnauthorized) {
					return model.Case{}, errLogout
				}
				if isFatal(err) {
					return model.Case{}, err
				}
				a.r.Line("Could not create case: %s", err)
				continue
			}
			return *c, nil
		}
		if id, ok := strings.CutPrefix(line, "#"); ok {
			c, found := a.cases.Find(model.CaseID(strings.TrimSpace(id)))
			if !found {
				a.r.Line("No case with id %s.", id)
				continue
			}
			return c, nil
		}
		n, err := strconv.Atoi(line)
		if err != nil || n < 1 || n > len(list) {
			a.r.Line("No case %q.", line)
			continue
		}
		return list[n-1], nil
	}
}

func (a *App) createCase(ctx context.Context) (*model.Case, error) {
	name, err := a.ask(ctx, "Case name", "")
	if err != nil {
		return nil, err
	}
	typ, err := a.ask(ctx, "Case type", "")
	if err != nil {
		return nil, err
	}
	c, err := a.api.CreateCase(ctx, model.CreateCaseRequest{Name: name, Type: typ})
	if err != nil {
		return nil, err
	}
	a.cases.Add(*c)
	return c, nil
}

func (a *App) chatLoop(ctx context.Context, c model.Case) error {
	history, err := a.api.LoadConversation(ctx, c.CaseID)
	if err != nil {
		if errors.Is(err, client.ErrUnauthorized) {
			return errLogout
		}
		logger.Warn("terminal.history.failed", "case", c.CaseID, "err", err)
	}
	sess := chat.Open(ctx, a.api, a.store, c, history)
	defer sess.Close()

	a.r.Line("== %s ==  (/cases, /logout, /quit)", sess.Case().CaseName)
	shown := 0
	for {
		msgs := sess.Conversation().Messages
		for _, m := range msgs[shown:] {
			a.r.Message(m)
		}
		shown = len(msgs)

		var err error
		if last, ok := sess.Conversation().Last(); ok && last.Step != nil && last.Role == model.RoleAssistant {
			err = a.answerStep(ctx, sess, *last.Step)
		} else {
			err = a.sendText(ctx, sess)
		}
		switch {
		case err == nil:
		case errors.Is(err, client.ErrUnauthorized):
			a.r.Line("Session expired, please sign in again.")
			return errLogout
		case isFatal(err), errors.Is(err, errCases):
			return err
		default:
			logger.Debug("terminal.submit", "case", c.CaseID, "err", err)
		}
	}
}

func (a *App) sendText(ctx context.Context, sess *chat.Session) error {
	line, err := a.read(ctx, "")
	if err != nil {
		return err
	}
	if err := command(line); err != nil {
		return err
	}
	if strings.TrimSpace(line) == "" {
		return nil
	}
	return sess.Send(ctx, line)
}

func (a *App) answerStep(ctx context.Context, sess *chat.Session, step model.StepMessage) error {
	form, err := sess.NewForm(step)
	if err != nil {
		// Malformed step: fall back to free text.
		a.r.Line("(%s)", err)
		return a.sendText(ctx, sess)
	}
	for {
		line, err := a.read(ctx, "")
		if err != nil {
			return err
		}
		if err := command(line); err != nil {
			return err
		}
		err = a.applyStep(ctx, form, line)
		switch {
		case err == nil:
			return nil
		case isFatal(err), errors.Is(err, client.ErrUnauthorized):
			return err
		case errors.Is(err, chat.ErrEmptyAnswer):
			a.r.Line("Please enter an answer.")
		case errors.Is(err, chat.ErrBusy):
			a.r.Line("Still waiting for the previous answer.")
		case errors.Is(err, chat.ErrUnknownOption), errors.Is(err, chat.ErrWrongInput):
			a.r.Line("%s", err)
		default:
			// submit failed; the error reply is already in the conversation
			logger.Debug("terminal.step.failed", "err", err)
			return nil
		}
	}
}

func (a *App) applyStep(ctx context.Context, form *chat.Form, line string) error {
	step := form.Step()
	switch step.InputType {
	case model.InputRadio:
		opt, err := pick(step.Options, line)
		if err != nil {
			return err
		}
		return form.Select(ctx, opt)

	case model.InputCheckbox:
		// Each line is a complete answer: resolve every pick before touching
		// the form, and repeated picks count once.
		var picks []string
		for _, part := range splitList(line) {
			opt, err := pick(step.Options, part)
			if err != nil {
				return err
			}
			if !slices.Contains(picks, opt) {
				picks = append(picks, opt)
			}
		}
		form.ClearSelection()
		for _, opt := range picks {
			if err := form.Toggle(opt); err != nil {
				return err
			}
		}
		return form.Confirm(ctx)

	case model.InputDocument:
		if strings.EqualFold(strings.TrimSpace(line), "skip") {
			return form.Skip(ctx)
		}
		for _, p := range splitList(line) {
			if _, err := os.Stat(p); err != nil {
				a.r.Line("%s: %s", p, err)
				continue
			}
			for _, err := range form.Stage(model.LocalFile(p)) {
				a.r.Line("%s", err)
			}
		}
		if len(form.Staged()) == 0 {
			return chat.ErrEmptyAnswer
		}
		return form.Confirm(ctx)

	default:
		if err := form.SetText(line); err != nil {
			return err
		}
		return form.Confirm(ctx)
	}
}

// pick resolves a 1-based option number or an exact option label.
func pick(options []string, s string) (string, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil && n >= 1 && n <= len(options) {
		return options[n-1], nil
	}
	for _, o := range options {
		if strings.EqualFold(o, s) {
			return o, nil
		}
	}
	return "", fmt.Errorf("%w: %q", chat.ErrUnknownOption, s)
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func command(line string) error {
	switch strings.TrimSpace(line) {
	case "/quit":
		return errQuit
	case "/logout":
		return errLogout
	case "/cases":
		return errCases
	}
	return nil
}

func isFatal(err error) bool {
	return errors.Is(err, errQuit) || errors.Is(err, errLogout) || errors.Is(err, context.Canceled)
}

func (a *App) ask(ctx context.Context, label, def string) (string, error) {
	if def != "" {
		label += " [" + def + "]"
	}
	v, err := a.read(ctx, label+": ")
	if err != nil {
		return "", err
	}
	if v == "" {
		v = def
	}
	if v == "/quit" {
		return "", errQuit
	}
	return v, nil
}

// read returns the next trimmed line. End of input is reported as errQuit.
func (a *App) read(ctx context.Context, label string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	a.r.Prompt(label)
	line, err := a.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && strings.TrimSpace(line) != "" {
			return strings.TrimSpace(line), nil
		}
		if errors.Is(err, io.EOF) {
			return "", errQuit
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}
