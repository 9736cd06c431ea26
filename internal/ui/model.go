// Package ui renders the login flow in the terminal.
package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dtroode/authflow/internal/apierror"
	"github.com/dtroode/authflow/internal/flow"
)

// Controller is the part of flow.Controller the screens drive.
type Controller interface {
	Current() flow.Result
	SubmitLogin(ctx context.Context, email, password string) flow.Result
	SubmitCode(ctx context.Context, code string) flow.Result
	ResendCode(ctx context.Context) flow.Result
	Back(ctx context.Context) flow.Result
	Logout(ctx context.Context) flow.Result
}

var _ Controller = (*flow.Controller)(nil)

const codeLength = 6

type resultMsg struct {
	result flow.Result
}

type tickMsg time.Time

// Model is the root bubbletea model of the client.
type Model struct {
	ctx  context.Context
	ctrl Controller
	now  func() time.Time

	result  flow.Result
	started bool
	busy    bool

	email    textinput.Model
	password textinput.Model
	code     textinput.Model
	focus    int

	spinner spinner.Model
	clock   time.Time
}

var _ tea.Model = (*Model)(nil)

// New builds the model on the controller's current step. ctx bounds every
// backend call the screens start.
func New(ctx context.Context, ctrl Controller) *Model {
	email := textinput.New()
	email.Placeholder = "you@example.com"
	email.Prompt = "> "
	email.CharLimit = 254

	password := textinput.New()
	password.Placeholder = "password"
	password.Prompt = "> "
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	code := textinput.New()
	code.Placeholder = "000000"
	code.Prompt = "> "
	code.CharLimit = codeLength

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(accent)

	m := &Model{
		ctx:      ctx,
		ctrl:     ctrl,
		now:      time.Now,
		email:    email,
		password: password,
		code:     code,
		spinner:  s,
	}
	m.clock = m.now()
	m.enter(ctrl.Current())
	return m
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.tick())
}

func (m *Model) tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update handles key presses, backend results and the countdown tick.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.busy {
			return m, nil
		}
		return m, m.handleKey(msg)

	case resultMsg:
		m.busy = false
		m.clock = m.now()
		return m, m.enter(msg.result)

	case tickMsg:
		m.clock = m.now()
		return m, m.tick()

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch m.result.Step {
	case flow.StepLogin:
		return m.loginKey(msg)
	case flow.StepTwoFactor:
		return m.codeKey(msg)
	default:
		return m.successKey(msg)
	}
}

func (m *Model) loginKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyTab, tea.KeyShiftTab, tea.KeyUp, tea.KeyDown:
		return m.setFocus(1 - m.focus)
	case tea.KeyEnter:
		email, password := m.email.Value(), m.password.Value()
		return m.run(func(ctx context.Context) flow.Result {
			return m.ctrl.SubmitLogin(ctx, email, password)
		})
	}

	var cmd tea.Cmd
	if m.focus == 0 {
		m.email, cmd = m.email.Update(msg)
	} else {
		m.password, cmd = m.password.Update(msg)
	}
	return cmd
}

func (m *Model) codeKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc:
		return m.run(m.ctrl.Back)
	case tea.KeyCtrlR:
		if flow.Remaining(m.clock, m.result.ResendAt) > 0 {
			return nil
		}
		return m.run(m.ctrl.ResendCode)
	case tea.KeyEnter:
		return m.submitCode()
	case tea.KeyRunes:
		for _, r := range msg.Runes {
			if r < '0' || r > '9' {
				return nil
			}
		}
	}

	var cmd tea.Cmd
	m.code, cmd = m.code.Update(msg)
	if len(m.code.Value()) == codeLength {
		return tea.Batch(cmd, m.submitCode())
	}
	return cmd
}

func (m *Model) successKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case msg.Type == tea.KeyCtrlL, msg.String() == "l":
		return m.run(m.ctrl.Logout)
	case msg.String() == "q":
		return tea.Quit
	}
	return nil
}

func (m *Model) submitCode() tea.Cmd {
	code := m.code.Value()
	return m.run(func(ctx context.Context) flow.Result {
		return m.ctrl.SubmitCode(ctx, code)
	})
}

// run starts a backend call. Keys are ignored until its result arrives.
func (m *Model) run(action func(ctx context.Context) flow.Result) tea.Cmd {
	m.busy = true
	ctx := m.ctx
	return tea.Batch(
		func() tea.Msg { return resultMsg{result: action(ctx)} },
		m.spinner.Tick,
	)
}

// enter applies a result. Inputs reset when the step changes.
func (m *Model) enter(res flow.Result) tea.Cmd {
	changed := !m.started || m.result.Step != res.Step
	m.started = true
	m.result = res

	switch res.Step {
	case flow.StepLogin:
		if changed {
			m.code.Reset()
			m.password.Reset()
			return m.setFocus(0)
		}
		if res.Feedback.Field == apierror.FieldPassword {
			m.password.Reset()
			return m.setFocus(1)
		}
		if res.Feedback.Field == apierror.FieldEmail {
			return m.setFocus(0)
		}
	case flow.StepTwoFactor:
		if changed || !res.Feedback.Empty() {
			m.code.Reset()
		}
		m.email.Blur()
		m.password.Blur()
		return m.code.Focus()
	case flow.StepSuccess:
		m.password.Reset()
		m.code.Reset()
		m.email.Blur()
		m.password.Blur()
		m.code.Blur()
	}
	return nil
}

func (m *Model) setFocus(i int) tea.Cmd {
	m.focus = i
	if i == 0 {
		m.password.Blur()
		return m.email.Focus()
	}
	m.email.Blur()
	return m.password.Focus()
}

// View renders the current step.
func (m *Model) View() string {
	var body string
	switch m.result.Step {
	case flow.StepLogin:
		body = m.loginView()
	case flow.StepTwoFactor:
		body = m.codeView()
	default:
		body = m.successView()
	}

	var b strings.Builder
	b.WriteString(frameStyle.Render(body))
	b.WriteString("\n")
	if fb := m.result.Feedback; fb.Toast != "" {
		style := toastStyle
		if fb.Info {
			style = noticeStyle
		}
		b.WriteString(style.Render(fb.Toast))
		b.WriteString("\n")
	}
	return b.String()
}

func (m *Model) loginView() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Sign in"))
	b.WriteString("\n")
	m.field(&b, "Email", m.email.View(), apierror.FieldEmail)
	m.field(&b, "Password", m.password.View(), apierror.FieldPassword)
	b.WriteString(m.footer("tab switch field • enter sign in • ctrl+c quit"))
	return b.String()
}

func (m *Model) codeView() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Two-factor authentication"))
	b.WriteString("\n")
	b.WriteString(hintStyle.Render("Enter the 6-digit code from your authenticator."))
	b.WriteString("\n\n")
	m.field(&b, "Code", m.code.View(), apierror.FieldCode)

	resend := "ctrl+r resend code"
	if left := flow.Remaining(m.clock, m.result.ResendAt); left > 0 {
		resend = fmt.Sprintf("resend available in %ds", left)
	}
	b.WriteString(m.footer(resend + " • esc back • ctrl+c quit"))
	return b.String()
}

func (m *Model) successView() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Signed in"))
	b.WriteString("\n")

	user := m.result.User
	name := user.Name
	if name == "" {
		name = user.Email
	}
	b.WriteString(welcomeStyle.Render("Welcome, " + name + "!"))
	b.WriteString("\n")
	if user.Name != "" && user.Email != "" {
		b.WriteString(hintStyle.Render(user.Email))
		b.WriteString("\n")
	}
	if user.TwoFactorEnabled {
		b.WriteString(hintStyle.Render("Two-factor authentication is on."))
		b.WriteString("\n")
	}
	b.WriteString(m.footer("l log out • q quit"))
	return b.String()
}

func (m *Model) field(b *strings.Builder, label, input, name string) {
	b.WriteString(labelStyle.Render(label))
	b.WriteString("\n")
	b.WriteString(input)
	b.WriteString("\n")
	if fb := m.result.Feedback; fb.Field == name {
		b.WriteString(fieldErrorStyle.Render(fb.FieldMessage))
		b.WriteString("\n")
	}
	b.WriteString("\n")
}

func (m *Model) footer(keys string) string {
	if m.busy {
		return m.spinner.View() + hintStyle.Render(" working...")
	}
	return hintStyle.Render(keys)
}
