package ui

import (
	"context"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/KaliDrag0n/ContentReaper/internal/auth"
)

// LoginRequest asks the UI to collect credentials for a parked action. The
// auth gate blocks on Reply, so the modal must always answer, even when the
// user backs out.
type LoginRequest struct {
	Action string
	Reply  chan<- LoginReply
}

// LoginReply is the modal's answer. Ok=false means the user dismissed the
// prompt and the parked action should be discarded.
type LoginReply struct {
	Credentials auth.Credentials
	Ok          bool
}

// LoginPrompter implements auth.CredentialPrompter on top of a running
// bubbletea program: the prompt becomes a modal instead of fighting the TUI
// for stdin.
type LoginPrompter struct {
	send func(tea.Msg)
}

// NewLoginPrompter wraps a program's Send function.
func NewLoginPrompter(send func(tea.Msg)) *LoginPrompter {
	return &LoginPrompter{send: send}
}

// Prompt blocks until the modal answers or ctx is cancelled.
func (p *LoginPrompter) Prompt(ctx context.Context, action string) (auth.Credentials, bool, error) {
	reply := make(chan LoginReply, 1)
	p.send(LoginRequest{Action: action, Reply: reply})
	select {
	case r := <-reply:
		return r.Credentials, r.Ok, nil
	case <-ctx.Done():
		return auth.Credentials{}, false, ctx.Err()
	}
}

type loginForm struct {
	Action   string
	Username textinput.Model
	Password textinput.Model
	OnUser   bool
	reply    chan<- LoginReply
}

func (m Model) openLogin(req LoginRequest) Model {
	username := textinput.New()
	username.Prompt = "> "
	username.CharLimit = 128
	username.Focus()

	password := textinput.New()
	password.Prompt = "> "
	password.CharLimit = 256
	password.EchoMode = textinput.EchoPassword

	m.mode = modeLogin
	m.login = &loginForm{
		Action:   req.Action,
		Username: username,
		Password: password,
		OnUser:   true,
		reply:    req.Reply,
	}
	return m
}

func (m Model) updateLogin(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.login == nil {
		m.mode = modeDashboard
		return m, nil
	}

	switch msg.String() {
	case "ctrl+c", "esc":
		m.login.reply <- LoginReply{}
		m.mode = modeDashboard
		m.login = nil
		m.statusMessage = "login cancelled"
		return m, nil

	case "tab", "shift+tab", "up", "down":
		m.login.OnUser = !m.login.OnUser
		if m.login.OnUser {
			m.login.Username.Focus()
			m.login.Password.Blur()
		} else {
			m.login.Password.Focus()
			m.login.Username.Blur()
		}
		return m, nil

	case "enter":
		if m.login.OnUser {
			m.login.OnUser = false
			m.login.Username.Blur()
			m.login.Password.Focus()
			return m, nil
		}
		m.login.reply <- LoginReply{
			Credentials: auth.Credentials{
				Username: m.login.Username.Value(),
				Password: m.login.Password.Value(),
			},
			Ok: true,
		}
		m.mode = modeDashboard
		m.login = nil
		return m, nil
	}

	var cmd tea.Cmd
	if m.login.OnUser {
		m.login.Username, cmd = m.login.Username.Update(msg)
	} else {
		m.login.Password, cmd = m.login.Password.Update(msg)
	}
	return m, cmd
}
