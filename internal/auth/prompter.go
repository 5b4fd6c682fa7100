package auth

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// TerminalPrompter reads credentials from the controlling terminal. The
// password is read with echo disabled when stdin is a TTY.
type TerminalPrompter struct {
	Stdin  io.Reader
	Stdout io.Writer
	// DefaultUsername pre-fills the username prompt; enter accepts it.
	DefaultUsername string
	// IsTTY is a function that returns true if stdin is a TTY.
	// This allows for testing by injecting a mock function.
	IsTTY func() bool
	// ReadPassword reads a password without echo. Defaults to term.ReadPassword
	// on stdin; injectable for tests.
	ReadPassword func() (string, error)
}

// NewTerminalPrompter creates a prompter bound to the process terminal.
func NewTerminalPrompter(defaultUsername string) *TerminalPrompter {
	return &TerminalPrompter{
		Stdin:           os.Stdin,
		Stdout:          os.Stdout,
		DefaultUsername: defaultUsername,
		IsTTY:           defaultIsTTY,
		ReadPassword:    defaultReadPassword,
	}
}

func defaultIsTTY() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

func defaultReadPassword() (string, error) {
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// Prompt asks for a username and password. A blank username dismisses the
// prompt. Non-interactive sessions cannot answer, so they dismiss too.
func (p *TerminalPrompter) Prompt(ctx context.Context, action string) (Credentials, bool, error) {
	if !p.IsTTY() {
		return Credentials{}, false, nil
	}
	if err := ctx.Err(); err != nil {
		return Credentials{}, false, err
	}

	fmt.Fprintf(p.Stdout, "\nLogin required to %s.\n", action)

	usernamePrompt := "Username"
	if p.DefaultUsername != "" {
		usernamePrompt = fmt.Sprintf("Username [%s]", p.DefaultUsername)
	}
	fmt.Fprintf(p.Stdout, "%s (blank to cancel): ", usernamePrompt)

	reader := bufio.NewReader(p.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return Credentials{}, false, nil
	}
	username := strings.TrimSpace(line)
	if username == "" {
		username = p.DefaultUsername
	}
	if username == "" {
		return Credentials{}, false, nil
	}

	fmt.Fprint(p.Stdout, "Password: ")
	password, err := p.ReadPassword()
	fmt.Fprintln(p.Stdout)
	if err != nil {
		return Credentials{}, false, fmt.Errorf("failed to read password: %w", err)
	}

	return Credentials{Username: strings.ToLower(username), Password: password}, true, nil
}
