package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"

	"filecrypt/internal/password"
)

var errPasswordMismatch = errors.New("passwords do not match")

// prompter reads answers from in. When fd refers to a terminal, secrets are
// read without echo.
type prompter struct {
	in  *bufio.Reader
	out io.Writer
	fd  int
}

func newPrompter(in *os.File, out io.Writer) *prompter {
	fd := -1
	if term.IsTerminal(int(in.Fd())) {
		fd = int(in.Fd())
	}
	return &prompter{in: bufio.NewReader(in), out: out, fd: fd}
}

func (p *prompter) line(label string) (string, error) {
	fmt.Fprint(p.out, label)
	s, err := p.in.ReadString('\n')
	if err != nil && (err != io.EOF || s == "") {
		return "", err
	}
	return strings.TrimSpace(s), nil
}

// lineDefault returns def when the answer is empty.
func (p *prompter) lineDefault(label, def string) (string, error) {
	s, err := p.line(fmt.Sprintf("%s [%s]: ", label, def))
	if err != nil || s != "" {
		return s, err
	}
	return def, nil
}

func (p *prompter) number(label string, lo, hi int) (int, error) {
	s, err := p.line(label)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < lo || n > hi {
		return 0, fmt.Errorf("invalid choice %q: want %d-%d", s, lo, hi)
	}
	return n, nil
}

func (p *prompter) confirm(label string) (bool, error) {
	s, err := p.line(label + " [y/N]: ")
	if err != nil {
		return false, err
	}
	switch strings.ToLower(s) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

// raw returns the next line with only its line ending removed.
func (p *prompter) raw(label string) (string, error) {
	fmt.Fprint(p.out, label)
	s, err := p.in.ReadString('\n')
	if err != nil && (err != io.EOF || s == "") {
		return "", err
	}
	s = strings.TrimSuffix(s, "\n")
	return strings.TrimSuffix(s, "\r"), nil
}

// secret reads a password byte for byte as typed. Surrounding spaces are
// part of the password in both terminal and piped modes.
func (p *prompter) secret(label string) (string, error) {
	if p.fd < 0 {
		return p.raw(label)
	}
	fmt.Fprint(p.out, label)
	b, err := term.ReadPassword(p.fd)
	fmt.Fprintln(p.out)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(b), nil
}

// existingPassword asks once, for decryption.
func (p *prompter) existingPassword() (string, error) {
	pw, err := p.secret("Password: ")
	if err != nil {
		return "", err
	}
	if pw == "" {
		return "", errors.New("password must not be empty")
	}
	return pw, nil
}

// newPassword asks twice and lets the user back out of a weak choice.
func (p *prompter) newPassword() (string, error) {
	pw, err := p.existingPassword()
	if err != nil {
		return "", err
	}
	again, err := p.secret("Confirm password: ")
	if err != nil {
		return "", err
	}
	if pw != again {
		return "", errPasswordMismatch
	}

	if !password.IsStrong(pw) {
		a := password.Analyze(pw)
		fmt.Fprintf(p.out, "Warning: this password is %s (%d/80).\n", a.Rating, a.Score)
		ok, err := p.confirm("Use it anyway?")
		if err != nil {
			return "", err
		}
		if !ok {
			return "", errors.New("aborted: weak password")
		}
	}
	return pw, nil
}
