package credentials

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

var (
	ErrEmptyUsername = errors.New("username is empty")
	ErrEmptyPassword = errors.New("password is empty")
)

type Credentials struct {
	Username string
	Password string
}

// Prompter asks for an Amazon username and password on every call.
type Prompter struct {
	in     *bufio.Reader
	out    io.Writer
	fd     int
	isTerm func(fd int) bool
	readPw func(fd int) ([]byte, error)
}

// NewPrompter reads from stdin and prompts on stdout. The password is read
// without echo when stdin is a terminal.
func NewPrompter() *Prompter {
	return &Prompter{
		in:     bufio.NewReader(os.Stdin),
		out:    os.Stdout,
		fd:     int(os.Stdin.Fd()),
		isTerm: term.IsTerminal,
		readPw: term.ReadPassword,
	}
}

// NewReaderPrompter reads both values as plain lines from in.
func NewReaderPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{
		in:     bufio.NewReader(in),
		out:    out,
		fd:     -1,
		isTerm: func(int) bool { return false },
	}
}

func (p *Prompter) Prompt() (Credentials, error) {
	fmt.Fprint(p.out, "Enter your Amazon username: ")
	username, err := p.readLine()
	if err != nil {
		return Credentials{}, fmt.Errorf("failed to read username: %w", err)
	}
	if username == "" {
		return Credentials{}, ErrEmptyUsername
	}

	fmt.Fprint(p.out, "Enter your Amazon password: ")
	password, err := p.readPassword()
	if err != nil {
		return Credentials{}, fmt.Errorf("failed to read password: %w", err)
	}
	if password == "" {
		return Credentials{}, ErrEmptyPassword
	}

	return Credentials{Username: username, Password: password}, nil
}

func (p *Prompter) readPassword() (string, error) {
	if p.isTerm(p.fd) {
		b, err := p.readPw(p.fd)
		fmt.Fprintln(p.out)
		if err != nil {
			return "", err
		}
		return strings.TrimRight(string(b), "\r\n"), nil
	}
	return p.readLine()
}

func (p *Prompter) readLine() (string, error) {
	line, err := p.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
