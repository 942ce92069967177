package credentials

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPromptFromReader(t *testing.T) {
	var out bytes.Buffer
	p := NewReaderPrompter(strings.NewReader("user@example.com\r\nsecret\n"), &out)

	creds, err := p.Prompt()
	require.NoError(t, err)

	assert.Equal(t, "user@example.com", creds.Username)
	assert.Equal(t, "secret", creds.Password)
	assert.Contains(t, out.String(), "Enter your Amazon username: ")
	assert.Contains(t, out.String(), "Enter your Amazon password: ")
}

func TestPromptKeepsSurroundingSpaces(t *testing.T) {
	p := NewReaderPrompter(strings.NewReader(" user \n  pass word \r\n"), io.Discard)

	creds, err := p.Prompt()
	require.NoError(t, err)
	assert.Equal(t, " user ", creds.Username)
	assert.Equal(t, "  pass word ", creds.Password)
}

func TestPromptLastLineWithoutNewline(t *testing.T) {
	p := NewReaderPrompter(strings.NewReader("user\nsecret"), io.Discard)

	creds, err := p.Prompt()
	require.NoError(t, err)
	assert.Equal(t, "secret", creds.Password)
}

func TestPromptRepeats(t *testing.T) {
	p := NewReaderPrompter(strings.NewReader("a\n1\nb\n2\n"), io.Discard)

	first, err := p.Prompt()
	require.NoError(t, err)
	second, err := p.Prompt()
	require.NoError(t, err)

	assert.Equal(t, Credentials{Username: "a", Password: "1"}, first)
	assert.Equal(t, Credentials{Username: "b", Password: "2"}, second)
}

func TestPromptErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  error
	}{
		{"empty username", "\nsecret\n", ErrEmptyUsername},
		{"empty password", "user\n\n", ErrEmptyPassword},
		{"eof before username", "", io.EOF},
		{"eof before password", "user\n", io.EOF},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewReaderPrompter(strings.NewReader(tt.input), io.Discard)
			_, err := p.Prompt()
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestPromptTerminalPassword(t *testing.T) {
	var out bytes.Buffer
	p := NewReaderPrompter(strings.NewReader("user\n"), &out)
	p.isTerm = func(int) bool { return true }
	p.readPw = func(int) ([]byte, error) { return []byte(" hidden "), nil }

	creds, err := p.Prompt()
	require.NoError(t, err)
	assert.Equal(t, " hidden ", creds.Password)
	assert.NotContains(t, out.String(), "hidden")

	p = NewReaderPrompter(strings.NewReader("user\n"), io.Discard)
	p.isTerm = func(int) bool { return true }
	p.readPw = func(int) ([]byte, error) { return nil, errors.New("no tty") }

	_, err = p.Prompt()
	assert.Error(t, err)
}
