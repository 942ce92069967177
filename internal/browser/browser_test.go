package browser

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()

	assert.False(t, opts.Headless, "login needs a visible window by default")
	assert.Equal(t, 30*time.Second, opts.PageLoadTimeout)
	assert.Equal(t, 10*time.Second, opts.ImplicitWait)
	assert.Equal(t, 1920, opts.ViewportWidth)
	assert.Equal(t, 1080, opts.ViewportHeight)
	assert.Contains(t, opts.UserAgent, "Chrome/91")
}

func TestLaunchArgs(t *testing.T) {
	args := DefaultOptions().LaunchArgs()

	for _, want := range []string{
		"--start-maximized",
		"--window-size=1920,1080",
		"--no-sandbox",
		"--disable-dev-shm-usage",
		"--disable-extensions",
		"--disable-gpu",
		"--disable-software-rasterizer",
	} {
		assert.Contains(t, args, want)
	}
	assert.Contains(t, args[len(args)-1], "--user-agent=Mozilla/5.0")
}

func TestLaunchArgsWithoutUserAgent(t *testing.T) {
	opts := DefaultOptions()
	opts.UserAgent = ""

	for _, arg := range opts.LaunchArgs() {
		assert.NotContains(t, arg, "--user-agent")
	}
}

func TestIsBlocked(t *testing.T) {
	tests := []struct {
		name    string
		title   string
		content string
		want    bool
	}{
		{"robot title", "Robot Check", "", true},
		{"captcha form", "Amazon.in", `<form action="/errors/validateCaptcha">`, true},
		{"captcha prompt", "Amazon.in", "<p>Enter the characters you see below</p>", true},
		{"product page", "Prestige Kettle : Amazon.in", `<span id="productTitle">Kettle</span>`, false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsBlocked(tt.title, tt.content))
		})
	}
}

func TestStartWithInstall(t *testing.T) {
	errLaunch := errors.New("executable doesn't exist")
	errInstall := errors.New("download failed")

	tests := []struct {
		name         string
		starts       []error
		installErr   error
		wantStarts   int
		wantInstalls int
		wantErr      error
	}{
		{"starts first time", []error{nil}, nil, 1, 0, nil},
		{"launch fails then installs", []error{errLaunch, nil}, nil, 2, 1, nil},
		{"install fails", []error{errLaunch}, errInstall, 1, 1, errInstall},
		{"still fails after install", []error{errLaunch, errLaunch}, nil, 2, 1, errLaunch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&buf, nil))

			starts, installs := 0, 0
			start := func() error {
				err := tt.starts[starts]
				starts++
				return err
			}
			install := func() error {
				installs++
				return tt.installErr
			}

			err := startWithInstall(logger, start, install)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantStarts, starts)
			assert.Equal(t, tt.wantInstalls, installs)
			if tt.wantInstalls > 0 {
				assert.Contains(t, buf.String(), "installing chromium")
			}
		})
	}
}
