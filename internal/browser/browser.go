package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"
)

var ErrBlocked = errors.New("page blocked by bot check")

// Session is one browser with a home tab that stays open for its lifetime.
type Session interface {
	Home() Tab
	OpenTab(ctx context.Context, url string) (Tab, error)
	Close() error
}

// Tab is a single page. Selectors use playwright syntax, so both CSS and
// XPath ("//...") work.
type Tab interface {
	Goto(ctx context.Context, url string) error
	WaitVisible(ctx context.Context, selector string, timeout time.Duration) error
	Click(ctx context.Context, selector string, timeout time.Duration) error
	Fill(ctx context.Context, selector, value string, timeout time.Duration) error
	HTML() (string, error)
	URL() string
	Focus() error
	Close() error
}

type Browser struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	context playwright.BrowserContext
	home    *Page
	opts    *Options
	logger  *slog.Logger
}

type Options struct {
	Headless        bool
	PageLoadTimeout time.Duration
	ImplicitWait    time.Duration
	UserAgent       string
	ViewportWidth   int
	ViewportHeight  int
}

func DefaultOptions() *Options {
	return &Options{
		Headless:        false,
		PageLoadTimeout: 30 * time.Second,
		ImplicitWait:    10 * time.Second,
		UserAgent:       "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
		ViewportWidth:   1920,
		ViewportHeight:  1080,
	}
}

// LaunchArgs are the chromium flags every session starts with.
func (o *Options) LaunchArgs() []string {
	args := []string{
		"--start-maximized",
		fmt.Sprintf("--window-size=%d,%d", o.ViewportWidth, o.ViewportHeight),
		"--no-sandbox",
		"--disable-dev-shm-usage",
		"--disable-extensions",
		"--disable-gpu",
		"--disable-software-rasterizer",
	}
	if o.UserAgent != "" {
		args = append(args, "--user-agent="+o.UserAgent)
	}
	return args
}

// New starts playwright, launches chromium and opens the home tab. The
// chromium driver is installed on first use.
func New(opts *Options, logger *slog.Logger) (*Browser, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "browser")

	var (
		pw      *playwright.Playwright
		browser playwright.Browser
	)
	start := func() error {
		p, err := playwright.Run()
		if err != nil {
			return fmt.Errorf("failed to start playwright: %w", err)
		}
		b, err := p.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
			Headless: playwright.Bool(opts.Headless),
			Args:     opts.LaunchArgs(),
		})
		if err != nil {
			p.Stop()
			return fmt.Errorf("failed to launch browser: %w", err)
		}
		pw, browser = p, b
		return nil
	}
	install := func() error {
		return playwright.Install(&playwright.RunOptions{Browsers: []string{"chromium"}})
	}
	if err := startWithInstall(logger, start, install); err != nil {
		return nil, err
	}

	contextOpts := playwright.BrowserNewContextOptions{
		AcceptDownloads: playwright.Bool(false),
		Viewport: &playwright.Size{
			Width:  opts.ViewportWidth,
			Height: opts.ViewportHeight,
		},
	}
	if opts.UserAgent != "" {
		contextOpts.UserAgent = playwright.String(opts.UserAgent)
	}

	bctx, err := browser.NewContext(contextOpts)
	if err != nil {
		browser.Close()
		pw.Stop()
		return nil, fmt.Errorf("failed to create browser context: %w", err)
	}

	b := &Browser{
		pw:      pw,
		browser: browser,
		context: bctx,
		opts:    opts,
		logger:  logger,
	}

	home, err := b.newPage()
	if err != nil {
		b.Close()
		return nil, err
	}
	b.home = home

	logger.Info("browser started", "headless", opts.Headless)
	return b, nil
}

func (b *Browser) newPage() (*Page, error) {
	page, err := b.context.NewPage()
	if err != nil {
		return nil, fmt.Errorf("failed to create new page: %w", err)
	}

	page.SetDefaultTimeout(float64(b.opts.ImplicitWait.Milliseconds()))
	page.SetDefaultNavigationTimeout(float64(b.opts.PageLoadTimeout.Milliseconds()))

	return &Page{page: page, logger: b.logger}, nil
}

func (b *Browser) Home() Tab {
	return b.home
}

// OpenTab opens url in a new tab of the same context, so it shares the
// login cookies.
func (b *Browser) OpenTab(ctx context.Context, url string) (Tab, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p, err := b.newPage()
	if err != nil {
		return nil, err
	}

	if err := p.Goto(ctx, url); err != nil {
		p.Close()
		return nil, err
	}

	return p, nil
}

func (b *Browser) Close() error {
	var errs []error

	if b.context != nil {
		if err := b.context.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close context: %w", err))
		}
	}

	if b.browser != nil {
		if err := b.browser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close browser: %w", err))
		}
	}

	if b.pw != nil {
		if err := b.pw.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop playwright: %w", err))
		}
	}

	return errors.Join(errs...)
}

// Page adapts a playwright page to Tab.
type Page struct {
	page   playwright.Page
	logger *slog.Logger
}

func (p *Page) Goto(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if _, err := p.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	}); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}

	title, err := p.page.Title()
	if err != nil {
		return fmt.Errorf("failed to get page title: %w", err)
	}
	content, err := p.page.Content()
	if err != nil {
		return fmt.Errorf("failed to get page content: %w", err)
	}

	if IsBlocked(title, content) {
		p.logger.Warn("bot check page detected", "url", url, "title", title)
		return fmt.Errorf("%w: %s", ErrBlocked, url)
	}

	return nil
}

func (p *Page) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := p.page.Locator(selector).First().WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
	if err != nil {
		return fmt.Errorf("element %s not visible after %s: %w", selector, timeout, err)
	}
	return nil
}

// Click waits until the element is visible, enabled and stable, then clicks.
func (p *Page) Click(ctx context.Context, selector string, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := p.page.Locator(selector).First().Click(playwright.LocatorClickOptions{
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
	if err != nil {
		return fmt.Errorf("failed to click %s: %w", selector, err)
	}
	return nil
}

func (p *Page) Fill(ctx context.Context, selector, value string, timeout time.Duration) error {
	if err := p.WaitVisible(ctx, selector, timeout); err != nil {
		return err
	}

	if err := p.page.Locator(selector).First().Fill(value); err != nil {
		return fmt.Errorf("failed to fill %s: %w", selector, err)
	}
	return nil
}

func (p *Page) HTML() (string, error) {
	content, err := p.page.Content()
	if err != nil {
		return "", fmt.Errorf("failed to get page content: %w", err)
	}
	return content, nil
}

func (p *Page) URL() string {
	return p.page.URL()
}

func (p *Page) Focus() error {
	if err := p.page.BringToFront(); err != nil {
		return fmt.Errorf("failed to focus tab: %w", err)
	}
	return nil
}

func (p *Page) Close() error {
	if err := p.page.Close(); err != nil {
		return fmt.Errorf("failed to close tab: %w", err)
	}
	return nil
}

var blockedMarkers = []string{
	"/errors/validateCaptcha",
	"Enter the characters you see below",
	"Type the characters you see in this image",
}

// startWithInstall runs start and, if it fails, installs the driver and
// Chromium once before trying again.
func startWithInstall(logger *slog.Logger, start, install func() error) error {
	err := start()
	if err == nil {
		return nil
	}

	logger.Info("browser did not start, installing chromium", "error", err)
	if err := install(); err != nil {
		return fmt.Errorf("failed to install playwright: %w", err)
	}
	return start()
}

// IsBlocked reports whether a page is a captcha or robot check instead of
// the requested content.
func IsBlocked(title, content string) bool {
	if strings.Contains(strings.ToLower(title), "robot check") {
		return true
	}
	for _, marker := range blockedMarkers {
		if strings.Contains(content, marker) {
			return true
		}
	}
	return false
}
