package scraper

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/maltedev/amazon-bestsellers/internal/browser"
	"github.com/maltedev/amazon-bestsellers/internal/credentials"
	"github.com/maltedev/amazon-bestsellers/internal/extract"
)

type mockPrompter struct {
	mock.Mock
}

func (m *mockPrompter) Prompt() (credentials.Credentials, error) {
	args := m.Called()
	return args.Get(0).(credentials.Credentials), args.Error(1)
}

type fakeTab struct {
	mu       sync.Mutex
	url      string
	pages    map[string]string
	failOn   map[string]error
	visited  []string
	filled   map[string]string
	clicked  []string
	focused  int
	closed   bool
	gotoErrs map[string]error
}

func newFakeTab(pages map[string]string) *fakeTab {
	return &fakeTab{
		pages:    pages,
		failOn:   map[string]error{},
		filled:   map[string]string{},
		gotoErrs: map[string]error{},
	}
}

func (t *fakeTab) Goto(ctx context.Context, url string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	t.visited = append(t.visited, url)
	if err := t.gotoErrs[url]; err != nil {
		return err
	}
	t.url = url
	return nil
}

// WaitVisible fails for page-level selectors the current fixture lacks.
func (t *fakeTab) WaitVisible(ctx context.Context, selector string, _ time.Duration) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.failOn[selector]; err != nil {
		return err
	}
	content := t.pages[t.url]
	switch selector {
	case extract.ProductCardSelector:
		if !strings.Contains(content, "zg-grid-general") {
			return errors.New("timeout waiting for product cards")
		}
	case extract.ProductTitleSelector:
		if !strings.Contains(content, `id="productTitle"`) {
			return errors.New("timeout waiting for title")
		}
	}
	return ctx.Err()
}

func (t *fakeTab) Click(ctx context.Context, selector string, _ time.Duration) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.failOn[selector]; err != nil {
		return err
	}
	t.clicked = append(t.clicked, selector)
	return ctx.Err()
}

func (t *fakeTab) Fill(ctx context.Context, selector, value string, _ time.Duration) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.failOn[selector]; err != nil {
		return err
	}
	t.filled[selector] = value
	return ctx.Err()
}

func (t *fakeTab) HTML() (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	content, ok := t.pages[t.url]
	if !ok {
		return "", fmt.Errorf("no fixture for %s", t.url)
	}
	return content, nil
}

func (t *fakeTab) URL() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.url
}

func (t *fakeTab) Focus() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.focused++
	return nil
}

func (t *fakeTab) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	return nil
}

// fakeSession serves product pages from fixtures. Tabs for URLs without a
// fixture fail to open.
type fakeSession struct {
	home   *fakeTab
	pages  map[string]string
	opened []*fakeTab
	closed bool
}

func (s *fakeSession) Home() browser.Tab { return s.home }

func (s *fakeSession) OpenTab(ctx context.Context, url string) (browser.Tab, error) {
	if _, ok := s.pages[url]; !ok {
		return nil, errors.New("navigation failed: " + url)
	}
	tab := newFakeTab(s.pages)
	if err := tab.Goto(ctx, url); err != nil {
		return nil, err
	}
	s.opened = append(s.opened, tab)
	return tab, nil
}

func (s *fakeSession) Close() error {
	s.closed = true
	return nil
}

// launcher hands out sessions built by build and remembers them.
type launcher struct {
	build    func() *fakeSession
	sessions []*fakeSession
	err      error
}

func (l *launcher) Launch(context.Context) (browser.Session, error) {
	if l.err != nil {
		return nil, l.err
	}
	s := l.build()
	l.sessions = append(l.sessions, s)
	return s, nil
}

type countingMetrics struct {
	logins     []bool
	visited    int
	kept       int
	dropped    int
	failed     int
	categories map[string]error
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{categories: map[string]error{}}
}

func (m *countingMetrics) LoginAttempt(success bool) { m.logins = append(m.logins, success) }
func (m *countingMetrics) ProductVisited()           { m.visited++ }
func (m *countingMetrics) ProductKept()              { m.kept++ }
func (m *countingMetrics) ProductDropped()           { m.dropped++ }
func (m *countingMetrics) ProductFailed()            { m.failed++ }
func (m *countingMetrics) CategoryDone(name string, err error) {
	m.categories[name] = err
}
