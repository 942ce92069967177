package scraper

import (
	"context"
	"errors"
	"time"

	"github.com/maltedev/amazon-bestsellers/internal/browser"
	"github.com/maltedev/amazon-bestsellers/internal/credentials"
	"github.com/maltedev/amazon-bestsellers/internal/models"
)

var (
	ErrLoginFailed     = errors.New("login failed")
	ErrNoSession       = errors.New("no browser session, login first")
	ErrNoProductCards  = errors.New("product cards not found")
	ErrProductNotFound = errors.New("product title not found")
)

// Launcher starts a fresh browser session.
type Launcher func(ctx context.Context) (browser.Session, error)

type Prompter interface {
	Prompt() (credentials.Credentials, error)
}

// Filter decides which extracted records are kept.
type Filter interface {
	Keep(p *models.ProductRecord) bool
}

// Metrics receives progress events. All methods must be safe to call from
// the scraping goroutine.
type Metrics interface {
	LoginAttempt(success bool)
	ProductVisited()
	ProductKept()
	ProductDropped()
	ProductFailed()
	CategoryDone(name string, err error)
}

type nopMetrics struct{}

func (nopMetrics) LoginAttempt(bool)          {}
func (nopMetrics) ProductVisited()            {}
func (nopMetrics) ProductKept()               {}
func (nopMetrics) ProductDropped()            {}
func (nopMetrics) ProductFailed()             {}
func (nopMetrics) CategoryDone(string, error) {}

const (
	accountListSelector  = `//*[@id="nav-link-accountList"]/span`
	signedInSelector     = "#nav-link-accountList"
	emailSelector        = "#ap_email"
	continueSelector     = "#continue"
	passwordSelector     = "#ap_password"
	signInSubmitSelector = "#signInSubmit"
)

// Timeouts for the individual waits.
type Timeouts struct {
	AccountLink  time.Duration
	Field        time.Duration
	Button       time.Duration
	SignedIn     time.Duration
	ProductCards time.Duration
	ProductTitle time.Duration
}

func DefaultTimeouts() Timeouts {
	return Timeouts{
		AccountLink:  15 * time.Second,
		Field:        15 * time.Second,
		Button:       10 * time.Second,
		SignedIn:     20 * time.Second,
		ProductCards: 30 * time.Second,
		ProductTitle: 20 * time.Second,
	}
}

type Options struct {
	BaseURL       string
	MaxProducts   int
	LoginAttempts int
	Timeouts      Timeouts
}

func DefaultOptions() Options {
	return Options{
		BaseURL:       "https://www.amazon.in",
		MaxProducts:   100,
		LoginAttempts: 3,
		Timeouts:      DefaultTimeouts(),
	}
}
