package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/maltedev/amazon-bestsellers/internal/browser"
	"github.com/maltedev/amazon-bestsellers/internal/extract"
	"github.com/maltedev/amazon-bestsellers/internal/logging"
	"github.com/maltedev/amazon-bestsellers/internal/models"
	"github.com/maltedev/amazon-bestsellers/internal/ratelimit"
)

// BestSellers logs into Amazon and walks best-seller listings, collecting the
// products that pass the filter.
type BestSellers struct {
	opts     Options
	launch   Launcher
	prompter Prompter
	filter   Filter
	metrics  Metrics
	logger   *slog.Logger

	productDelay  ratelimit.Delayer
	categoryDelay ratelimit.Delayer
	loginDelay    ratelimit.Delayer

	session browser.Session

	mu      sync.Mutex
	records []models.ProductRecord
}

func NewBestSellers(opts Options, launch Launcher, prompter Prompter, filter Filter, logger *slog.Logger) *BestSellers {
	if logger == nil {
		logger = slog.Default()
	}
	return &BestSellers{
		opts:          opts,
		launch:        launch,
		prompter:      prompter,
		filter:        filter,
		metrics:       nopMetrics{},
		logger:        logger.With("component", "scraper"),
		productDelay:  ratelimit.None{},
		categoryDelay: ratelimit.None{},
		loginDelay:    ratelimit.None{},
	}
}

// SetDelays sets the pauses after each product, after each category and
// between failed login attempts.
func (s *BestSellers) SetDelays(product, category, login ratelimit.Delayer) {
	s.productDelay = product
	s.categoryDelay = category
	s.loginDelay = login
}

func (s *BestSellers) SetMetrics(m Metrics) {
	if m == nil {
		m = nopMetrics{}
	}
	s.metrics = m
}

// Login signs in with credentials prompted from the user. Every attempt
// starts a fresh browser session; a failed session is closed before the
// next attempt.
func (s *BestSellers) Login(ctx context.Context) bool {
	for attempt := 1; attempt <= s.opts.LoginAttempts; attempt++ {
		if ctx.Err() != nil {
			return false
		}

		err := s.loginOnce(ctx)
		if ctx.Err() != nil {
			s.logger.Info("login interrupted", "attempt", attempt)
			s.closeSession()
			return false
		}

		s.metrics.LoginAttempt(err == nil)
		if err == nil {
			s.logger.Info("login successful", "attempt", attempt)
			return true
		}

		s.logger.Error("login attempt failed", "attempt", attempt, "error", err)
		s.closeSession()

		if attempt < s.opts.LoginAttempts {
			if err := s.loginDelay.Pause(ctx); err != nil {
				return false
			}
		}
	}

	s.logger.Log(ctx, logging.LevelCritical, "login failed after multiple attempts", "attempts", s.opts.LoginAttempts)
	return false
}

func (s *BestSellers) loginOnce(ctx context.Context) error {
	creds, err := s.prompter.Prompt()
	if err != nil {
		return fmt.Errorf("failed to read credentials: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	session, err := s.launch(ctx)
	if err != nil {
		return fmt.Errorf("failed to start browser: %w", err)
	}
	s.session = session

	t := s.opts.Timeouts
	home := session.Home()

	if err := home.Goto(ctx, s.opts.BaseURL); err != nil {
		return err
	}
	if err := home.Click(ctx, accountListSelector, t.AccountLink); err != nil {
		return err
	}
	if err := home.Fill(ctx, emailSelector, creds.Username, t.Field); err != nil {
		return err
	}
	if err := home.Click(ctx, continueSelector, t.Button); err != nil {
		return err
	}
	if err := home.Fill(ctx, passwordSelector, creds.Password, t.Field); err != nil {
		return err
	}
	if err := home.Click(ctx, signInSubmitSelector, t.Button); err != nil {
		return err
	}
	return home.WaitVisible(ctx, signedInSelector, t.SignedIn)
}

// ScrapeCategory visits up to MaxProducts products of one listing. A product
// that fails is logged and skipped; only listing-level failures and
// cancellation are returned.
func (s *BestSellers) ScrapeCategory(ctx context.Context, category models.Category) error {
	if s.session == nil {
		return ErrNoSession
	}

	logger := s.logger.With("category", category.Name)
	home := s.session.Home()

	if err := home.Goto(ctx, category.URL); err != nil {
		return err
	}
	if err := home.WaitVisible(ctx, extract.ProductCardSelector, s.opts.Timeouts.ProductCards); err != nil {
		return fmt.Errorf("%w: %v", ErrNoProductCards, err)
	}

	content, err := home.HTML()
	if err != nil {
		return err
	}
	doc, err := extract.Parse(content, home.URL())
	if err != nil {
		return err
	}

	links := extract.ProductLinks(doc, s.opts.MaxProducts)
	logger.Info("found products", "count", len(links))

	for _, link := range links {
		if err := ctx.Err(); err != nil {
			return err
		}

		s.metrics.ProductVisited()
		if err := s.scrapeProduct(ctx, category, link); err != nil {
			s.metrics.ProductFailed()
			logger.Error("failed to scrape product", "url", link, "error", err)
		}

		if err := s.productDelay.Pause(ctx); err != nil {
			return err
		}
	}

	return nil
}

func (s *BestSellers) scrapeProduct(ctx context.Context, category models.Category, link string) error {
	home := s.session.Home()
	defer func() {
		if err := home.Focus(); err != nil {
			s.logger.Warn("failed to focus home tab", "error", err)
		}
	}()

	tab, err := s.session.OpenTab(ctx, link)
	if err != nil {
		return err
	}
	defer func() {
		if err := tab.Close(); err != nil {
			s.logger.Warn("failed to close product tab", "error", err)
		}
	}()

	if err := tab.Focus(); err != nil {
		return err
	}
	if err := tab.WaitVisible(ctx, extract.ProductTitleSelector, s.opts.Timeouts.ProductTitle); err != nil {
		return fmt.Errorf("%w: %v", ErrProductNotFound, err)
	}

	content, err := tab.HTML()
	if err != nil {
		return err
	}
	doc, err := extract.Parse(content, tab.URL())
	if err != nil {
		return err
	}

	record := extract.NewProductPage(doc).Record(category.Name)
	if !s.filter.Keep(record) {
		s.metrics.ProductDropped()
		s.logger.Debug("product dropped", "name", record.Name, "discount", record.SaleDiscount)
		return nil
	}

	s.mu.Lock()
	s.records = append(s.records, *record)
	s.mu.Unlock()

	s.metrics.ProductKept()
	s.logger.Info("product kept", "name", record.Name, "discount", record.SaleDiscount)
	return nil
}

// Run logs in and scrapes every category in order. The browser session is
// closed on return. If login fails no category is visited and ErrLoginFailed
// is returned.
func (s *BestSellers) Run(ctx context.Context, categories []models.Category) error {
	defer s.closeSession()

	if !s.Login(ctx) {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrLoginFailed, err)
		}
		return ErrLoginFailed
	}

	for _, category := range categories {
		if err := ctx.Err(); err != nil {
			return err
		}

		s.logger.Info("scraping category", "category", category.Name, "url", category.URL)
		err := s.ScrapeCategory(ctx, category)
		s.metrics.CategoryDone(category.Name, err)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			s.logger.Error("failed to scrape category", "category", category.Name, "error", err)
		}

		if err := s.categoryDelay.Pause(ctx); err != nil {
			return err
		}
	}

	s.logger.Info("scraping finished", "categories", len(categories), "kept", len(s.Records()))
	return nil
}

// Records returns a copy of the kept records.
func (s *BestSellers) Records() []models.ProductRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.ProductRecord, len(s.records))
	for i, r := range s.records {
		out[i] = r
		out[i].Images = append(make([]string, 0, len(r.Images)), r.Images...)
	}
	return out
}

func (s *BestSellers) closeSession() {
	if s.session == nil {
		return
	}
	if err := s.session.Close(); err != nil {
		s.logger.Warn("failed to close browser", "error", err)
	}
	s.session = nil
}
