// Package eflyt drives the eFlyt case system through headless Chrome.
package eflyt

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"eflyt-phone-lookup/internal/common/config"
	"eflyt-phone-lookup/internal/common/logger"
	"eflyt-phone-lookup/internal/lookup"
)

// Selectors are the element IDs and paths of the eFlyt web client.
type Selectors struct {
	LoginPath     string
	LoginUser     string
	LoginPassword string
	LoginButton   string

	SearchPath   string
	CaseInput    string
	SearchButton string
	ResultGrid   string

	PersonGrid  string
	PhoneLabel  string
	MobileLabel string
}

func DefaultSelectors() Selectors {
	return Selectors{
		LoginPath:     "/",
		LoginUser:     "Login1_UserName",
		LoginPassword: "Login1_Password",
		LoginButton:   "Login1_LoginImageButton",

		SearchPath:   "/web/SearchResulte.aspx",
		CaseInput:    "ctl00_ContentPlaceHolder1_SearchControl_txtSagNr",
		SearchButton: "ctl00_ContentPlaceHolder1_SearchControl_btnSearch",
		ResultGrid:   "ctl00_ContentPlaceHolder2_GridViewSearchResult",

		PersonGrid:  "ctl00_ContentPlaceHolder2_GridViewMovingPersons",
		PhoneLabel:  "ctl00_ContentPlaceHolder2_ptFanePerson_stcPersonTab1_lblTlfnrTxt",
		MobileLabel: "ctl00_ContentPlaceHolder2_ptFanePerson_stcPersonTab1_lblMobilTxt",
	}
}

type Config struct {
	BaseURL   string
	Username  string
	Password  string
	Headless  bool
	Timeout   time.Duration
	Selectors Selectors
}

func ConfigFrom(cfg config.EflytConfig) Config {
	return Config{
		BaseURL:   cfg.BaseURL,
		Username:  cfg.Username,
		Password:  cfg.Password,
		Headless:  cfg.Headless,
		Timeout:   config.GetDuration(cfg.Timeout),
		Selectors: DefaultSelectors(),
	}
}

// Connector launches one browser per session and logs in.
type Connector struct {
	cfg    Config
	logger logger.Logger
	opts   []chromedp.ExecAllocatorOption
}

func NewConnector(cfg Config, log logger.Logger, extra ...chromedp.ExecAllocatorOption) *Connector {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
	)
	opts = append(opts, extra...)

	return &Connector{
		cfg:    cfg,
		logger: log.Named("eflyt"),
		opts:   opts,
	}
}

// Connect starts Chrome and logs in. The browser lives until Close, or until
// ctx is cancelled.
func (c *Connector) Connect(ctx context.Context) (lookup.Session, error) {
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, c.opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	s := &Session{
		cfg:    c.cfg,
		logger: c.logger,
		ctx:    browserCtx,
		cancel: func() {
			browserCancel()
			allocCancel()
		},
	}

	// Start the browser on the long-lived context; the first Run owns it.
	if err := chromedp.Run(browserCtx); err != nil {
		s.cancel()
		return nil, fmt.Errorf("start browser: %w", err)
	}

	if err := s.login(ctx); err != nil {
		s.cancel()
		return nil, fmt.Errorf("eflyt login: %w", err)
	}

	c.logger.Info("Logged in to eFlyt", map[string]interface{}{
		"baseUrl": c.cfg.BaseURL,
	})
	return s, nil
}

// Session is a logged-in browser. It holds one open case at a time and is
// not safe for concurrent use.
type Session struct {
	cfg    Config
	logger logger.Logger
	ctx    context.Context
	cancel context.CancelFunc
	open   string
}

// run executes actions in the browser bounded by the per-interaction timeout
// and by the caller's ctx.
func (s *Session) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(s.ctx, s.cfg.Timeout)
	defer cancel()

	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func (s *Session) login(ctx context.Context) error {
	sel := s.cfg.Selectors
	return s.run(ctx,
		chromedp.Navigate(s.cfg.BaseURL+sel.LoginPath),
		chromedp.WaitVisible(sel.LoginUser, chromedp.ByID),
		chromedp.SendKeys(sel.LoginUser, s.cfg.Username, chromedp.ByID),
		chromedp.SendKeys(sel.LoginPassword, s.cfg.Password, chromedp.ByID),
		chromedp.Click(sel.LoginButton, chromedp.ByID),
		chromedp.WaitNotPresent(sel.LoginButton, chromedp.ByID),
	)
}

func (s *Session) exists(ctx context.Context, id string) (bool, error) {
	var ok bool
	err := s.run(ctx, chromedp.Evaluate(fmt.Sprintf("document.getElementById(%q) !== null", id), &ok))
	return ok, err
}

func (s *Session) OpenCase(ctx context.Context, caseID string) (lookup.CaseHandle, error) {
	sel := s.cfg.Selectors
	s.open = ""

	err := s.run(ctx,
		chromedp.Navigate(s.cfg.BaseURL+sel.SearchPath),
		chromedp.WaitVisible(sel.CaseInput, chromedp.ByID),
		chromedp.SetValue(sel.CaseInput, "", chromedp.ByID),
		chromedp.SendKeys(sel.CaseInput, caseID, chromedp.ByID),
		chromedp.Click(sel.SearchButton, chromedp.ByID),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if err != nil {
		return lookup.CaseHandle{}, fmt.Errorf("search case %s: %w", caseID, err)
	}

	// A unique hit may land directly on the case page.
	direct, err := s.exists(ctx, sel.PersonGrid)
	if err != nil {
		return lookup.CaseHandle{}, fmt.Errorf("inspect case page %s: %w", caseID, err)
	}
	if !direct {
		if err := s.openFromResults(ctx, caseID); err != nil {
			return lookup.CaseHandle{}, err
		}
	}

	s.open = caseID
	s.logger.Debug("Opened case", map[string]interface{}{"caseId": caseID})
	return lookup.CaseHandle{CaseID: caseID}, nil
}

func (s *Session) openFromResults(ctx context.Context, caseID string) error {
	sel := s.cfg.Selectors

	hasResults, err := s.exists(ctx, sel.ResultGrid)
	if err != nil {
		return fmt.Errorf("inspect search result %s: %w", caseID, err)
	}
	if !hasResults {
		return fmt.Errorf("case %s: %w", caseID, lookup.ErrCaseNotFound)
	}

	var gridHTML string
	if err := s.run(ctx, chromedp.OuterHTML(sel.ResultGrid, &gridHTML, chromedp.ByID)); err != nil {
		return fmt.Errorf("read search result %s: %w", caseID, err)
	}

	row, ok, err := findCaseRow(gridHTML, caseID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("case %s: %w", caseID, lookup.ErrCaseNotFound)
	}

	err = s.run(ctx,
		chromedp.Click(caseLinkXPath(sel.ResultGrid, row), chromedp.BySearch),
		chromedp.WaitVisible(sel.PersonGrid, chromedp.ByID),
	)
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("case %s did not open: %w", caseID, lookup.ErrCaseNotFound)
	}
	if err != nil {
		return fmt.Errorf("open case %s: %w", caseID, err)
	}
	return nil
}

func (s *Session) FindPersonPhone(ctx context.Context, handle lookup.CaseHandle, nationalID string) (lookup.Result, error) {
	if handle.CaseID == "" || handle.CaseID != s.open {
		return lookup.Result{}, fmt.Errorf("case %q is not the open case", handle.CaseID)
	}
	sel := s.cfg.Selectors

	var gridHTML string
	if err := s.run(ctx, chromedp.OuterHTML(sel.PersonGrid, &gridHTML, chromedp.ByID)); err != nil {
		return lookup.Result{}, fmt.Errorf("read persons of case %s: %w", handle.CaseID, err)
	}

	row, ok, err := findPersonRow(gridHTML, nationalID)
	if err != nil {
		return lookup.Result{}, err
	}
	if !ok {
		return lookup.NotFound(), nil
	}

	var phone, mobile string
	err = s.run(ctx,
		chromedp.Click(personLinkXPath(sel.PersonGrid, row), chromedp.BySearch),
		chromedp.WaitReady(sel.PhoneLabel, chromedp.ByID),
		chromedp.TextContent(sel.PhoneLabel, &phone, chromedp.ByID),
		chromedp.TextContent(sel.MobileLabel, &mobile, chromedp.ByID),
	)
	if err != nil {
		return lookup.Result{}, fmt.Errorf("read person details in case %s: %w", handle.CaseID, err)
	}

	return lookup.Found(phone, mobile), nil
}

func (s *Session) Close() error {
	s.cancel()
	return nil
}
