// Package browser executes platform actions through a headless browser and
// extracts feed content from rendered pages. It is the only package that
// touches the platform surface; everything above it works on typed actions
// and results.
package browser

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/jordan/outreach-agent/internal/types"
)

// Executor performs one platform action and reports what it extracted.
type Executor interface {
	// Execute performs a single action. The returned result reports
	// platform-side success; transport and rendering problems surface as
	// the error.
	Execute(ctx context.Context, action types.Action) (types.ActionResult, error)
	// FetchFeed returns the rendered feed page HTML.
	FetchFeed(ctx context.Context) (string, error)
	// Close releases the browser.
	Close() error
}

// Selectors for the platform UI, centralized so markup drift is a one-file
// fix.
const (
	feedURL = "https://www.linkedin.com/feed/"

	selPostBox       = `div.share-box-feed-entry__trigger`
	selPostEditor    = `div.ql-editor`
	selPostSubmit    = `button.share-actions__primary-action`
	selLikeButton    = `button.react-button__trigger`
	selCommentBox    = `div.comments-comment-box__editor`
	selCommentSubmit = `button.comments-comment-box__submit-button`
	selConnectButton = `button[aria-label*="connect" i]`
	selAddNoteButton = `button[aria-label="Add a note"]`
	selNoteTextarea  = `textarea[name="message"]`
	selSendButton    = `button[aria-label*="Send" i]`
	selMessageBox    = `div.msg-form__contenteditable`
	selMessageSend   = `button.msg-form__send-button`
)

// ChromeExecutor drives a persistent headless Chrome session. A single
// logged-in browser context is reused across actions so the platform sees
// one continuous session rather than a fresh browser per click.
type ChromeExecutor struct {
	browserCtx context.Context
	cancels    []context.CancelFunc
	verbose    bool
}

// NewChromeExecutor starts the browser. The user data directory carries the
// login session between runs; logging in is an operator task, not the
// agent's.
func NewChromeExecutor(ctx context.Context, userDataDir string, headless, verbose bool) (*ChromeExecutor, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserDataDir(userDataDir),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)

	// Start the browser eagerly so a missing Chrome binary fails here
	// rather than on the first action.
	if err := chromedp.Run(browserCtx); err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, fmt.Errorf("starting browser: %w", err)
	}

	return &ChromeExecutor{
		browserCtx: browserCtx,
		cancels:    []context.CancelFunc{cancelBrowser, cancelAlloc},
		verbose:    verbose,
	}, nil
}

// Execute performs one platform action.
func (e *ChromeExecutor) Execute(ctx context.Context, action types.Action) (types.ActionResult, error) {
	if e.verbose {
		log.Printf("[BROWSER] %s -> %s", action.Kind, action.TargetRef)
	}

	tasks, err := e.tasksFor(action)
	if err != nil {
		return types.ActionResult{}, err
	}

	runCtx, cancel := mergeDeadline(e.browserCtx, ctx)
	defer cancel()

	if err := chromedp.Run(runCtx, tasks...); err != nil {
		return types.ActionResult{}, fmt.Errorf("executing %s on %s: %w", action.Kind, action.TargetRef, err)
	}
	return types.ActionResult{Success: true}, nil
}

// tasksFor builds the chromedp task list for an action kind.
func (e *ChromeExecutor) tasksFor(action types.Action) (chromedp.Tasks, error) {
	switch action.Kind {
	case types.KindPost:
		return chromedp.Tasks{
			chromedp.Navigate(feedURL),
			chromedp.WaitReady("body"),
			chromedp.Click(selPostBox, chromedp.NodeVisible),
			chromedp.WaitVisible(selPostEditor),
			chromedp.SendKeys(selPostEditor, action.Parameters["content"]),
			chromedp.Sleep(time.Second),
			chromedp.Click(selPostSubmit, chromedp.NodeVisible),
			chromedp.Sleep(2 * time.Second),
		}, nil
	case types.KindLike:
		return chromedp.Tasks{
			chromedp.Navigate(action.TargetRef),
			chromedp.WaitReady("body"),
			chromedp.Click(selLikeButton, chromedp.NodeVisible),
			chromedp.Sleep(time.Second),
		}, nil
	case types.KindComment:
		return chromedp.Tasks{
			chromedp.Navigate(action.TargetRef),
			chromedp.WaitReady("body"),
			chromedp.Click(selCommentBox, chromedp.NodeVisible),
			chromedp.SendKeys(selCommentBox, action.Parameters["content"]),
			chromedp.Sleep(time.Second),
			chromedp.Click(selCommentSubmit, chromedp.NodeVisible),
			chromedp.Sleep(2 * time.Second),
		}, nil
	case types.KindConnectionRequest:
		tasks := chromedp.Tasks{
			chromedp.Navigate(action.TargetRef),
			chromedp.WaitReady("body"),
			chromedp.Click(selConnectButton, chromedp.NodeVisible),
			chromedp.Sleep(time.Second),
		}
		if note := action.Parameters["note"]; note != "" {
			tasks = append(tasks,
				chromedp.Click(selAddNoteButton, chromedp.NodeVisible),
				chromedp.SendKeys(selNoteTextarea, note),
			)
		}
		tasks = append(tasks,
			chromedp.Click(selSendButton, chromedp.NodeVisible),
			chromedp.Sleep(2*time.Second),
		)
		return tasks, nil
	case types.KindMessage:
		return chromedp.Tasks{
			chromedp.Navigate(action.TargetRef),
			chromedp.WaitReady("body"),
			chromedp.Click(selMessageBox, chromedp.NodeVisible),
			chromedp.SendKeys(selMessageBox, action.Parameters["content"]),
			chromedp.Sleep(time.Second),
			chromedp.Click(selMessageSend, chromedp.NodeVisible),
			chromedp.Sleep(2 * time.Second),
		}, nil
	case types.KindProfileView:
		return chromedp.Tasks{
			chromedp.Navigate(action.TargetRef),
			chromedp.WaitReady("body"),
			chromedp.Sleep(3 * time.Second),
		}, nil
	default:
		return nil, fmt.Errorf("unsupported action kind %q", action.Kind)
	}
}

// FetchFeed renders the feed page and returns its HTML.
func (e *ChromeExecutor) FetchFeed(ctx context.Context) (string, error) {
	runCtx, cancel := mergeDeadline(e.browserCtx, ctx)
	defer cancel()

	var html string
	err := chromedp.Run(runCtx,
		chromedp.Navigate(feedURL),
		chromedp.WaitReady("body"),
		// Let the feed's lazy content render before scraping.
		chromedp.Sleep(3*time.Second),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return "", fmt.Errorf("fetching feed: %w", err)
	}
	if e.verbose {
		log.Printf("[BROWSER] Rendered feed: %d bytes", len(html))
	}
	return html, nil
}

// Close shuts the browser down.
func (e *ChromeExecutor) Close() error {
	for _, cancel := range e.cancels {
		cancel()
	}
	return nil
}

// mergeDeadline runs browser work on the persistent browser context while
// honoring the caller's deadline and cancellation.
func mergeDeadline(browserCtx, callerCtx context.Context) (context.Context, context.CancelFunc) {
	if deadline, ok := callerCtx.Deadline(); ok {
		return context.WithDeadline(browserCtx, deadline)
	}
	ctx, cancel := context.WithCancel(browserCtx)
	stop := context.AfterFunc(callerCtx, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}
