package services

import (
	"context"
	"errors"
	"fmt"
	"github.com/chromedp/chromedp"
	"github.com/gocolly/colly"
	"time"
)

// ErrUnexpectedStatus is wrapped by fetchers when the page answered with a non-2xx status.
var ErrUnexpectedStatus = errors.New("unexpected status")

// PageFetcher loads the raw HTML of a listing page.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// CollyFetcher 用普通 HTTP GET 抓取页面，模拟浏览器 User-Agent
type CollyFetcher struct {
	userAgent string
	timeout   time.Duration
}

func NewCollyFetcher(userAgent string, timeout time.Duration) *CollyFetcher {
	return &CollyFetcher{userAgent: userAgent, timeout: timeout}
}

func (f *CollyFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c := colly.NewCollector(colly.UserAgent(f.userAgent))
	if f.timeout > 0 {
		c.SetRequestTimeout(f.timeout)
	}

	var (
		body   []byte
		status int
	)
	c.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
		body = r.Body
	})
	c.OnError(func(r *colly.Response, err error) {
		status = r.StatusCode
	})

	if err := c.Visit(url); err != nil {
		if status != 0 {
			return nil, fmt.Errorf("fetch %s: %w %d", url, ErrUnexpectedStatus, status)
		}
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	if status < 200 || status > 299 {
		return nil, fmt.Errorf("fetch %s: %w %d", url, ErrUnexpectedStatus, status)
	}
	return body, nil
}

// HeadlessFetcher renders the page in headless Chrome before reading its HTML.
type HeadlessFetcher struct {
	userAgent string
	timeout   time.Duration
}

func NewHeadlessFetcher(userAgent string, timeout time.Duration) *HeadlessFetcher {
	return &HeadlessFetcher{userAgent: userAgent, timeout: timeout}
}

func (f *HeadlessFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	ctx, cancel := newBrowserContext(ctx, f.userAgent, f.timeout)
	defer cancel()

	resp, err := chromedp.RunResponse(ctx, chromedp.Navigate(url))
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	if resp == nil {
		return nil, fmt.Errorf("fetch %s: no document response", url)
	}
	if resp.Status < 200 || resp.Status > 299 {
		return nil, fmt.Errorf("fetch %s: %w %d", url, ErrUnexpectedStatus, resp.Status)
	}

	var html string
	err = chromedp.Run(ctx,
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: read html: %w", url, err)
	}
	return []byte(html), nil
}

// newBrowserContext starts a headless Chrome tab; cancel releases the tab and the browser.
func newBrowserContext(parent context.Context, userAgent string, timeout time.Duration) (context.Context, context.CancelFunc) {
	opts := chromedp.DefaultExecAllocatorOptions[:]
	if userAgent != "" {
		opts = append(opts[:len(opts):len(opts)], chromedp.UserAgent(userAgent))
	}
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(parent, opts...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx)

	ctx, cancelTimeout := tabCtx, context.CancelFunc(func() {})
	if timeout > 0 {
		ctx, cancelTimeout = context.WithTimeout(tabCtx, timeout)
	}
	return ctx, func() {
		cancelTimeout()
		cancelTab()
		cancelAlloc()
	}
}
