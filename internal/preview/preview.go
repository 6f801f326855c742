// Package preview renders stored landing pages in headless Chrome.
package preview

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/jonathan/signal-outreach/internal/logger"
)

// ErrEmptyDocument is returned when there is nothing to render
var ErrEmptyDocument = errors.New("preview: empty html document")

// Options controls the rendered screenshot
type Options struct {
	Width    int64
	Height   int64
	Quality  int // 100 produces PNG, lower values JPEG
	FullPage bool
	Settle   time.Duration // wait after load for CSS transitions
	Timeout  time.Duration
	ExecPath string // empty uses the chromedp lookup
}

// DefaultOptions returns a desktop-sized viewport screenshot
func DefaultOptions() Options {
	return Options{
		Width:   1280,
		Height:  800,
		Quality: 100,
		Settle:  250 * time.Millisecond,
		Timeout: 30 * time.Second,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Width <= 0 {
		o.Width = d.Width
	}
	if o.Height <= 0 {
		o.Height = d.Height
	}
	if o.Quality <= 0 || o.Quality > 100 {
		o.Quality = d.Quality
	}
	if o.Timeout <= 0 {
		o.Timeout = d.Timeout
	}
	if o.Settle < 0 {
		o.Settle = 0
	}
	return o
}

// DataURL encodes an HTML document as a base64 data URL
func DataURL(html string) string {
	return "data:text/html;charset=utf-8;base64," + base64.StdEncoding.EncodeToString([]byte(html))
}

// AllocatorOptions returns the headless Chrome flags used for rendering
func AllocatorOptions(execPath string) []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if execPath != "" {
		opts = append(opts, chromedp.ExecPath(execPath))
	}
	return opts
}

// Actions returns the chromedp tasks that load html and capture it into buf
func Actions(html string, opts Options, buf *[]byte) chromedp.Tasks {
	opts = opts.withDefaults()
	tasks := chromedp.Tasks{
		chromedp.EmulateViewport(opts.Width, opts.Height),
		chromedp.Navigate(DataURL(html)),
		chromedp.WaitReady("body", chromedp.ByQuery),
	}
	if opts.Settle > 0 {
		tasks = append(tasks, chromedp.Sleep(opts.Settle))
	}
	if opts.FullPage {
		tasks = append(tasks, chromedp.FullScreenshot(buf, opts.Quality))
	} else {
		tasks = append(tasks, chromedp.CaptureScreenshot(buf))
	}
	return tasks
}

// Screenshot launches a browser, renders html and returns the image bytes.
// Requires Chrome/Chromium to be installed on the system.
func Screenshot(ctx context.Context, html string, opts Options) ([]byte, error) {
	return NewRenderer(opts, nil).Screenshot(ctx, html)
}

// Renderer takes screenshots with a fixed set of options
type Renderer struct {
	opts Options
	log  logger.Logger
}

// NewRenderer creates a renderer; a nil logger discards output
func NewRenderer(opts Options, log logger.Logger) *Renderer {
	if log == nil {
		log = logger.NewNop()
	}
	return &Renderer{opts: opts.withDefaults(), log: log}
}

// Screenshot renders html in a fresh browser tab
func (r *Renderer) Screenshot(ctx context.Context, html string) ([]byte, error) {
	if strings.TrimSpace(html) == "" {
		return nil, ErrEmptyDocument
	}

	start := time.Now()
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, AllocatorOptions(r.opts.ExecPath)...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	browserCtx, cancelTimeout := context.WithTimeout(browserCtx, r.opts.Timeout)
	defer cancelTimeout()

	var buf []byte
	if err := chromedp.Run(browserCtx, Actions(html, r.opts, &buf)); err != nil {
		return nil, fmt.Errorf("render preview: %w", err)
	}

	r.log.Debug("Rendered landing page preview",
		logger.Int("bytes", len(buf)),
		logger.Duration("elapsed", time.Since(start)),
	)
	return buf, nil
}

// ContentType returns the MIME type of images produced with opts
func ContentType(opts Options) string {
	opts = opts.withDefaults()
	if opts.FullPage && opts.Quality < 100 {
		return "image/jpeg"
	}
	return "image/png"
}
