package extractor

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("internal/extractor")

const (
	navigateTimeout = 30 * time.Second
	tableTimeout    = 15 * time.Second
)

// Browser extracts records by rendering the page in headless Chrome.
// The leaderboard is a client-side render, so this is the mode that
// sees the real table.
type Browser struct {
	browser   *rod.Browser
	lnch      *launcher.Launcher
	userAgent string
}

// NewBrowser launches a headless Chrome and connects to it. Call Close
// when done to tear the process down.
func NewBrowser(userAgent string) (*Browser, error) {
	l := launcher.New().
		Headless(true).
		NoSandbox(true).
		Set("disable-blink-features", "AutomationControlled").
		Set("disable-gpu").
		Set("disable-dev-shm-usage")

	wsURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch chrome: %w", err)
	}

	b := rod.New().ControlURL(wsURL)
	if err := b.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("connect chrome: %w", err)
	}

	return &Browser{browser: b, lnch: l, userAgent: userAgent}, nil
}

func (b *Browser) Extract(ctx context.Context, url string) ([]Record, error) {
	ctx, span := tracer.Start(ctx, "extractor.Browser.Extract")
	defer span.End()

	page, err := stealth.Page(b.browser)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "create page")
		return nil, fmt.Errorf("create page: %w", err)
	}
	defer page.Close()

	if b.userAgent != "" {
		err = page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: b.userAgent})
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "set user agent")
			return nil, fmt.Errorf("set user agent: %w", err)
		}
	}

	navCtx, cancel := context.WithTimeout(ctx, navigateTimeout)
	defer cancel()

	if err := page.Context(navCtx).Navigate(url); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "navigate")
		return nil, fmt.Errorf("navigate %s: %w", url, err)
	}
	if err := page.Context(navCtx).WaitLoad(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "wait load")
		return nil, fmt.Errorf("wait load %s: %w", url, err)
	}

	// The table shows up after the client-side render settles.
	tableCtx, cancelTable := context.WithTimeout(ctx, tableTimeout)
	defer cancelTable()
	if _, err := page.Context(tableCtx).Element(tableSelector); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "wait table")
		return nil, fmt.Errorf("leaderboard table not found at %s: %w", url, err)
	}

	res, err := page.Context(ctx).Eval(`() => document.documentElement.outerHTML`)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "read dom")
		return nil, fmt.Errorf("read dom: %w", err)
	}

	return ParseLeaderboard(res.Value.Str())
}

// Close tears down the Chrome process.
func (b *Browser) Close() error {
	var err error
	if b.browser != nil {
		err = b.browser.Close()
	}
	if b.lnch != nil {
		b.lnch.Kill()
	}
	return err
}
