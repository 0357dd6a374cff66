package extractor

import (
	"context"
	"fmt"
	"net/http/cookiejar"
	"time"

	"winamax-scraper/lib/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/codes"
)

// Static extracts records over plain HTTP. It only sees the rows the
// server includes in the initial document, so it is the fallback mode
// for environments without Chrome.
type Static struct {
	client *resty.Client
}

func NewStatic(userAgent string) *Static {
	client := resty.New()
	jar, err := cookiejar.New(nil)
	if err == nil {
		client.SetCookieJar(jar)
	}
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	if userAgent != "" {
		client.SetHeader("user-agent", userAgent)
	}
	client.SetTimeout(time.Second * 30)

	telemetry.InstrumentResty(client, "extractor/http")

	return &Static{client: client}
}

func (s *Static) Extract(ctx context.Context, url string) ([]Record, error) {
	ctx, span := tracer.Start(ctx, "extractor.Static.Extract")
	defer span.End()

	res, err := s.client.R().SetContext(ctx).Get(url)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch")
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	if res.StatusCode() >= 400 {
		err := fmt.Errorf("fetch %s: status %d", url, res.StatusCode())
		span.RecordError(err)
		span.SetStatus(codes.Error, "bad status")
		return nil, err
	}

	return ParseLeaderboard(res.String())
}
