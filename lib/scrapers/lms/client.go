package lms

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/http/cookiejar"
	"strings"
	"time"

	"uaftools-backend/lib/cache"
	"uaftools-backend/lib/telemetry"
	"uaftools-backend/lib/transcript"

	browser "github.com/EDDYCJY/fake-useragent"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("scrapers/lms")

const (
	DefaultHost       = "lms.uaf.edu.pk"
	DefaultLoginPath  = "/login/index.php"
	DefaultResultPath = "/course/uaf_student_result.php"
)

type ClientOptions struct {
	Host string

	// tried in order until a scheme yields a 2xx login page
	SchemeOrder []string

	// the portal's certificate chain is chronically broken, so
	// verification is off unless this is set
	StrictTLS bool

	LoginPath  string
	ResultPath string

	LoginTimeout  time.Duration
	SubmitTimeout time.Duration

	// optional token cache; nil fetches a fresh token per scrape
	TokenCache *cache.Cache
	TokenTTL   time.Duration
}

func (o *ClientOptions) defaults() {
	if o.Host == "" {
		o.Host = DefaultHost
	}
	if len(o.SchemeOrder) == 0 {
		o.SchemeOrder = []string{"https", "http"}
	}
	if o.LoginPath == "" {
		o.LoginPath = DefaultLoginPath
	}
	if o.ResultPath == "" {
		o.ResultPath = DefaultResultPath
	}
	if o.LoginTimeout == 0 {
		o.LoginTimeout = time.Second * 15
	}
	if o.SubmitTimeout == 0 {
		o.SubmitTimeout = time.Second * 20
	}
	if o.TokenTTL == 0 {
		o.TokenTTL = time.Second * 120
	}
}

type Client struct {
	opts ClientOptions
	http *resty.Client
}

func NewClient(opts ClientOptions) (*Client, error) {
	opts.defaults()

	client := resty.New()
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)
	client.SetHeader("user-agent", browser.Computer())
	client.SetHeader("accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	// configured once here; mutating the shared client between requests
	// would race with concurrent scrapes
	if !opts.StrictTLS {
		client.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}

	telemetry.InstrumentResty(client, "scrapers/lms/http")

	return &Client{
		opts: opts,
		http: client,
	}, nil
}

type loginPage struct {
	body    string
	baseUrl string
}

// fetchLoginPage walks the scheme order until one yields a 2xx login
// page.
func (c *Client) fetchLoginPage(ctx context.Context) (loginPage, error) {
	ctx, span := tracer.Start(ctx, "fetchLoginPage")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, c.opts.LoginTimeout)
	defer cancel()

	var lastErr error
	for _, scheme := range c.opts.SchemeOrder {
		baseUrl := fmt.Sprintf("%s://%s", scheme, c.opts.Host)
		link := baseUrl + c.opts.LoginPath

		res, err := c.http.R().SetContext(ctx).Get(link)
		if err != nil {
			slog.WarnContext(ctx, "login page fetch failed", "url", link, "err", err)
			lastErr = err
			continue
		}
		if !res.IsSuccess() {
			lastErr = fmt.Errorf("login page returned status code %d", res.StatusCode())
			continue
		}

		span.SetAttributes(attribute.String("base_url", baseUrl))
		return loginPage{body: res.String(), baseUrl: baseUrl}, nil
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("no scheme configured for host %s", c.opts.Host)
	}
	span.RecordError(lastErr)
	span.SetStatus(codes.Error, "login page unreachable")
	return loginPage{}, lastErr
}

func (c *Client) tokenCacheKey() string {
	return "lms_token:" + c.opts.Host
}

// token returns a security token for the submit step, reusing a cached
// one when the injected cache still holds it. The base url the token
// was issued from is cached with it so Referer/Origin stay consistent.
func (c *Client) token(ctx context.Context) (string, loginPage, error) {
	if c.opts.TokenCache != nil {
		if cached, ok := c.opts.TokenCache.Get(c.tokenCacheKey()); ok {
			token, baseUrl, found := strings.Cut(cached, " ")
			if found {
				return token, loginPage{baseUrl: baseUrl}, nil
			}
		}
	}

	page, err := c.fetchLoginPage(ctx)
	if err != nil {
		return "", loginPage{}, err
	}

	token, err := ExtractToken(page.body)
	if err != nil {
		return "", page, err
	}
	if c.opts.TokenCache != nil {
		c.opts.TokenCache.Set(c.tokenCacheKey(), token+" "+page.baseUrl, c.opts.TokenTTL)
	}
	return token, page, nil
}

// Ping reports whether the lms login page is reachable. It walks the
// same scheme order as a real scrape but submits nothing.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.fetchLoginPage(ctx)
	return err
}

// FetchTranscript runs the login→submit exchange and extracts course
// records from the result page. Transport faults never escape as
// errors; every failure mode degrades to an unsuccessful Outcome.
func (c *Client) FetchTranscript(ctx context.Context, registration string) transcript.Outcome {
	ctx, span := tracer.Start(ctx, "FetchTranscript")
	defer span.End()
	span.SetAttributes(attribute.String("registration", registration))

	token, page, err := c.token(ctx)
	if err == ErrTokenNotFound {
		span.SetStatus(codes.Error, err.Error())
		return transcript.Failure("could not extract security token")
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "login fetch failed")
		return transcript.Failure(fmt.Sprintf("failed to reach the lms portal: %s", err))
	}

	submitCtx, cancel := context.WithTimeout(ctx, c.opts.SubmitTimeout)
	defer cancel()

	res, err := c.http.R().
		SetContext(submitCtx).
		SetHeader("referer", page.baseUrl+c.opts.LoginPath).
		SetHeader("origin", page.baseUrl).
		SetFormData(map[string]string{
			"token":    token,
			"Register": registration,
		}).
		Post(page.baseUrl + c.opts.ResultPath)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "result submit failed")
		return transcript.Failure(fmt.Sprintf("network error during result fetch: %s", err))
	}
	if !res.IsSuccess() {
		span.SetStatus(codes.Error, "non-2xx result response")
		return transcript.Failure(fmt.Sprintf("lms returned status code %d", res.StatusCode()))
	}

	return transcript.Extract(res.String(), registration, transcript.LMSLayout)
}
