// Package attendance talks to the university's ASP.NET attendance
// portal. The portal is a classic WebForms app: every query is a
// postback that must echo the server's hidden state fields.
package attendance

import (
	"context"
	"fmt"
	"net/http/cookiejar"
	"strings"
	"time"

	"uaftools-backend/lib/htmlutil"
	"uaftools-backend/lib/telemetry"
	"uaftools-backend/lib/transcript"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("scrapers/attendance")

const (
	// observed field names; the portal has never versioned them, so
	// they stay configurable in case the next deploy renames controls
	DefaultRegistrationField = "ctl00$Main$txtReg"
	DefaultSubmitField       = "ctl00$Main$btnSearch"
	DefaultSubmitLabel       = "Access To Student Information"
	DefaultDetailPath        = "/StudentProfile.aspx"
)

type ClientOptions struct {
	// e.g. "http://121.52.152.24"
	BaseUrl string

	RegistrationField string
	SubmitField       string
	SubmitLabel       string

	// landing here after the postback signals a found student
	DetailPath string

	Timeout time.Duration
}

func (o *ClientOptions) defaults() {
	if o.RegistrationField == "" {
		o.RegistrationField = DefaultRegistrationField
	}
	if o.SubmitField == "" {
		o.SubmitField = DefaultSubmitField
	}
	if o.SubmitLabel == "" {
		o.SubmitLabel = DefaultSubmitLabel
	}
	if o.DetailPath == "" {
		o.DetailPath = DefaultDetailPath
	}
	if o.Timeout == 0 {
		o.Timeout = time.Second * 20
	}
}

type Client struct {
	opts ClientOptions
	http *resty.Client
}

func NewClient(opts ClientOptions) (*Client, error) {
	opts.defaults()
	if opts.BaseUrl == "" {
		return nil, fmt.Errorf("attendance portal base url is required")
	}

	client := resty.New()
	client.SetBaseURL(opts.BaseUrl)
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)
	client.SetHeader("user-agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36")

	telemetry.InstrumentResty(client, "scrapers/attendance/http")

	return &Client{
		opts: opts,
		http: client,
	}, nil
}

// FetchAttendance performs the GET→postback exchange and extracts
// course records from the detail page. All faults degrade to a failure
// Outcome.
func (c *Client) FetchAttendance(ctx context.Context, registration string) transcript.Outcome {
	ctx, span := tracer.Start(ctx, "FetchAttendance")
	defer span.End()
	span.SetAttributes(attribute.String("registration", registration))

	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	res, err := c.http.R().SetContext(ctx).Get("/")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "landing page unreachable")
		return transcript.Failure(fmt.Sprintf("failed to reach the attendance portal: %s", err))
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(res.String()))
	if err != nil {
		return transcript.Failure(fmt.Sprintf("failed to parse attendance landing page: %s", err))
	}

	viewState := htmlutil.InputValue(doc, "__VIEWSTATE")
	viewStateGen := htmlutil.InputValue(doc, "__VIEWSTATEGENERATOR")
	eventValidation := htmlutil.InputValue(doc, "__EVENTVALIDATION")
	if viewState == "" {
		span.SetStatus(codes.Error, "viewstate missing")
		return transcript.Failure("attendance portal site structure changed: __VIEWSTATE not found")
	}

	res, err = c.http.R().
		SetContext(ctx).
		SetHeader("referer", c.opts.BaseUrl+"/").
		SetFormData(map[string]string{
			"__VIEWSTATE":            viewState,
			"__VIEWSTATEGENERATOR":   viewStateGen,
			"__EVENTVALIDATION":      eventValidation,
			c.opts.RegistrationField: registration,
			c.opts.SubmitField:       c.opts.SubmitLabel,
		}).
		Post("/")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "postback failed")
		return transcript.Failure(fmt.Sprintf("network error during attendance fetch: %s", err))
	}
	if !res.IsSuccess() {
		span.SetStatus(codes.Error, "non-2xx postback response")
		return transcript.Failure(fmt.Sprintf("attendance portal returned status code %d", res.StatusCode()))
	}

	// a found student redirects to the detail page; landing anywhere
	// else means the registration number is unknown, not an error
	finalPath := res.RawResponse.Request.URL.Path
	if !strings.EqualFold(finalPath, c.opts.DetailPath) {
		span.SetAttributes(attribute.String("final_path", finalPath))
		return transcript.Failure(fmt.Sprintf("no results found for registration number: %s", registration))
	}

	return transcript.Extract(res.String(), registration, transcript.AttendanceLayout)
}
