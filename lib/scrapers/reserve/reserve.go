package reserve

import (
	"bytes"
	"context"
	"fmt"
	"net/http/cookiejar"
	"net/url"
	"time"

	"campwatch/lib/htmlutil"
	"campwatch/lib/restyutil"
	"campwatch/lib/telemetry"
	"campwatch/lib/timezone"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("scrapers/reserve")

// ErrPageNotReady means the reservation page came back without its
// search form, usually because the site served a challenge or an
// error shell instead of the real page.
var ErrPageNotReady = fmt.Errorf("reservation page did not render its search form")

// the marker heading the reservation site renders in list view when
// nothing can be booked for the selected dates
const noSitesMarker = "No Available Sites"

type Status string

const (
	// StatusSitesFound means the page rendered and the no-sites marker
	// was absent, so at least one site appears bookable.
	StatusSitesFound Status = "SITES_FOUND"
	// StatusNoSites means the page rendered and explicitly said nothing
	// is available.
	StatusNoSites Status = "NO_SITES"
)

type ClientOptions struct {
	TargetUrl string
	// optional, defaults to a desktop Chrome user agent
	UserAgent string
	// optional, defaults to 30s
	Timeout time.Duration
	// optional, directory failed page bodies get dumped to
	DumpDir string
}

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

type Client struct {
	targetUrl *url.URL
	http      *resty.Client
	dump      *restyutil.FilesystemOutput
}

func NewClient(opts ClientOptions) (*Client, error) {
	targetUrl, err := url.Parse(opts.TargetUrl)
	if err != nil {
		return nil, err
	}
	if targetUrl.Hostname() == "" {
		return nil, fmt.Errorf("target url %q has no host", opts.TargetUrl)
	}

	client := resty.New()
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	client.SetHeader("user-agent", userAgent)
	client.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(targetUrl.Hostname()))

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = time.Second * 30
	}
	client.SetTimeout(timeout)

	telemetry.InstrumentResty(client, "scrapers/reserve/http")

	c := &Client{
		targetUrl: targetUrl,
		http:      client,
	}
	if opts.DumpDir != "" {
		dump := restyutil.NewFilesystemOutput(opts.DumpDir)
		c.dump = &dump
	}
	return c, nil
}

func (c *Client) TargetUrl() string {
	return c.targetUrl.String()
}

type Result struct {
	Status    Status
	CheckedAt time.Time
	// the page <title>, recorded with the check for debugging
	PageTitle string
}

// CheckAvailability fetches the reservation page once and classifies it.
//
// The original flow clicked the page into list view before reading it;
// that toggle is client-side, the served document already carries the
// list view markup the marker check needs.
func (c *Client) CheckAvailability(ctx context.Context) (Result, error) {
	ctx, span := tracer.Start(ctx, "CheckAvailability")
	defer span.End()

	res, err := c.http.R().
		SetContext(ctx).
		Get(c.targetUrl.String())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch reservation page")
		return Result{}, err
	}
	if res.StatusCode() != 200 {
		err := fmt.Errorf("reservation page returned status %d", res.StatusCode())
		c.dumpBody(res.Body())
		span.RecordError(err)
		span.SetStatus(codes.Error, "unexpected status code")
		return Result{}, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse reservation page html")
		return Result{}, err
	}

	if !searchFormPresent(doc) {
		c.dumpBody(res.Body())
		span.SetStatus(codes.Error, ErrPageNotReady.Error())
		return Result{}, ErrPageNotReady
	}

	result := Result{
		Status:    StatusSitesFound,
		CheckedAt: timezone.Now(),
		PageTitle: htmlutil.NormalizeText(doc.Find("title").Text()),
	}
	if htmlutil.ContainsText(doc.Find("h2"), noSitesMarker) {
		result.Status = StatusNoSites
	}

	span.AddEvent(string(result.Status))
	return result, nil
}

// the arrival/departure date fields of the search form double as the
// "page actually rendered" check
func searchFormPresent(doc *goquery.Document) bool {
	if doc.Find("#arrival-date-field").Length() > 0 &&
		doc.Find("#departure-date-field").Length() > 0 {
		return true
	}
	// older revisions of the page label the fields instead of id-ing them
	return doc.Find(`input[aria-label="Arrival"]`).Length() > 0 &&
		doc.Find(`input[aria-label="Departure"]`).Length() > 0
}

func (c *Client) dumpBody(body []byte) {
	if c.dump == nil {
		return
	}
	c.dump.Write(
		fmt.Sprintf("page_%d.html", time.Now().Unix()),
		string(body),
	)
}
