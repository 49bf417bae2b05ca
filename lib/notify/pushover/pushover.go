package pushover

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"campwatch/lib/notify"
	"campwatch/lib/telemetry"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("notify/pushover")

type Config struct {
	ApiToken string `json:"api_token"`
	UserKey  string `json:"user_key"`
	// optional, overridden in tests
	BaseUrl string `json:"base_url"`
}

type Client struct {
	http *resty.Client
	cfg  Config
}

func NewClient(cfg Config) Client {
	baseUrl := cfg.BaseUrl
	if baseUrl == "" {
		baseUrl = "https://api.pushover.net"
	}

	client := resty.New()
	client.SetBaseURL(baseUrl)
	client.SetTimeout(time.Second * 10)
	telemetry.InstrumentResty(client, "notify/pushover/http")

	return Client{
		http: client,
		cfg:  cfg,
	}
}

func (c Client) Configured() bool {
	return c.cfg.ApiToken != "" && c.cfg.UserKey != ""
}

type messageResponse struct {
	Status  int      `json:"status"`
	Request string   `json:"request"`
	Errors  []string `json:"errors"`
}

func (c Client) Send(ctx context.Context, n notify.Notification) error {
	ctx, span := tracer.Start(ctx, "Send")
	defer span.End()

	if !c.Configured() {
		slog.WarnContext(ctx, "pushover credentials are not set, skipping notification")
		return nil
	}

	form := map[string]string{
		"token":    c.cfg.ApiToken,
		"user":     c.cfg.UserKey,
		"message":  n.Message,
		"title":    n.Title,
		"priority": strconv.Itoa(n.Priority),
	}
	if n.Url != "" {
		form["url"] = n.Url
		form["url_title"] = n.UrlTitle
	}

	res, err := c.http.R().
		SetContext(ctx).
		SetFormData(form).
		Post("/1/messages.json")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to post message")
		return err
	}

	var body messageResponse
	err = json.Unmarshal(res.Body(), &body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to unmarshal message response")
		return fmt.Errorf("pushover returned status %d with an unreadable body", res.StatusCode())
	}
	if body.Status != 1 {
		err := fmt.Errorf(
			"pushover rejected the message (status %d): %s",
			res.StatusCode(), strings.Join(body.Errors, "; "),
		)
		span.RecordError(err)
		span.SetStatus(codes.Error, "message rejected")
		return err
	}

	slog.InfoContext(ctx, "notification sent", "request", body.Request)
	return nil
}
