package webhooks

import (
	"context"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-quality-hooks/core"
	"github.com/goliatone/go-quality-hooks/transport"
)

// HeaderProject carries the key of the project the payload describes.
const HeaderProject = "X-Quality-Hooks-Project"

type Poster interface {
	Post(ctx context.Context, req transport.Request) (transport.Response, error)
}

// Caller performs one delivery attempt. Implementations never fail: every
// problem is captured in the returned delivery.
type Caller interface {
	Call(ctx context.Context, webhook core.Webhook, payload core.WebhookPayload) core.WebhookDelivery
}

type HTTPCaller struct {
	Poster  Poster
	Timeout time.Duration
	Now     func() time.Time
}

func NewHTTPCaller(poster Poster, timeout time.Duration) *HTTPCaller {
	if poster == nil {
		poster = transport.NewRESTAdapter(nil)
	}
	if timeout <= 0 {
		timeout = core.DefaultCallTimeout
	}
	return &HTTPCaller{Poster: poster, Timeout: timeout, Now: time.Now}
}

func (c *HTTPCaller) Call(ctx context.Context, webhook core.Webhook, payload core.WebhookPayload) core.WebhookDelivery {
	delivery := core.WebhookDelivery{
		Webhook: webhook,
		Payload: payload,
		At:      c.now().UTC(),
	}
	if c == nil || c.Poster == nil {
		delivery.ErrorMessage = core.Some("webhooks: caller is not configured")
		return delivery
	}

	headers := map[string]string{}
	if key := strings.TrimSpace(payload.ProjectKey); key != "" {
		headers[HeaderProject] = key
	}
	startedAt := c.now()
	res, err := c.Poster.Post(ctx, transport.Request{
		URL:     webhook.URL,
		Headers: headers,
		Body:    []byte(payload.JSON),
		Timeout: c.Timeout,
	})
	if err != nil {
		duration, ok := transport.DurationOf(err)
		if !ok {
			duration = c.now().Sub(startedAt)
		}
		delivery.Duration = core.Some(duration)
		delivery.ErrorMessage = core.Some(errorMessage(err))
		return delivery
	}
	delivery.HTTPStatus = core.Some(res.StatusCode)
	delivery.Duration = core.Some(res.Duration)
	return delivery
}

func (c *HTTPCaller) now() time.Time {
	if c != nil && c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

func errorMessage(err error) string {
	root := goerrors.RootCause(err)
	if root == nil {
		root = err
	}
	message := strings.TrimSpace(root.Error())
	if message == "" {
		return "webhooks: delivery failed"
	}
	return message
}
