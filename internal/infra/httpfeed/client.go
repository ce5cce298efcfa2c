package httpfeed

import (
	"context"
	"net/http"
	"time"

	"countdown-quiz/internal/domain"
	"github.com/goccy/go-json"
	"github.com/imroc/req/v3"
	"github.com/pkg/errors"
)

const defaultTimeout = 5 * time.Second

// Client fetches the question feed over HTTP. It performs a single attempt;
// the session decides what a failure means.
type Client struct {
	url    string
	client *req.Client
}

func NewClient(url string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	client := req.C().
		SetTimeout(timeout).
		SetJsonMarshal(json.Marshal).
		SetJsonUnmarshal(json.Unmarshal).
		SetCommonHeader("Accept", "application/json")
	return &Client{url: url, client: client}
}

func (c *Client) FetchQuestions(ctx context.Context) ([]domain.Question, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		Get(c.url)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to fetch `%v`", c.url)
	}
	switch status := resp.GetStatusCode(); {
	case status == http.StatusNotFound:
		return nil, errors.Wrapf(domain.ErrFeedNotFound, "`%v` returned status %d", c.url, status)
	case status != http.StatusOK:
		return nil, errors.Errorf("`%v` returned status %d", c.url, status)
	}

	data, err := resp.ToBytes()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read body of `%v`", c.url)
	}
	var questions []domain.Question
	if err := json.UnmarshalContext(ctx, data, &questions); err != nil {
		return nil, errors.Wrapf(err, "failed to decode questions from `%v`", c.url)
	}
	return questions, nil
}
