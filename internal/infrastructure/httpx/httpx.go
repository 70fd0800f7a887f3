package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Client wraps an http.Client with JSON decoding and bounded retry. Transport
// errors and 5xx responses are retried with exponential backoff; any other
// non-200 status is permanent.
type Client struct {
	HTTP *http.Client
}

func (c *Client) DoJSON(ctx context.Context, buildReq func() (*http.Request, error), out any) error {
	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = 200 * time.Millisecond
	exp.MaxInterval = 2 * time.Second
	exp.MaxElapsedTime = 8 * time.Second

	op := func() error {
		req, err := buildReq()
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 500 {
			return fmt.Errorf("server error %d", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			return backoff.Permanent(fmt.Errorf("status %d", resp.StatusCode))
		}
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return backoff.Retry(op, backoff.WithContext(exp, ctx))
}
