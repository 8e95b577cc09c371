// Package notify delivers per-claim match results to the downstream
// fraud-review API.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"automated-identity-matching/internal/models"
	"automated-identity-matching/pkg/circuit"
	errs "automated-identity-matching/pkg/errors"
	"automated-identity-matching/pkg/logging"
	"automated-identity-matching/pkg/metrics"
)

// Reporter posts match results to a downstream endpoint authenticated
// with an x-api-key header.
type Reporter interface {
	Report(ctx context.Context, userID string, result *models.MatchResult) error
}

// resultPayload is the body sent when at least one category matched.
type resultPayload struct {
	UserID  string   `json:"user_id"`
	NameDOB []string `json:"name_dob"`
	Street  []string `json:"street"`
	Phone   []string `json:"phone"`
}

// emptyPayload is the legacy no-match body shape expected by the
// downstream consumer. Field names are part of the wire contract.
type emptyPayload struct {
	UserID           string `json:"user_id"`
	NameDOB          string `json:"name_DOB"`
	StreetAddress    string `json:"street_address"`
	Email            string `json:"email"`
	MatchedHousehold string `json:"Matched_Household"`
	FraudSamePerson  string `json:"Fraud_same_person"`
	FraudHousehold   string `json:"Fraud_household"`
}

type HTTPReporter struct {
	url     string
	apiKey  string
	client  *http.Client
	breaker *circuit.Breaker
	log     *logging.ComponentLogger

	mSent   *metrics.Counter
	mFailed *metrics.Counter
}

type Option func(*HTTPReporter)

// WithClient overrides the HTTP client, mainly for tests.
func WithClient(c *http.Client) Option {
	return func(r *HTTPReporter) { r.client = c }
}

// WithBreaker guards deliveries with the given circuit breaker.
func WithBreaker(b *circuit.Breaker) Option {
	return func(r *HTTPReporter) { r.breaker = b }
}

func NewHTTPReporter(url, apiKey string, timeout time.Duration, log *logging.Logger, opts ...Option) *HTTPReporter {
	r := &HTTPReporter{
		url:    url,
		apiKey: apiKey,
		client: &http.Client{Timeout: timeout},
		mSent:  metrics.Default.Counter("report_sent_total", "Match results delivered downstream"),
		mFailed: metrics.Default.Counter("report_failed_total",
			"Match result deliveries that failed"),
	}
	if log != nil {
		r.log = log.WithComponent("notify")
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Report sends the result for a claim. No-match results are sent in
// the legacy empty shape so the downstream consumer keeps working.
func (r *HTTPReporter) Report(ctx context.Context, userID string, result *models.MatchResult) error {
	var body []byte
	var err error
	if result == nil || result.Empty() {
		body, err = json.Marshal(emptyPayload{UserID: userID})
	} else {
		body, err = json.Marshal(resultPayload{
			UserID:  userID,
			NameDOB: result.NameDOB,
			Street:  result.Street,
			Phone:   result.Phone,
		})
	}
	if err != nil {
		return errs.NewExternal("notify.Report", "fraud-review", "encode payload", err)
	}

	send := func(ctx context.Context) error {
		return r.post(ctx, body)
	}

	if r.breaker != nil {
		err = r.breaker.Do(ctx, send)
		if err == circuit.ErrOpen {
			r.mFailed.Inc(1)
			return errs.NewExternal("notify.Report", "fraud-review", "circuit open", err)
		}
	} else {
		err = send(ctx)
	}
	if err != nil {
		r.mFailed.Inc(1)
		if r.log != nil {
			r.log.Error("result delivery failed", err,
				logging.String("user_id", userID))
		}
		return err
	}

	r.mSent.Inc(1)
	if r.log != nil {
		r.log.Info("result delivered", logging.String("user_id", userID))
	}
	return nil
}

func (r *HTTPReporter) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return errs.NewExternal("notify.post", "fraud-review", "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", r.apiKey)

	resp, err := r.client.Do(req)
	if err != nil {
		return errs.NewExternal("notify.post", "fraud-review", "send request", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errs.NewExternal("notify.post", "fraud-review",
			fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}
	return nil
}
