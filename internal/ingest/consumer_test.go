package ingest

import (
	"context"
	"encoding/base64"
	"testing"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"automated-identity-matching/internal/models"
	"automated-identity-matching/pkg/metrics"
)

func TestDecodeClaimBase64(t *testing.T) {
	payload := `{"user_id":"q1","first_name":"Nicole","last_name":"Samuel","date_of_birth":"11-10-1985","street":"3654 POWELL POINT","zipcode":"80922","phone":"+15703698217"}`
	encoded := base64.StdEncoding.EncodeToString([]byte(payload))

	claim, err := decodeClaim([]byte(encoded))
	if err != nil {
		t.Fatalf("decodeClaim() error = %v", err)
	}
	if claim.UserID != "q1" || claim.FirstName != "Nicole" || claim.Zipcode != "80922" {
		t.Errorf("decoded claim = %+v", claim)
	}
}

func TestDecodeClaimPlainJSON(t *testing.T) {
	payload := `{"user_id":"q2","first_name":"A","last_name":"B"}`
	claim, err := decodeClaim([]byte(payload))
	if err != nil {
		t.Fatalf("decodeClaim() error = %v", err)
	}
	if claim.UserID != "q2" {
		t.Errorf("UserID = %q, want q2", claim.UserID)
	}
}

func TestDecodeClaimGarbage(t *testing.T) {
	if _, err := decodeClaim([]byte("not json at all")); err == nil {
		t.Error("decodeClaim() = nil error for garbage input")
	}
}

func testConsumer(pool *Pool) *Consumer {
	return &Consumer{
		pool:       pool,
		mConsumed:  metrics.Default.Counter("claims_consumed_total", ""),
		mMalformed: metrics.Default.Counter("claims_malformed_total", ""),
	}
}

func TestHandleRecordSubmitsValidClaim(t *testing.T) {
	m := &stubMatcher{result: &models.MatchResult{}}
	p := NewPool(m, &stubReporter{}, PoolConfig{WorkerCount: 1, QueueSize: 4}, nil)
	p.Start()
	defer p.Stop(time.Second)

	c := testConsumer(p)
	payload := base64.StdEncoding.EncodeToString([]byte(`{"user_id":"q3","first_name":"A","last_name":"B","phone":"5551234"}`))
	c.handleRecord(context.Background(), &kgo.Record{Value: []byte(payload), Topic: "claims", Offset: 1})

	waitFor(t, func() bool { return p.Stats().CompletedJobs == 1 })
}

func TestHandleRecordDropsInvalidClaim(t *testing.T) {
	m := &stubMatcher{result: &models.MatchResult{}}
	p := NewPool(m, &stubReporter{}, PoolConfig{WorkerCount: 1, QueueSize: 4}, nil)
	p.Start()
	defer p.Stop(time.Second)

	c := testConsumer(p)
	// missing user_id fails claim validation
	c.handleRecord(context.Background(), &kgo.Record{Value: []byte(`{"first_name":"A"}`), Topic: "claims", Offset: 2})
	// undecodable value
	c.handleRecord(context.Background(), &kgo.Record{Value: []byte("%%%"), Topic: "claims", Offset: 3})

	time.Sleep(50 * time.Millisecond)
	if got := p.Stats().TotalJobs; got != 0 {
		t.Errorf("submitted %d jobs from malformed records, want 0", got)
	}
}
