package workers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amcodin/SmartScraper/internal/logging"
	"github.com/amcodin/SmartScraper/internal/models"
	"github.com/amcodin/SmartScraper/internal/storage/sqlite"
	"github.com/amcodin/SmartScraper/internal/validator"
	"github.com/amcodin/SmartScraper/internal/verifier"
)

type sliceReader struct {
	msgs   []kafkago.Message
	cancel context.CancelFunc
}

func (r *sliceReader) ReadMessage(ctx context.Context) (kafkago.Message, error) {
	if len(r.msgs) == 0 {
		r.cancel()
		<-ctx.Done()
		return kafkago.Message{}, ctx.Err()
	}
	m := r.msgs[0]
	r.msgs = r.msgs[1:]
	return m, nil
}

func encode(t *testing.T, req models.VerificationRequest) kafkago.Message {
	t.Helper()
	raw, err := json.Marshal(req)
	require.NoError(t, err)
	return kafkago.Message{Value: raw}
}

var plan = models.Plan{ID: 3, URL: "https://example.com", PlanName: "NBN 100/20", DownloadSpeed: 100, UploadSpeed: 20}

func TestConsumeSkipsBadMessages(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bad := plan
	bad.URL = ""
	reader := &sliceReader{cancel: cancel, msgs: []kafkago.Message{
		{Value: []byte("{garbage")},
		encode(t, models.VerificationRequest{RequestID: "bad", Plan: bad}),
		encode(t, models.VerificationRequest{RequestID: "ok", Plan: plan}),
	}}

	var got []string
	consume(ctx, reader, func(_ context.Context, req *models.VerificationRequest) error {
		got = append(got, req.RequestID)
		return errors.New("handler errors are logged, not fatal")
	})

	assert.Equal(t, []string{"ok"}, got)
}

func TestDecode(t *testing.T) {
	raw, err := json.Marshal(models.VerificationRequest{RequestID: "r", Plan: plan})
	require.NoError(t, err)

	req, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, "NBN 100/20", req.Plan.PlanName)

	_, err = Decode([]byte(`{"plan":{"url":"x"}}`))
	require.Error(t, err)
}

type fakeVerifier struct {
	got []verifier.Request
	v   *models.Verification
	err error
}

func (f *fakeVerifier) Verify(_ context.Context, req verifier.Request) (*models.Verification, error) {
	f.got = append(f.got, req)
	return f.v, f.err
}

type fakePlans map[int64]models.Plan

func (f fakePlans) GetPlan(_ context.Context, id int64) (models.Plan, error) {
	p, ok := f[id]
	if !ok {
		return models.Plan{}, fmt.Errorf("plan %d: %w", id, sqlite.ErrNotFound)
	}
	return p, nil
}

type recordingWriter struct {
	mu   sync.Mutex
	msgs []kafkago.Message
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func TestProcessorUsesStoredPriceAndPublishes(t *testing.T) {
	old, next := 89.0, 99.0
	stored := plan
	stored.Price = &old
	fv := &fakeVerifier{v: &models.Verification{Verified: true, CurrentPrice: &next}}
	w := &recordingWriter{}
	p := NewProcessor(fv, fakePlans{3: stored}, w)

	err := p.Handle(context.Background(), &models.VerificationRequest{RequestID: "r1", CorrelationID: "c1", Plan: plan})
	require.NoError(t, err)

	require.Len(t, fv.got, 1)
	require.NotNil(t, fv.got[0].Plan.Price)
	assert.Equal(t, 89.0, *fv.got[0].Plan.Price)
	assert.Equal(t, "c1", fv.got[0].CorrelationID)

	require.Len(t, w.msgs, 1)
	var ev models.VerificationEvent
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &ev))
	assert.True(t, ev.PriceChanged)
	assert.Equal(t, 89.0, *ev.PreviousPrice)
	assert.Equal(t, "r1", ev.Request.RequestID)
}

func TestProcessorMissingPlanFallsBack(t *testing.T) {
	fv := &fakeVerifier{v: &models.Verification{}}
	p := NewProcessor(fv, fakePlans{}, nil)

	require.NoError(t, p.Handle(context.Background(), &models.VerificationRequest{RequestID: "r", Plan: plan}))
	require.Len(t, fv.got, 1)
	assert.Equal(t, plan.URL, fv.got[0].Plan.URL)
}

func TestProcessorVerifyError(t *testing.T) {
	fv := &fakeVerifier{err: errors.New("context canceled")}
	p := NewProcessor(fv, nil, nil)

	err := p.Handle(context.Background(), &models.VerificationRequest{RequestID: "r", Plan: plan})
	require.Error(t, err)
}

func TestProcessorPublishesFailedVerification(t *testing.T) {
	stored := plan
	old := 89.0
	stored.Price = &old
	fv := &fakeVerifier{v: &models.Verification{ErrorType: models.ErrorVerificationFailed, Error: "no usable extraction"}}
	w := &recordingWriter{}
	p := NewProcessor(fv, fakePlans{3: stored}, w)

	require.NoError(t, p.Handle(context.Background(), &models.VerificationRequest{RequestID: "r", Plan: plan}))

	require.Len(t, w.msgs, 1)
	var ev models.VerificationEvent
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &ev))
	assert.False(t, ev.PriceChanged)
	assert.True(t, ev.Verification.Failed())
	assert.Equal(t, models.ErrorVerificationFailed, ev.Verification.ErrorType)
}

func TestProcessorDebugLogsExtraction(t *testing.T) {
	logging.SetLevel(logging.LevelDebug)
	t.Cleanup(func() { logging.SetLevel(logging.LevelInfo) })

	price := 89.0
	fv := &fakeVerifier{v: &models.Verification{
		Verified:     true,
		CurrentPrice: &price,
		Result:       &validator.Result{PlanName: "NBN 100/20", Price: price, Confidence: 0.9, Verified: true},
	}}
	w := &recordingWriter{}
	p := NewProcessor(fv, nil, w)

	require.NoError(t, p.Handle(context.Background(), &models.VerificationRequest{RequestID: "r", Plan: plan}))
	require.Len(t, w.msgs, 1)
	assert.True(t, logging.Enabled(logging.LevelInfo))
}
