package handler

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aidar/member-crm/internal/service"
	"github.com/aidar/member-crm/internal/webhook"
)

type fakeProcessor struct {
	calls  []string
	result *service.WebhookResult
	err    error
}

func (f *fakeProcessor) handle(name string) (*service.WebhookResult, error) {
	f.calls = append(f.calls, name)
	return f.result, f.err
}

func (f *fakeProcessor) HandleTypeform(context.Context, []byte) (*service.WebhookResult, error) {
	return f.handle("typeform")
}

func (f *fakeProcessor) HandleCalendly(context.Context, []byte) (*service.WebhookResult, error) {
	return f.handle("calendly")
}

func (f *fakeProcessor) HandleWasender(context.Context, []byte) (*service.WebhookResult, error) {
	return f.handle("wasender")
}

func (f *fakeProcessor) HandleSamCart(context.Context, []byte) (*service.WebhookResult, error) {
	return f.handle("samcart")
}

func (f *fakeProcessor) HandleSlack(context.Context, []byte) (*service.WebhookResult, error) {
	return f.handle("slack")
}

func newWebhookRouter(p WebhookProcessor, secrets webhook.Secrets, maxBody int64) http.Handler {
	h := NewWebhookHandler(p, secrets, maxBody)
	r := chi.NewRouter()
	r.Post("/webhooks/{provider}", h.Receive)
	return r
}

func samcartSignature(secret, body string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(body))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestWebhookHandler_DispatchesVerifiedPayload(t *testing.T) {
	p := &fakeProcessor{result: &service.WebhookResult{Status: service.WebhookProcessed, EntityID: "m1"}}
	router := newWebhookRouter(p, webhook.Secrets{SamCart: "s3cret"}, 0)

	body := `{"type":"Order","order":{"id":1},"customer":{"email":"a@example.com"}}`
	req := httptest.NewRequest(http.MethodPost, "/webhooks/samcart", strings.NewReader(body))
	req.Header.Set(webhook.HeaderSamCart, samcartSignature("s3cret", body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var res service.WebhookResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, service.WebhookProcessed, res.Status)
	assert.Equal(t, []string{"samcart"}, p.calls)
}

func TestWebhookHandler_BadSignature(t *testing.T) {
	p := &fakeProcessor{}
	router := newWebhookRouter(p, webhook.Secrets{SamCart: "s3cret"}, 0)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/samcart", strings.NewReader(`{"type":"Order"}`))
	req.Header.Set(webhook.HeaderSamCart, "bogus")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, p.calls)
}

func TestWebhookHandler_SchemaViolation(t *testing.T) {
	p := &fakeProcessor{}
	router := newWebhookRouter(p, webhook.Secrets{}, 0)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/calendly", strings.NewReader(`{"payload":{}}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_PAYLOAD", decodeError(t, rec).Code)
	assert.Empty(t, p.calls)
}

func TestWebhookHandler_BodyTooLarge(t *testing.T) {
	p := &fakeProcessor{}
	router := newWebhookRouter(p, webhook.Secrets{}, 16)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/slack", strings.NewReader(`{"type":"url_verification","challenge":"abc"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Empty(t, p.calls)
}

func TestWebhookHandler_UnknownProvider(t *testing.T) {
	router := newWebhookRouter(&fakeProcessor{}, webhook.Secrets{}, 0)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/webhooks/github", strings.NewReader(`{}`)))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestWebhookHandler_ProcessingErrorIs500(t *testing.T) {
	p := &fakeProcessor{err: errors.New("db down")}
	router := newWebhookRouter(p, webhook.Secrets{}, 0)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/wasender", strings.NewReader(`{"event":"messages.upsert","data":{}}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, []string{"wasender"}, p.calls)
}
