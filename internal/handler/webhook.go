package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/aidar/member-crm/internal/domain"
	"github.com/aidar/member-crm/internal/metrics"
	"github.com/aidar/member-crm/internal/middleware"
	"github.com/aidar/member-crm/internal/service"
	"github.com/aidar/member-crm/internal/webhook"
)

// WebhookProcessor обрабатывает проверенные вебхуки
type WebhookProcessor interface {
	HandleTypeform(ctx context.Context, body []byte) (*service.WebhookResult, error)
	HandleCalendly(ctx context.Context, body []byte) (*service.WebhookResult, error)
	HandleWasender(ctx context.Context, body []byte) (*service.WebhookResult, error)
	HandleSamCart(ctx context.Context, body []byte) (*service.WebhookResult, error)
	HandleSlack(ctx context.Context, body []byte) (*service.WebhookResult, error)
}

// WebhookHandler принимает вебхуки провайдеров
type WebhookHandler struct {
	processor WebhookProcessor
	secrets   webhook.Secrets
	maxBody   int64
	now       func() time.Time
}

// NewWebhookHandler создает новый WebhookHandler
func NewWebhookHandler(processor WebhookProcessor, secrets webhook.Secrets, maxBody int64) *WebhookHandler {
	if maxBody <= 0 {
		maxBody = 1 << 20
	}
	return &WebhookHandler{
		processor: processor,
		secrets:   secrets,
		maxBody:   maxBody,
		now:       time.Now,
	}
}

// Receive обрабатывает POST /webhooks/{provider}.
// Порядок: размер тела, подпись, схема, затем claim и обработка в сервисе
func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	provider := webhook.Provider(chi.URLParam(r, "provider"))
	handle := h.dispatch(provider)
	if handle == nil {
		RespondWithError(w, r, http.StatusNotFound, string(domain.CodeNotFound), "unknown webhook provider")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBody))
	if err != nil {
		h.reject(provider)
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			RespondWithError(w, r, http.StatusRequestEntityTooLarge, string(domain.CodeInvalidPayload), "payload too large")
			return
		}
		RespondWithError(w, r, http.StatusBadRequest, string(domain.CodeInvalidPayload), "failed to read body")
		return
	}

	// Проверяем подпись до разбора тела
	if err := h.secrets.Verify(provider, r.Header, body, h.now()); err != nil {
		h.reject(provider)
		middleware.LoggerFromContext(r.Context()).Warn("webhook signature rejected",
			zap.String("provider", string(provider)),
			zap.Error(err),
		)
		RespondWithError(w, r, http.StatusUnauthorized, string(domain.CodeUnauthorized), "invalid signature")
		return
	}

	if err := webhook.ValidatePayload(provider, body); err != nil {
		h.reject(provider)
		RespondWithError(w, r, http.StatusBadRequest, string(domain.CodeInvalidPayload), err.Error())
		return
	}

	result, err := handle(r.Context(), body)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusOK, result)
}

func (h *WebhookHandler) dispatch(p webhook.Provider) func(context.Context, []byte) (*service.WebhookResult, error) {
	switch p {
	case webhook.ProviderTypeform:
		return h.processor.HandleTypeform
	case webhook.ProviderCalendly:
		return h.processor.HandleCalendly
	case webhook.ProviderWasender:
		return h.processor.HandleWasender
	case webhook.ProviderSamCart:
		return h.processor.HandleSamCart
	case webhook.ProviderSlack:
		return h.processor.HandleSlack
	default:
		return nil
	}
}

func (h *WebhookHandler) reject(p webhook.Provider) {
	metrics.WebhookEvents.WithLabelValues(string(p), metrics.OutcomeRejected).Inc()
}
