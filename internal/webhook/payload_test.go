package webhook

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aidar/member-crm/internal/domain"
)

const typeformBody = `{
	"event_id": "01HX",
	"event_type": "form_response",
	"form_response": {
		"form_id": "f1",
		"token": "tok-1",
		"submitted_at": "2024-05-01T10:00:00Z",
		"answers": [
			{"type": "text", "text": " Jane ", "field": {"id": "a", "ref": "first_name", "type": "short_text"}},
			{"type": "email", "email": "jane@example.com", "field": {"id": "b", "ref": "email", "type": "email"}},
			{"type": "phone_number", "phone_number": "+15551234567", "field": {"id": "c", "ref": "phone", "type": "phone_number"}},
			{"type": "choice", "choice": {"label": "Agency"}, "field": {"id": "d", "ref": "business_type", "type": "multiple_choice"}},
			{"type": "number", "number": 250000, "field": {"id": "e", "ref": "annual_revenue", "type": "number"}},
			{"type": "text", "text": "ignored", "field": {"id": "f", "type": "short_text"}}
		]
	}
}`

func TestTypeformPayload(t *testing.T) {
	require.NoError(t, ValidatePayload(ProviderTypeform, []byte(typeformBody)))

	var p TypeformPayload
	require.NoError(t, json.Unmarshal([]byte(typeformBody), &p))

	answers := p.AnswersByRef()
	assert.Equal(t, "Jane", answers["first_name"])
	assert.Equal(t, "jane@example.com", answers["email"])
	assert.Equal(t, "+15551234567", answers["phone"])
	assert.Equal(t, "Agency", answers["business_type"])
	assert.Equal(t, "250000", answers["annual_revenue"])
	assert.Len(t, answers, 5)
	assert.Equal(t, "01HX", p.DeliveryID())
}

func TestValidatePayload_Rejects(t *testing.T) {
	err := ValidatePayload(ProviderTypeform, []byte(`{"event_type":"form_response"}`))
	assert.ErrorIs(t, err, domain.ErrInvalidPayload)

	err = ValidatePayload(ProviderSlack, []byte(`{"type":"something_else"}`))
	assert.ErrorIs(t, err, domain.ErrInvalidPayload)

	err = ValidatePayload(ProviderSamCart, []byte(`not json`))
	assert.ErrorIs(t, err, domain.ErrInvalidPayload)

	err = ValidatePayload(Provider("nope"), []byte(`{}`))
	assert.ErrorIs(t, err, domain.ErrInvalidPayload)
}

func TestCalendlyPayload(t *testing.T) {
	body := []byte(`{
		"event": "invitee.created",
		"payload": {
			"uri": "https://api.calendly.com/invitees/1",
			"email": "JANE@example.com",
			"name": "Jane Doe",
			"questions_and_answers": [{"question": "Your phone number", "answer": "555-123-4567"}],
			"scheduled_event": {"start_time": "2024-05-02T15:00:00Z"}
		}
	}`)
	require.NoError(t, ValidatePayload(ProviderCalendly, body))

	var p CalendlyPayload
	require.NoError(t, json.Unmarshal(body, &p))

	first, last := p.Names()
	assert.Equal(t, "Jane", first)
	assert.Equal(t, "Doe", last)
	assert.Equal(t, "555-123-4567", p.Phone())
	assert.Equal(t, "invitee.created:https://api.calendly.com/invitees/1", p.DeliveryID(body))
	require.NotNil(t, p.Payload.ScheduledEvent.StartTime)
}

func TestWasenderParticipants(t *testing.T) {
	var g WasenderGroupUpdate
	require.NoError(t, json.Unmarshal([]byte(`{
		"id": "123@g.us",
		"action": "add",
		"participants": ["15551234567@s.whatsapp.net", {"id": "447700900123:5@s.whatsapp.net"}, {"phoneNumber": "+4915112345678"}]
	}`), &g))

	assert.Equal(t, []string{"15551234567", "447700900123", "+4915112345678"}, g.ParticipantPhones())
}

func TestSamCartOrderID(t *testing.T) {
	var p SamCartPayload
	require.NoError(t, json.Unmarshal([]byte(`{"type":"Order","order":{"id":98765}}`), &p))
	assert.Equal(t, "98765", p.OrderID())
	assert.Equal(t, "Order:98765", p.DeliveryID(nil))

	var q SamCartPayload
	require.NoError(t, json.Unmarshal([]byte(`{"type":"Refund","order":{"id":"A-1"}}`), &q))
	assert.Equal(t, "A-1", q.OrderID())

	var empty SamCartPayload
	body := []byte(`{"type":"Cancel"}`)
	require.NoError(t, json.Unmarshal(body, &empty))
	assert.Equal(t, BodyDigest(body), empty.DeliveryID(body))
}
