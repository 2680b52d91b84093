package webhook

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// TypeformPayload событие form_response
type TypeformPayload struct {
	EventID      string `json:"event_id"`
	EventType    string `json:"event_type"`
	FormResponse struct {
		FormID      string           `json:"form_id"`
		Token       string           `json:"token"`
		SubmittedAt time.Time        `json:"submitted_at"`
		Answers     []TypeformAnswer `json:"answers"`
	} `json:"form_response"`
}

// TypeformAnswer один ответ формы
type TypeformAnswer struct {
	Type  string `json:"type"`
	Field struct {
		ID   string `json:"id"`
		Ref  string `json:"ref"`
		Type string `json:"type"`
	} `json:"field"`
	Text        string   `json:"text"`
	Email       string   `json:"email"`
	PhoneNumber string   `json:"phone_number"`
	URL         string   `json:"url"`
	Number      *float64 `json:"number"`
	Choice      *struct {
		Label string `json:"label"`
	} `json:"choice"`
	Choices *struct {
		Labels []string `json:"labels"`
	} `json:"choices"`
}

// Value возвращает ответ как строку независимо от типа поля
func (a TypeformAnswer) Value() string {
	switch {
	case a.Email != "":
		return a.Email
	case a.PhoneNumber != "":
		return a.PhoneNumber
	case a.Text != "":
		return a.Text
	case a.URL != "":
		return a.URL
	case a.Choice != nil:
		return a.Choice.Label
	case a.Choices != nil:
		return strings.Join(a.Choices.Labels, ", ")
	case a.Number != nil:
		return strconv.FormatFloat(*a.Number, 'f', -1, 64)
	}
	return ""
}

// AnswersByRef возвращает ответы, сгруппированные по ref поля
func (p *TypeformPayload) AnswersByRef() map[string]string {
	out := make(map[string]string, len(p.FormResponse.Answers))
	for _, a := range p.FormResponse.Answers {
		if a.Field.Ref == "" {
			continue
		}
		out[a.Field.Ref] = strings.TrimSpace(a.Value())
	}
	return out
}

// DeliveryID идентификатор доставки
func (p *TypeformPayload) DeliveryID() string {
	if p.EventID != "" {
		return p.EventID
	}
	return p.FormResponse.Token
}

// CalendlyPayload события invitee.created / invitee.canceled
type CalendlyPayload struct {
	Event     string `json:"event"`
	CreatedAt string `json:"created_at"`
	Payload   struct {
		URI                string `json:"uri"`
		Email              string `json:"email"`
		Name               string `json:"name"`
		FirstName          string `json:"first_name"`
		LastName           string `json:"last_name"`
		TextReminderNumber string `json:"text_reminder_number"`
		ScheduledEvent     struct {
			URI       string     `json:"uri"`
			StartTime *time.Time `json:"start_time"`
		} `json:"scheduled_event"`
		QuestionsAndAnswers []struct {
			Question string `json:"question"`
			Answer   string `json:"answer"`
		} `json:"questions_and_answers"`
	} `json:"payload"`
}

// Phone возвращает телефон из напоминаний или из ответов на вопросы
func (p *CalendlyPayload) Phone() string {
	if p.Payload.TextReminderNumber != "" {
		return p.Payload.TextReminderNumber
	}
	for _, qa := range p.Payload.QuestionsAndAnswers {
		q := strings.ToLower(qa.Question)
		if strings.Contains(q, "phone") || strings.Contains(q, "whatsapp") {
			return qa.Answer
		}
	}
	return ""
}

// Names возвращает имя и фамилию приглашенного
func (p *CalendlyPayload) Names() (string, string) {
	if p.Payload.FirstName != "" || p.Payload.LastName != "" {
		return p.Payload.FirstName, p.Payload.LastName
	}
	first, last, _ := strings.Cut(strings.TrimSpace(p.Payload.Name), " ")
	return first, strings.TrimSpace(last)
}

// DeliveryID идентификатор доставки
func (p *CalendlyPayload) DeliveryID(body []byte) string {
	if p.Payload.URI == "" {
		return BodyDigest(body)
	}
	return p.Event + ":" + p.Payload.URI
}

// WasenderPayload события group-participants.update и messages.upsert
type WasenderPayload struct {
	Event     string          `json:"event"`
	Timestamp json.Number     `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// WasenderGroupUpdate данные group-participants.update
type WasenderGroupUpdate struct {
	ID           string            `json:"id"`
	Action       string            `json:"action"`
	Participants []json.RawMessage `json:"participants"`
}

// WasenderMessage данные messages.upsert
type WasenderMessage struct {
	Messages struct {
		Key struct {
			ID          string `json:"id"`
			RemoteJID   string `json:"remoteJid"`
			FromMe      bool   `json:"fromMe"`
			Participant string `json:"participant"`
		} `json:"key"`
		PushName string `json:"pushName"`
	} `json:"messages"`
}

// ParticipantPhones извлекает телефоны участников. Участник приходит строкой JID
// или объектом с полем id/phoneNumber.
func (g *WasenderGroupUpdate) ParticipantPhones() []string {
	var phones []string
	for _, raw := range g.Participants {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			phones = append(phones, JIDPhone(s))
			continue
		}
		var obj struct {
			ID          string `json:"id"`
			PhoneNumber string `json:"phoneNumber"`
		}
		if err := json.Unmarshal(raw, &obj); err == nil {
			if obj.PhoneNumber != "" {
				phones = append(phones, JIDPhone(obj.PhoneNumber))
			} else if obj.ID != "" {
				phones = append(phones, JIDPhone(obj.ID))
			}
		}
	}
	return phones
}

// JIDPhone отрезает суффикс WhatsApp JID ("15551234567@s.whatsapp.net" -> "15551234567")
func JIDPhone(jid string) string {
	phone, _, _ := strings.Cut(jid, "@")
	phone, _, _ = strings.Cut(phone, ":")
	return phone
}

// SamCartPayload события Order, Refund, Cancel, SubscriptionChargeFailed
type SamCartPayload struct {
	Type  string `json:"type"`
	Order struct {
		ID json.RawMessage `json:"id"`
	} `json:"order"`
	Customer struct {
		Email       string `json:"email"`
		FirstName   string `json:"first_name"`
		LastName    string `json:"last_name"`
		PhoneNumber string `json:"phone_number"`
	} `json:"customer"`
}

// OrderID возвращает идентификатор заказа строкой
func (p *SamCartPayload) OrderID() string {
	raw := strings.TrimSpace(string(p.Order.ID))
	if raw == "" || raw == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(p.Order.ID, &s); err == nil {
		return s
	}
	return raw
}

// DeliveryID идентификатор доставки
func (p *SamCartPayload) DeliveryID(body []byte) string {
	if id := p.OrderID(); id != "" {
		return p.Type + ":" + id
	}
	return BodyDigest(body)
}

// SlackPayload Events API
type SlackPayload struct {
	Type      string `json:"type"`
	Challenge string `json:"challenge"`
	EventID   string `json:"event_id"`
	Event     struct {
		Type string    `json:"type"`
		User SlackUser `json:"user"`
	} `json:"event"`
}

// SlackUser пользователь из события team_join
type SlackUser struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	RealName string `json:"real_name"`
	Profile  struct {
		Email     string `json:"email"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		RealName  string `json:"real_name"`
		Phone     string `json:"phone"`
	} `json:"profile"`
}

// BodyDigest sha256 тела, используется как идентификатор доставки когда провайдер его не передает
func BodyDigest(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}
