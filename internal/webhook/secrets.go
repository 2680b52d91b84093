package webhook

import (
	"fmt"
	"net/http"
	"time"

	"github.com/aidar/member-crm/internal/domain"
)

// Secrets секреты провайдеров для проверки подписей
type Secrets struct {
	Typeform           string
	CalendlySigningKey string
	Wasender           string
	SamCart            string
	SlackSigning       string
}

// Verify проверяет подпись запроса провайдера p
func (s Secrets) Verify(p Provider, header http.Header, body []byte, now time.Time) error {
	switch p {
	case ProviderTypeform:
		return VerifyTypeform(s.Typeform, body, header.Get(HeaderTypeform))
	case ProviderCalendly:
		return VerifyCalendly(s.CalendlySigningKey, body, header.Get(HeaderCalendly), now)
	case ProviderWasender:
		return VerifyWasender(s.Wasender, header.Get(HeaderWasender))
	case ProviderSamCart:
		return VerifySamCart(s.SamCart, body, header.Get(HeaderSamCart))
	case ProviderSlack:
		return VerifySlack(s.SlackSigning, body, header.Get(HeaderSlackTimestamp), header.Get(HeaderSlackSignature), now)
	default:
		return fmt.Errorf("%w: unknown provider %q", domain.ErrInvalidSignature, p)
	}
}
