package webhook

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/aidar/member-crm/internal/domain"
)

// Provider идентифицирует источник вебхука
type Provider string

// Поддерживаемые провайдеры
const (
	ProviderTypeform Provider = "typeform"
	ProviderCalendly Provider = "calendly"
	ProviderWasender Provider = "wasender"
	ProviderSamCart  Provider = "samcart"
	ProviderSlack    Provider = "slack"
)

// Схемы описывают только ту часть payload'а, которую мы читаем
var rawSchemas = map[Provider]string{
	ProviderTypeform: `{
		"type": "object",
		"required": ["event_type", "form_response"],
		"properties": {
			"event_id": {"type": "string"},
			"event_type": {"type": "string"},
			"form_response": {
				"type": "object",
				"required": ["token", "answers"],
				"properties": {
					"token": {"type": "string", "minLength": 1},
					"answers": {
						"type": "array",
						"items": {
							"type": "object",
							"required": ["field"],
							"properties": {
								"field": {"type": "object", "properties": {"ref": {"type": "string"}}}
							}
						}
					}
				}
			}
		}
	}`,
	ProviderCalendly: `{
		"type": "object",
		"required": ["event", "payload"],
		"properties": {
			"event": {"type": "string"},
			"payload": {
				"type": "object",
				"properties": {
					"email": {"type": "string"},
					"name": {"type": "string"},
					"uri": {"type": "string"},
					"scheduled_event": {
						"type": "object",
						"properties": {"start_time": {"type": "string"}}
					}
				}
			}
		}
	}`,
	ProviderWasender: `{
		"type": "object",
		"required": ["event"],
		"properties": {
			"event": {"type": "string"},
			"data": {"type": "object"}
		}
	}`,
	ProviderSamCart: `{
		"type": "object",
		"required": ["type"],
		"properties": {
			"type": {"type": "string", "minLength": 1},
			"order": {
				"type": "object",
				"properties": {"id": {"type": ["integer", "string"]}}
			},
			"customer": {
				"type": "object",
				"properties": {
					"email": {"type": "string"},
					"first_name": {"type": "string"},
					"last_name": {"type": "string"},
					"phone_number": {"type": "string"}
				}
			}
		}
	}`,
	ProviderSlack: `{
		"type": "object",
		"required": ["type"],
		"properties": {
			"type": {"enum": ["url_verification", "event_callback", "app_rate_limited"]},
			"challenge": {"type": "string"},
			"event_id": {"type": "string"},
			"event": {
				"type": "object",
				"properties": {
					"type": {"type": "string"},
					"user": {"type": "object"}
				}
			}
		}
	}`,
}

var schemas = mustCompile(rawSchemas)

func mustCompile(raw map[Provider]string) map[Provider]*gojsonschema.Schema {
	out := make(map[Provider]*gojsonschema.Schema, len(raw))
	for p, s := range raw {
		schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(s))
		if err != nil {
			panic(fmt.Sprintf("webhook schema %s: %v", p, err))
		}
		out[p] = schema
	}
	return out
}

// ValidatePayload проверяет тело вебхука по схеме провайдера
func ValidatePayload(p Provider, body []byte) error {
	schema, ok := schemas[p]
	if !ok {
		return fmt.Errorf("%w: unknown provider %q", domain.ErrInvalidPayload, p)
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidPayload, err)
	}

	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return fmt.Errorf("%w: %s", domain.ErrInvalidPayload, strings.Join(errs, "; "))
	}
	return nil
}
