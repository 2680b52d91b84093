package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Slack отправляет сообщения в канал через incoming webhook
type Slack struct {
	webhookURL string
	client     *http.Client
}

// NewSlack создает Slack notifier
func NewSlack(webhookURL string, timeout time.Duration) *Slack {
	return &Slack{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: timeout},
	}
}

// Name возвращает имя канала
func (s *Slack) Name() string { return "slack" }

// Notify публикует текст в канал. Адресные письма (msg.To) в Slack не дублируются.
func (s *Slack) Notify(ctx context.Context, msg Message) error {
	if len(msg.To) > 0 {
		return nil
	}

	text := msg.Text
	if msg.Subject != "" {
		text = "*" + msg.Subject + "*\n" + msg.Text
	}

	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("slack webhook request: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("slack webhook returned %d", resp.StatusCode)
	}
	return nil
}
