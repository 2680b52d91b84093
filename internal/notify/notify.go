// Package notify доставляет уведомления команде и участникам.
// Отправка всегда best-effort: вызывающий код логирует ошибку и продолжает.
package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/aidar/member-crm/internal/metrics"
)

// Message представляет одно уведомление
type Message struct {
	Subject string
	Text    string
	// To адресаты письма. Пусто означает канал команды.
	To []string
}

// Notifier отправляет уведомления в один канал
type Notifier interface {
	Name() string
	Notify(ctx context.Context, msg Message) error
}

// Noop ничего не отправляет
type Noop struct{}

// Name возвращает имя канала
func (Noop) Name() string { return "noop" }

// Notify ничего не делает
func (Noop) Notify(context.Context, Message) error { return nil }

// Multi рассылает уведомление во все каналы и объединяет ошибки
type Multi struct {
	notifiers []Notifier
}

// NewMulti создает Multi из непустых каналов
func NewMulti(notifiers ...Notifier) *Multi {
	m := &Multi{}
	for _, n := range notifiers {
		if n != nil {
			m.notifiers = append(m.notifiers, n)
		}
	}
	return m
}

// Name возвращает имя канала
func (m *Multi) Name() string { return "multi" }

// Notify отправляет сообщение во все каналы, даже если часть из них упала
func (m *Multi) Notify(ctx context.Context, msg Message) error {
	var errs []error
	for _, n := range m.notifiers {
		if err := n.Notify(ctx, msg); err != nil {
			metrics.NotificationFailures.WithLabelValues(n.Name()).Inc()
			errs = append(errs, fmt.Errorf("%s: %w", n.Name(), err))
		}
	}
	return errors.Join(errs...)
}
