// Package notify отправляет уведомления на рабочий стол.
//
// Порядок попыток: D-Bus (org.freedesktop.Notifications), затем notify-send.
// Если оба способа недоступны, уведомление пишется в лог.
// Ошибки доставки никогда не возвращаются вызывающему коду.
package notify

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// DefaultTimeout - таймаут на одну попытку отправки.
const DefaultTimeout = 5 * time.Second

// Kind - вид уведомления.
type Kind int

const (
	// KindInfo - информационное уведомление.
	KindInfo Kind = iota
	// KindSuccess - операция завершена успешно.
	KindSuccess
	// KindError - операция завершилась ошибкой.
	KindError
)

// String возвращает имя вида уведомления.
func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindError:
		return "error"
	}
	return "info"
}

// Notification - одно уведомление.
type Notification struct {
	Kind  Kind
	Title string
	Body  string
}

// Resizing возвращает уведомление о начале изменения размера.
func Resizing() Notification {
	return Notification{Kind: KindInfo, Title: "Resizing", Body: "Image resize in progress..."}
}

// Success возвращает уведомление об успехе.
func Success(body string) Notification {
	return Notification{Kind: KindSuccess, Title: "Success", Body: body}
}

// Failure возвращает уведомление об ошибке.
func Failure(body string) Notification {
	return Notification{Kind: KindError, Title: "Error", Body: body}
}

// Notifier показывает уведомления.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// Sender - один способ доставки уведомления.
type Sender interface {
	// Name - имя способа для логов.
	Name() string

	// Send пытается доставить уведомление.
	Send(ctx context.Context, n Notification) error
}

// Desktop перебирает способы доставки до первого успешного.
type Desktop struct {
	senders []Sender
	timeout time.Duration
	logger  *zap.Logger
}

// NewDesktopWithSenders создаёт Desktop с указанными способами доставки.
func NewDesktopWithSenders(timeout time.Duration, logger *zap.Logger, senders ...Sender) *Desktop {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Desktop{
		senders: senders,
		timeout: timeout,
		logger:  logger,
	}
}

// Notify отправляет уведомление. Ошибки только логируются.
func (d *Desktop) Notify(ctx context.Context, n Notification) {
	for _, s := range d.senders {
		sctx, cancel := context.WithTimeout(ctx, d.timeout)
		err := s.Send(sctx, n)
		cancel()

		if err == nil {
			d.logger.Debug("уведомление отправлено",
				zap.String("sender", s.Name()),
				zap.String("title", n.Title))
			return
		}

		d.logger.Debug("способ доставки недоступен",
			zap.String("sender", s.Name()),
			zap.Error(err))
	}

	d.logger.Warn("уведомление не доставлено",
		zap.String("kind", n.Kind.String()),
		zap.String("title", n.Title),
		zap.String("body", n.Body))
}

// Nop не показывает уведомлений.
type Nop struct{}

// Notify ничего не делает.
func (Nop) Notify(context.Context, Notification) {}
