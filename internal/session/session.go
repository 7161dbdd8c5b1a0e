// Package session управляет одной операцией изменения размера.
//
// Session хранит состояние размеров для одного файла и запускает convert
// в фоне. Фоновая горутина общается с интерфейсом только через канал
// Messages: статусы, пульс индикатора, результат и сигнал закрытия.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/artemshloyda/imageresizer/internal/magick"
	"github.com/artemshloyda/imageresizer/internal/notify"
	"github.com/artemshloyda/imageresizer/internal/sizing"
)

// Тексты статусов.
const (
	StatusStarting = "Starting resize operation..."
	StatusSuccess  = "Resize completed successfully!"
	StatusFailed   = "Resize failed - check error messages"
)

// DefaultPulseInterval - период пульса индикатора.
const DefaultPulseInterval = 100 * time.Millisecond

// ErrBusy возвращается при попытке запуска во время работы.
var ErrBusy = errors.New("изменение размера уже выполняется")

// Resizer выполняет изменение размера.
type Resizer interface {
	Resize(ctx context.Context, req magick.Request) (*magick.Result, error)
}

// Recorder сохраняет историю операций.
type Recorder interface {
	Begin(req magick.Request) (string, error)
	Finish(id string, res *magick.Result, err error) error
}

// MessageKind - вид сообщения от фоновой горутины.
type MessageKind int

const (
	// MsgStatus - новый текст статуса.
	MsgStatus MessageKind = iota
	// MsgPulse - шаг анимации индикатора.
	MsgPulse
	// MsgDone - операция завершена (Result или Err).
	MsgDone
	// MsgClose - можно закрывать интерфейс (только после успеха).
	MsgClose
)

// Message - сообщение от фоновой горутины.
type Message struct {
	Kind   MessageKind
	Text   string
	Result *magick.Result
	Err    error
}

// Options содержит настройки сессии.
type Options struct {
	// PulseInterval - период пульса (по умолчанию 100ms).
	PulseInterval time.Duration

	// CloseDelay - задержка перед MsgClose после успеха.
	CloseDelay time.Duration

	// Notifier - уведомления (по умолчанию отключены).
	Notifier notify.Notifier

	// Recorder - история (опционально).
	Recorder Recorder

	// Logger - диагностический лог.
	Logger *zap.Logger
}

// Session - одна операция изменения размера.
type Session struct {
	mu       sync.Mutex
	source   string
	state    sizing.State
	busy     bool
	resizer  Resizer
	opts     Options
	messages chan Message

	// notifying - уведомления об ошибках проверки, отправленные в фоне.
	notifying sync.WaitGroup
}

// New создаёт сессию для файла source с исходными размерами original.
func New(source string, original sizing.Dimensions, resizer Resizer, opts Options) *Session {
	if opts.PulseInterval <= 0 {
		opts.PulseInterval = DefaultPulseInterval
	}
	if opts.Notifier == nil {
		opts.Notifier = notify.Nop{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	return &Session{
		source:   source,
		state:    sizing.NewState(original),
		resizer:  resizer,
		opts:     opts,
		messages: make(chan Message, 16),
	}
}

// Source возвращает исходный файл.
func (s *Session) Source() string {
	return s.source
}

// Dispatch применяет событие к состоянию и возвращает новое состояние.
func (s *Session) Dispatch(e sizing.Event) sizing.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = sizing.Apply(s.state, e)
	return s.state
}

// State возвращает текущее состояние.
func (s *Session) State() sizing.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Busy возвращает true, пока convert выполняется.
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

// WaitNotifications ждёт отправки уведомлений об ошибках проверки.
// Нужен процессам, которые завершаются сразу после ошибки Start.
func (s *Session) WaitNotifications() {
	s.notifying.Wait()
}

// Messages возвращает канал сообщений от фоновой горутины.
func (s *Session) Messages() <-chan Message {
	return s.messages
}

// Start проверяет запрос и запускает изменение размера в фоне.
// Ошибка проверки показывается в уведомлении (в фоне), операция не запускается.
// После запуска операцию нельзя отменить: действует только таймаут convert.
func (s *Session) Start(ctx context.Context, output string, format sizing.OutputFormat) error {
	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return ErrBusy
	}

	target := s.state.Target()
	req := magick.Request{
		Source: s.source,
		Output: output,
		Width:  target.Width,
		Height: target.Height,
		Format: format,
	}

	if err := req.Validate(); err != nil {
		s.mu.Unlock()
		s.notifying.Add(1)
		go func() {
			defer s.notifying.Done()
			s.opts.Notifier.Notify(context.WithoutCancel(ctx), notify.Failure(err.Error()))
		}()
		return err
	}

	s.busy = true
	s.mu.Unlock()

	go s.run(context.WithoutCancel(ctx), req)
	return nil
}

// run выполняется в фоновой горутине.
func (s *Session) run(ctx context.Context, req magick.Request) {
	s.messages <- Message{Kind: MsgStatus, Text: StatusStarting}
	s.opts.Notifier.Notify(ctx, notify.Resizing())

	stopPulse := s.pulse()

	recordID := s.begin(req)
	res, err := s.resizer.Resize(ctx, req)
	s.finish(recordID, res, err)

	stopPulse()

	if err != nil {
		s.opts.Logger.Debug("изменение размера не удалось",
			zap.String("source", req.Source),
			zap.String("kind", magick.KindOf(err).String()),
			zap.Error(err))
		s.opts.Notifier.Notify(ctx, notify.Failure(err.Error()))
		s.messages <- Message{Kind: MsgStatus, Text: StatusFailed}
	} else {
		s.opts.Notifier.Notify(ctx, notify.Success(res.Message))
		s.messages <- Message{Kind: MsgStatus, Text: StatusSuccess}
	}

	s.mu.Lock()
	s.busy = false
	s.mu.Unlock()

	s.messages <- Message{Kind: MsgDone, Result: res, Err: err}

	if err == nil {
		if s.opts.CloseDelay > 0 {
			time.Sleep(s.opts.CloseDelay)
		}
		s.messages <- Message{Kind: MsgClose}
	}
}

// pulse запускает тики индикатора и возвращает функцию остановки.
// Тики пропускаются, если канал заполнен.
func (s *Session) pulse() func() {
	done := make(chan struct{})
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(s.opts.PulseInterval)
		defer ticker.Stop()

		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				select {
				case s.messages <- Message{Kind: MsgPulse}:
				default:
				}
			}
		}
	}()

	return func() {
		close(done)
		wg.Wait()
	}
}

func (s *Session) begin(req magick.Request) string {
	if s.opts.Recorder == nil {
		return ""
	}
	id, err := s.opts.Recorder.Begin(req)
	if err != nil {
		s.opts.Logger.Warn("не удалось записать историю", zap.Error(err))
		return ""
	}
	return id
}

func (s *Session) finish(id string, res *magick.Result, resizeErr error) {
	if s.opts.Recorder == nil || id == "" {
		return
	}
	if err := s.opts.Recorder.Finish(id, res, resizeErr); err != nil {
		s.opts.Logger.Warn("не удалось обновить историю", zap.String("id", id), zap.Error(err))
	}
}

// Consume читает сообщения до завершения операции и возвращает MsgDone.
// После успеха дожидается MsgClose. fn вызывается для каждого сообщения
// и может быть nil.
func (s *Session) Consume(fn func(Message)) Message {
	var done Message
	for msg := range s.messages {
		if fn != nil {
			fn(msg)
		}
		switch msg.Kind {
		case MsgDone:
			done = msg
			if msg.Err != nil {
				return done
			}
		case MsgClose:
			return done
		}
	}
	return done
}
