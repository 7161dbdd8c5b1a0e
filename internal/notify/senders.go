package notify

import (
	"context"
	"fmt"

	"github.com/godbus/dbus/v5"

	"github.com/artemshloyda/imageresizer/internal/magick"
)

const (
	dbusDest   = "org.freedesktop.Notifications"
	dbusPath   = dbus.ObjectPath("/org/freedesktop/Notifications")
	dbusMethod = "org.freedesktop.Notifications.Notify"

	// AppName - имя приложения в уведомлениях.
	AppName = "imageresizer"
)

// DBusSender отправляет уведомления через сессионную шину.
type DBusSender struct {
	// connect открывает соединение (подменяется в тестах).
	connect func() (*dbus.Conn, error)
}

// NewDBusSender создаёт DBusSender.
func NewDBusSender() *DBusSender {
	return &DBusSender{connect: dbus.SessionBus}
}

// Name возвращает имя способа.
func (s *DBusSender) Name() string { return "dbus" }

// Send вызывает org.freedesktop.Notifications.Notify.
func (s *DBusSender) Send(ctx context.Context, n Notification) error {
	conn, err := s.connect()
	if err != nil {
		return fmt.Errorf("сессионная шина недоступна: %w", err)
	}

	obj := conn.Object(dbusDest, dbusPath)
	call := obj.CallWithContext(ctx, dbusMethod, 0,
		AppName,
		uint32(0),
		iconFor(n.Kind),
		n.Title,
		n.Body,
		[]string{},
		map[string]dbus.Variant{},
		int32(-1),
	)
	if call.Err != nil {
		return fmt.Errorf("вызов Notify: %w", call.Err)
	}
	return nil
}

// iconFor возвращает имя иконки по виду уведомления.
func iconFor(k Kind) string {
	switch k {
	case KindSuccess:
		return "dialog-information"
	case KindError:
		return "dialog-error"
	}
	return "image-x-generic"
}

// CommandSender отправляет уведомления через notify-send.
type CommandSender struct {
	// Path - путь к notify-send.
	Path string

	runner magick.Runner
}

// NewCommandSender создаёт CommandSender для notify-send из PATH.
func NewCommandSender() *CommandSender {
	return &CommandSender{Path: "notify-send", runner: magick.ExecRunner{}}
}

// SetRunner устанавливает способ запуска процессов.
func (s *CommandSender) SetRunner(r magick.Runner) {
	s.runner = r
}

// Name возвращает имя способа.
func (s *CommandSender) Name() string { return "notify-send" }

// Send запускает `notify-send <title> <body>`.
func (s *CommandSender) Send(ctx context.Context, n Notification) error {
	res, err := s.runner.Run(ctx, s.Path, n.Title, n.Body)
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		return fmt.Errorf("%s завершился с кодом %d", s.Path, res.ExitCode)
	}
	return nil
}
