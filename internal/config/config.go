// Package config содержит конфигурацию приложения.
package config

import (
	"fmt"
	"time"

	"github.com/artemshloyda/imageresizer/internal/magick"
	"github.com/artemshloyda/imageresizer/internal/sizing"
)

// Config содержит все настройки приложения.
type Config struct {
	// ConvertPath - путь к convert (опционально, по умолчанию автопоиск).
	ConvertPath string

	// IdentifyPath - путь к identify (опционально, по умолчанию автопоиск).
	IdentifyPath string

	// ProbeTimeout - таймаут identify.
	ProbeTimeout time.Duration

	// ResizeTimeout - таймаут convert.
	ResizeTimeout time.Duration

	// DefaultPreset - пресет для запуска из файлового менеджера и watch.
	DefaultPreset sizing.Preset

	// OutputFormat - выходной формат по умолчанию.
	OutputFormat sizing.OutputFormat

	// LockAspect - сохранять пропорции при вводе одной стороны.
	LockAspect bool

	// PulseInterval - период анимации индикатора.
	PulseInterval time.Duration

	// CloseDelay - задержка перед закрытием после успеха.
	CloseDelay time.Duration

	// NoProgress - отключить индикатор.
	NoProgress bool

	// Notify - показывать уведомления на рабочем столе.
	Notify bool

	// NotifyTimeout - таймаут отправки уведомления.
	NotifyTimeout time.Duration

	// HistoryDB - путь к SQLite базе истории (пусто = история не ведётся).
	HistoryDB string

	// Verbose - подробный вывод.
	Verbose bool
}

// DefaultConfig возвращает конфигурацию по умолчанию.
func DefaultConfig() *Config {
	return &Config{
		ProbeTimeout:  magick.DefaultProbeTimeout,
		ResizeTimeout: magick.DefaultResizeTimeout,
		DefaultPreset: sizing.Preset50,
		OutputFormat:  sizing.FormatSame,
		LockAspect:    true,
		PulseInterval: 100 * time.Millisecond,
		CloseDelay:    0,
		Notify:        true,
		NotifyTimeout: 5 * time.Second,
	}
}

// Validate проверяет корректность конфигурации.
func (c *Config) Validate() error {
	if c.ProbeTimeout <= 0 {
		return fmt.Errorf("таймаут identify должен быть > 0, получено: %s", c.ProbeTimeout)
	}
	if c.ResizeTimeout <= 0 {
		return fmt.Errorf("таймаут convert должен быть > 0, получено: %s", c.ResizeTimeout)
	}
	if c.PulseInterval <= 0 {
		return fmt.Errorf("период индикатора должен быть > 0, получено: %s", c.PulseInterval)
	}
	if c.CloseDelay < 0 {
		return fmt.Errorf("задержка закрытия не может быть отрицательной: %s", c.CloseDelay)
	}
	if c.NotifyTimeout <= 0 {
		return fmt.Errorf("таймаут уведомлений должен быть > 0, получено: %s", c.NotifyTimeout)
	}
	if _, err := sizing.ParsePreset(string(c.DefaultPreset)); err != nil {
		return err
	}
	if _, err := sizing.ParseFormat(string(c.OutputFormat)); err != nil {
		return err
	}
	return nil
}

/*
Возможные расширения:
- Пути к утилитам GraphicsMagick
- Качество для lossy форматов (-quality)
*/
