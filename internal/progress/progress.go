// Package progress предоставляет индикатор для операций без реального прогресса.
// convert не сообщает о ходе работы, поэтому индикатор только пульсирует.
package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
)

// Spinner представляет пульсирующий индикатор.
type Spinner struct {
	// bar - внутренний progressbar в режиме спиннера.
	bar *progressbar.ProgressBar

	// mu защищает доступ к bar.
	mu sync.Mutex

	// disabled - флаг отключения индикатора.
	disabled bool

	// pulses - количество тиков.
	pulses int64

	// startTime - время запуска.
	startTime time.Time

	// writer - куда выводить (по умолчанию os.Stderr).
	writer io.Writer
}

// Options содержит настройки индикатора.
type Options struct {
	// Description - текст рядом с индикатором.
	Description string

	// Disabled - отключить индикатор (только текстовый вывод).
	Disabled bool

	// Writer - куда выводить (по умолчанию os.Stderr).
	Writer io.Writer
}

// New создаёт новый индикатор.
func New(opts Options) *Spinner {
	writer := opts.Writer
	if writer == nil {
		writer = os.Stderr
	}

	s := &Spinner{
		disabled:  opts.Disabled,
		startTime: time.Now(),
		writer:    writer,
	}

	if !opts.Disabled {
		description := opts.Description
		if description == "" {
			description = "Изменение размера..."
		}

		// max = -1 переводит progressbar в режим спиннера
		s.bar = progressbar.NewOptions(-1,
			progressbar.OptionSetWriter(writer),
			progressbar.OptionEnableColorCodes(true),
			progressbar.OptionSpinnerType(14),
			progressbar.OptionSetDescription("[cyan]"+description+"[reset]"),
			progressbar.OptionClearOnFinish(),
		)
	}

	return s
}

// Pulse продвигает анимацию на один шаг.
func (s *Spinner) Pulse() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pulses++

	if s.bar != nil {
		_ = s.bar.Add(1)
	}
}

// Describe меняет текст рядом с индикатором.
func (s *Spinner) Describe(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.bar != nil {
		s.bar.Describe("[cyan]" + text + "[reset]")
	}
}

// Finish убирает индикатор.
func (s *Spinner) Finish() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.bar != nil {
		_ = s.bar.Finish()
	}
}

// Pulses возвращает количество тиков.
func (s *Spinner) Pulses() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pulses
}

// Duration возвращает время с момента запуска.
func (s *Spinner) Duration() time.Duration {
	return time.Since(s.startTime)
}

// IsDisabled возвращает true, если индикатор отключён.
func (s *Spinner) IsDisabled() bool {
	return s.disabled
}

// WriteMessage выводит сообщение, временно скрывая индикатор.
func (s *Spinner) WriteMessage(format string, args ...interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.bar != nil {
		_ = s.bar.Clear()
	}

	fmt.Fprintf(s.writer, format, args...)

	if s.bar != nil {
		_ = s.bar.RenderBlank()
	}
}
