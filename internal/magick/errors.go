package magick

import (
	"errors"
	"strings"
)

// Kind - вид ошибки изменения размера.
type Kind int

const (
	// KindUnknown - ошибка не из этого пакета.
	KindUnknown Kind = iota
	// KindValidation - не заданы размеры или выходной путь.
	KindValidation
	// KindOutputDir - не удалось создать выходную директорию.
	KindOutputDir
	// KindToolMissing - convert не найден.
	KindToolMissing
	// KindTimeout - convert не уложился в таймаут.
	KindTimeout
	// KindNonZeroExit - convert завершился с ненулевым кодом.
	KindNonZeroExit
	// KindUnexpected - прочие ошибки запуска.
	KindUnexpected
)

// String возвращает имя вида ошибки.
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindOutputDir:
		return "output_dir"
	case KindToolMissing:
		return "tool_missing"
	case KindTimeout:
		return "timeout"
	case KindNonZeroExit:
		return "nonzero_exit"
	case KindUnexpected:
		return "unexpected"
	}
	return "unknown"
}

var (
	// ErrNoDimensions - не задана ни ширина, ни высота.
	ErrNoDimensions = errors.New("Please enter valid width and/or height values")

	// ErrNoOutput - не выбран выходной файл.
	ErrNoOutput = errors.New("Please choose an output file")
)

// InstallHint - подсказка по установке ImageMagick.
const InstallHint = "Install ImageMagick:\n" +
	"  Debian/Ubuntu: sudo apt install imagemagick\n" +
	"  Fedora:        sudo dnf install ImageMagick\n" +
	"  Arch:          sudo pacman -S imagemagick\n" +
	"  macOS:         brew install imagemagick"

// Error - ошибка изменения размера с сообщением для пользователя.
type Error struct {
	// Kind - вид ошибки.
	Kind Kind

	// Message - текст для показа пользователю.
	Message string

	// ExitCode - код завершения convert (для KindNonZeroExit).
	ExitCode int

	// Stderr - вывод stderr от convert.
	Stderr string

	// Err - исходная ошибка.
	Err error
}

// Error возвращает сообщение для пользователя.
func (e *Error) Error() string {
	return e.Message
}

// Unwrap возвращает исходную ошибку.
func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf возвращает вид ошибки или KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func validationError(err error) *Error {
	return &Error{Kind: KindValidation, Message: err.Error(), Err: err}
}

// trimStderr убирает лишние переводы строк по краям.
func trimStderr(s string) string {
	return strings.TrimSpace(s)
}
