package magick

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/artemshloyda/imageresizer/internal/sizing"
)

// DefaultResizeTimeout - таймаут convert по умолчанию.
const DefaultResizeTimeout = 30 * time.Second

// Request - запрос на изменение размера.
type Request struct {
	// Source - исходный файл.
	Source string

	// Output - выходной файл. Формат convert определяет по расширению.
	Output string

	// Width - целевая ширина (0 = не задана).
	Width int

	// Height - целевая высота (0 = не задана).
	Height int

	// Format - выбранный выходной формат.
	Format sizing.OutputFormat
}

// Validate проверяет запрос до запуска convert.
func (r Request) Validate() error {
	if r.Width <= 0 && r.Height <= 0 {
		return validationError(ErrNoDimensions)
	}
	if r.Output == "" {
		return validationError(ErrNoOutput)
	}
	return nil
}

// Result содержит результат успешного изменения размера.
type Result struct {
	// Output - путь к сохранённому файлу.
	Output string

	// Token - аргумент -resize.
	Token string

	// Message - сообщение для пользователя.
	Message string

	// Stderr - вывод stderr от convert (предупреждения).
	Stderr string

	// Duration - время работы convert.
	Duration time.Duration
}

// ResizeToken строит аргумент -resize:
// обе стороны - "WxH", только ширина - "W", только высота - "xH".
func ResizeToken(width, height int) (string, error) {
	switch {
	case width > 0 && height > 0:
		return fmt.Sprintf("%dx%d", width, height), nil
	case width > 0:
		return strconv.Itoa(width), nil
	case height > 0:
		return fmt.Sprintf("x%d", height), nil
	}
	return "", validationError(ErrNoDimensions)
}

// Resizer изменяет размер изображения через convert.
type Resizer struct {
	// runner - запуск процессов.
	runner Runner

	// tool - бинарник convert.
	tool Tool

	// timeout - таймаут на один вызов convert.
	timeout time.Duration

	// logger - диагностический лог.
	logger *zap.Logger
}

// NewResizer создаёт новый Resizer.
func NewResizer(runner Runner, tool Tool) *Resizer {
	return &Resizer{
		runner:  runner,
		tool:    tool,
		timeout: DefaultResizeTimeout,
		logger:  zap.NewNop(),
	}
}

// SetTimeout устанавливает таймаут.
func (r *Resizer) SetTimeout(d time.Duration) {
	r.timeout = d
}

// SetLogger устанавливает логгер.
func (r *Resizer) SetLogger(l *zap.Logger) {
	r.logger = l
}

// Resize выполняет `convert <source> -resize <token> <output>`.
// Все ошибки возвращаются как *Error с сообщением для пользователя.
// Существующий выходной файл перезаписывается без подтверждения.
func (r *Resizer) Resize(ctx context.Context, req Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	token, err := ResizeToken(req.Width, req.Height)
	if err != nil {
		return nil, err
	}

	if err := EnsureOutputDir(req.Output); err != nil {
		return nil, err
	}

	if _, err := os.Stat(req.Output); err == nil {
		r.logger.Debug("выходной файл будет перезаписан", zap.String("output", req.Output))
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	r.logger.Info("изменение размера",
		zap.String("source", req.Source),
		zap.String("resize", token),
		zap.String("output", req.Output),
	)

	start := time.Now()
	name, args := r.tool.command(req.Source, "-resize", token, req.Output)
	res, runErr := r.runner.Run(ctx, name, args...)
	duration := time.Since(start)

	if runErr != nil {
		return nil, r.classify(runErr, res)
	}

	if res.ExitCode != 0 {
		stderr := trimStderr(res.Stderr)
		return nil, &Error{
			Kind:     KindNonZeroExit,
			Message:  fmt.Sprintf("Resize failed. Return code: %d\nError: %s", res.ExitCode, stderr),
			ExitCode: res.ExitCode,
			Stderr:   stderr,
		}
	}

	return &Result{
		Output:   req.Output,
		Token:    token,
		Message:  fmt.Sprintf("Resized successfully!\nSaved as: %s", filepath.Base(req.Output)),
		Stderr:   trimStderr(res.Stderr),
		Duration: duration,
	}, nil
}

// classify превращает ошибку запуска в *Error.
func (r *Resizer) classify(err error, res *RunResult) *Error {
	switch {
	case errors.Is(err, exec.ErrNotFound), errors.Is(err, fs.ErrNotExist):
		return &Error{
			Kind:    KindToolMissing,
			Message: fmt.Sprintf("ImageMagick not installed (%s not found).\n%s", r.tool.Path, InstallHint),
			Err:     err,
		}
	case errors.Is(err, context.DeadlineExceeded):
		return &Error{
			Kind:    KindTimeout,
			Message: fmt.Sprintf("Resize operation timed out after %s", r.timeout),
			Err:     err,
		}
	}

	e := &Error{
		Kind:    KindUnexpected,
		Message: fmt.Sprintf("Resize failed: %v", err),
		Err:     err,
	}
	if res != nil {
		e.Stderr = trimStderr(res.Stderr)
	}
	return e
}

// EnsureOutputDir создаёт директорию выходного файла.
func EnsureOutputDir(output string) error {
	dir := filepath.Dir(output)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return &Error{
			Kind:    KindOutputDir,
			Message: fmt.Sprintf("Failed to create output directory %s: %v", dir, err),
			Err:     err,
		}
	}
	return nil
}

/*
Возможные расширения:
- Явный формат через префикс (PNG:out.file) для расширений, которые convert не знает
- Подтверждение перезаписи существующего файла
*/
