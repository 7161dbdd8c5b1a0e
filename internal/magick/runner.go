// Package magick вызывает утилиты ImageMagick: identify для чтения размеров
// и convert для изменения размера.
package magick

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"
)

// Tool описывает исполняемый файл утилиты.
// Для ImageMagick 7 Path = "magick", Args = ["convert"].
type Tool struct {
	// Path - путь или имя бинарника.
	Path string

	// Args - аргументы, которые ставятся перед остальными.
	Args []string
}

// command возвращает имя и полный список аргументов.
func (t Tool) command(args ...string) (string, []string) {
	full := make([]string, 0, len(t.Args)+len(args))
	full = append(full, t.Args...)
	full = append(full, args...)
	return t.Path, full
}

// String возвращает команду в виде строки для логов.
func (t Tool) String() string {
	if len(t.Args) == 0 {
		return t.Path
	}
	name, args := t.command()
	return name + " " + strings.Join(args, " ")
}

// RunResult содержит результат запуска процесса.
type RunResult struct {
	// ExitCode - код завершения (-1, если процесс не запустился).
	ExitCode int

	// Stdout - стандартный вывод.
	Stdout string

	// Stderr - вывод ошибок.
	Stderr string
}

// Runner запускает внешние процессы.
// Ненулевой код завершения ошибкой не считается: он возвращается в RunResult.
// Ошибка возвращается, если процесс не удалось запустить или истёк ctx.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (*RunResult, error)
}

// DefaultWaitDelay - сколько ждать закрытия stdout/stderr после отмены ctx.
// Делегаты ImageMagick (gs, rsvg) наследуют пайпы и могут пережить convert.
const DefaultWaitDelay = time.Second

// ExecRunner запускает процессы через os/exec.
// По истечении ctx убивается вся группа процессов.
type ExecRunner struct{}

// Run запускает процесс и ждёт его завершения.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) (*RunResult, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	killProcessGroup(cmd)
	cmd.WaitDelay = DefaultWaitDelay

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	res := &RunResult{
		ExitCode: -1,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
	}
	if cmd.ProcessState != nil {
		res.ExitCode = cmd.ProcessState.ExitCode()
	}

	if err == nil {
		return res, nil
	}

	// Процесс убит по таймауту: это не "ненулевой код", а истёкший контекст
	if ctxErr := ctx.Err(); ctxErr != nil {
		return res, ctxErr
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return res, nil
	}

	return res, err
}
