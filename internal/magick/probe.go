package magick

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/artemshloyda/imageresizer/internal/sizing"
)

// DefaultProbeTimeout - таймаут identify по умолчанию.
const DefaultProbeTimeout = 10 * time.Second

// Prober читает исходные размеры изображения через identify.
type Prober struct {
	// runner - запуск процессов.
	runner Runner

	// tool - бинарник identify.
	tool Tool

	// timeout - таймаут на один вызов identify.
	timeout time.Duration

	// logger - диагностический лог.
	logger *zap.Logger
}

// NewProber создаёт новый Prober.
func NewProber(runner Runner, tool Tool) *Prober {
	return &Prober{
		runner:  runner,
		tool:    tool,
		timeout: DefaultProbeTimeout,
		logger:  zap.NewNop(),
	}
}

// SetTimeout устанавливает таймаут.
func (p *Prober) SetTimeout(d time.Duration) {
	p.timeout = d
}

// SetLogger устанавливает логгер.
func (p *Prober) SetLogger(l *zap.Logger) {
	p.logger = l
}

// Probe возвращает размеры изображения и true, если их удалось прочитать.
// При любой ошибке возвращает sizing.Fallback и false; ошибка наружу не выходит.
func (p *Prober) Probe(ctx context.Context, path string) (sizing.Dimensions, bool) {
	d, err := p.probe(ctx, path)
	if err != nil {
		p.logger.Debug("не удалось определить размеры, используются значения по умолчанию",
			zap.String("path", path),
			zap.Stringer("fallback", sizing.Fallback),
			zap.Error(err),
		)
		return sizing.Fallback, false
	}
	return d, true
}

func (p *Prober) probe(ctx context.Context, path string) (sizing.Dimensions, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	name, args := p.tool.command("-format", "%wx%h\n", path)
	res, err := p.runner.Run(ctx, name, args...)
	if err != nil {
		return sizing.Dimensions{}, fmt.Errorf("identify: %w", err)
	}
	if res.ExitCode != 0 {
		return sizing.Dimensions{}, fmt.Errorf("identify завершился с кодом %d: %s", res.ExitCode, trimStderr(res.Stderr))
	}

	return ParseIdentifyOutput(res.Stdout)
}

// ParseIdentifyOutput разбирает вывод identify "WxH".
// Для многокадровых файлов identify печатает строку на каждый кадр;
// используется первая.
func ParseIdentifyOutput(out string) (sizing.Dimensions, error) {
	line := strings.TrimSpace(out)
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	return sizing.ParseDimensions(line)
}
