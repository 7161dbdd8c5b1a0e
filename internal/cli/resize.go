package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/artemshloyda/imageresizer/internal/magick"
	"github.com/artemshloyda/imageresizer/internal/notify"
	"github.com/artemshloyda/imageresizer/internal/progress"
	"github.com/artemshloyda/imageresizer/internal/session"
	"github.com/artemshloyda/imageresizer/internal/sizing"
)

// resizeOptions - параметры одного изменения размера.
type resizeOptions struct {
	width     int
	height    int
	preset    sizing.Preset
	format    sizing.OutputFormat
	output    string
	lock      bool
	noClobber bool

	// quiet отключает индикатор, строки статуса и уведомления (режим watch).
	quiet bool

	// recorder - общая история (nil = открыть по конфигу).
	recorder session.Recorder
}

// newResizeCmd создаёт команду resize.
func newResizeCmd(a *app) *cobra.Command {
	var (
		presetFlag string
		formatFlag string
		noLock     bool
		opts       resizeOptions
	)

	cmd := &cobra.Command{
		Use:   "resize FILE",
		Short: "Изменить размер изображения",
		Long: `Изменяет размер одного изображения через convert.

Если задана только одна сторона и пропорции сохраняются, вторая вычисляется
по исходным размерам. Если заданы обе, используются как есть: convert
вписывает изображение в прямоугольник WxH с сохранением пропорций.

Примеры:
  imageresizer resize photo.jpg --width 800
  imageresizer resize photo.jpg --height 600 --no-lock
  imageresizer resize photo.jpg --preset hd --format png --output /tmp/small.png`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src := args[0]
			info, err := os.Stat(src)
			if err != nil {
				return fmt.Errorf("файл не найден: %s", src)
			}
			if info.IsDir() {
				return fmt.Errorf("%s - директория, а не файл", src)
			}

			if opts.width < 0 || opts.height < 0 {
				return fmt.Errorf("ширина и высота должны быть положительными")
			}

			opts.preset, err = sizing.ParsePreset(presetFlag)
			if err != nil {
				return err
			}

			opts.format = a.cfg.OutputFormat
			if cmd.Flags().Changed("format") {
				if opts.format, err = sizing.ParseFormat(formatFlag); err != nil {
					return err
				}
			}

			opts.lock = a.cfg.LockAspect && !noLock

			_, err = a.resizeFile(cmd.Context(), src, opts)
			return err
		},
	}

	flags := cmd.Flags()
	flags.IntVarP(&opts.width, "width", "W", 0, "Целевая ширина в пикселях")
	flags.IntVarP(&opts.height, "height", "H", 0, "Целевая высота в пикселях")
	flags.StringVarP(&presetFlag, "preset", "p", "", "Пресет: 25%..200%, qvga, vga, svga, xga, hd, fullhd, 4k")
	flags.StringVarP(&formatFlag, "format", "f", "same", "Выходной формат: same, png, jpg, webp")
	flags.StringVarP(&opts.output, "output", "o", "", "Выходной файл (по умолчанию <имя>_resized.<расширение>)")
	flags.BoolVar(&noLock, "no-lock", false, "Не сохранять пропорции при вводе одной стороны")
	flags.BoolVar(&opts.noClobber, "no-clobber", false, "Не перезаписывать существующий выходной файл")

	return cmd
}

// resizeFile определяет исходные размеры, применяет параметры и запускает
// изменение размера. Используется командами resize, watch и режимом скрипта.
func (a *app) resizeFile(ctx context.Context, src string, o resizeOptions) (*magick.Result, error) {
	convertTool, identifyTool := a.tools(ctx)

	prober := magick.NewProber(a.runner, identifyTool)
	prober.SetTimeout(a.cfg.ProbeTimeout)
	prober.SetLogger(a.logger)

	original, known := prober.Probe(ctx, src)
	if !o.quiet {
		if known {
			fmt.Fprintf(a.stdout, "📐 Original: %d x %d pixels\n", original.Width, original.Height)
		} else {
			fmt.Fprintln(a.stdout, "📐 Original dimensions: Unknown")
			fmt.Fprintf(a.stdout, "⚠️  Не удалось определить размеры, для расчётов используется %s\n", original)
		}
	}

	resizer := magick.NewResizer(a.runner, convertTool)
	resizer.SetTimeout(a.cfg.ResizeTimeout)
	resizer.SetLogger(a.logger)

	rec := o.recorder
	if rec == nil {
		opened, closeRec, err := a.recorder()
		if err != nil {
			return nil, err
		}
		defer closeRec()
		rec = opened
	}

	notifier := a.notifierFor()
	if o.quiet {
		notifier = notify.Nop{}
	}

	s := session.New(src, original, resizer, session.Options{
		PulseInterval: a.cfg.PulseInterval,
		CloseDelay:    a.cfg.CloseDelay,
		Notifier:      notifier,
		Recorder:      rec,
		Logger:        a.logger,
	})

	for _, e := range o.events() {
		s.Dispatch(e)
	}

	output := o.output
	if output == "" {
		output = sizing.DefaultOutputPath(src, o.format)
	}

	if o.noClobber {
		if _, err := os.Stat(output); err == nil {
			return nil, fmt.Errorf("выходной файл уже существует: %s", output)
		}
	}

	a.logger.Debug("целевые размеры",
		zap.String("source", src),
		zap.Stringer("target", s.State().Target()),
		zap.String("output", output))

	if err := s.Start(ctx, output, o.format); err != nil {
		// процесс завершится сразу после ошибки, уведомление должно успеть уйти
		s.WaitNotifications()
		return nil, err
	}

	spinner := progress.New(progress.Options{
		Description: session.StatusStarting,
		Disabled:    a.cfg.NoProgress || o.quiet,
		Writer:      a.stdout,
	})

	done := s.Consume(func(m session.Message) {
		switch m.Kind {
		case session.MsgStatus:
			spinner.Describe(m.Text)
			if !o.quiet {
				spinner.WriteMessage("%s\n", m.Text)
			}
		case session.MsgPulse:
			spinner.Pulse()
		}
	})
	spinner.Finish()

	if done.Err != nil {
		return nil, done.Err
	}

	if !o.quiet {
		fmt.Fprintf(a.stdout, "✅ %s\n", done.Result.Message)
		if done.Result.Stderr != "" {
			fmt.Fprintf(a.stderr, "⚠️  %s\n", done.Result.Stderr)
		}
	}
	return done.Result, nil
}

// events превращает параметры в события состояния размеров.
// Пресет применяется первым, явные стороны переопределяют его.
func (o resizeOptions) events() []sizing.Event {
	var events []sizing.Event
	if !o.lock {
		events = append(events, sizing.SetLock(false))
	}
	if o.preset != sizing.PresetNone {
		events = append(events, sizing.SelectPreset(o.preset))
	}
	if o.width > 0 {
		events = append(events, sizing.SetWidth(o.width))
	}
	if o.height > 0 {
		events = append(events, sizing.SetHeight(o.height))
	}
	return events
}

// newProbeCmd создаёт команду probe.
func newProbeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "probe FILE",
		Short: "Показать размеры изображения",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			_, identifyTool := a.tools(ctx)

			prober := magick.NewProber(a.runner, identifyTool)
			prober.SetTimeout(a.cfg.ProbeTimeout)
			prober.SetLogger(a.logger)

			dims, known := prober.Probe(ctx, args[0])
			if !known {
				fmt.Fprintln(a.stdout, "Original dimensions: Unknown")
				fmt.Fprintf(a.stdout, "Используется значение по умолчанию: %s\n", dims)
				return nil
			}
			fmt.Fprintf(a.stdout, "%s\n", dims)
			return nil
		},
	}
}
