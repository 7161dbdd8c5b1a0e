package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/artemshloyda/imageresizer/internal/nautilus"
	"github.com/artemshloyda/imageresizer/internal/scanner"
	"github.com/artemshloyda/imageresizer/internal/sizing"
	"github.com/artemshloyda/imageresizer/internal/watcher"
)

// resizedSuffix - суффикс имени выходного файла по умолчанию.
const resizedSuffix = "_resized"

// watchStats - счётчики режима watch.
type watchStats struct {
	mu        sync.Mutex
	processed int
	failed    int
}

// newWatchCmd создаёт команду watch.
func newWatchCmd(a *app) *cobra.Command {
	var (
		presetFlag string
		formatFlag string
		outDir     string
		jobs       int
		existing   bool
		debounce   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "watch DIR",
		Short: "Следить за директорией и изменять размер новых изображений",
		Long: `Следит за директорией (рекурсивно) и изменяет размер каждого нового
изображения по пресету. Файлы с суффиксом _resized пропускаются.

Примеры:
  imageresizer watch ~/Pictures/inbox --preset 50%
  imageresizer watch ./in --preset hd --out ./out --format webp --existing`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := args[0]
			info, err := os.Stat(dir)
			if err != nil || !info.IsDir() {
				return fmt.Errorf("директория не найдена: %s", dir)
			}

			preset := a.cfg.DefaultPreset
			if cmd.Flags().Changed("preset") {
				if preset, err = sizing.ParsePreset(presetFlag); err != nil {
					return err
				}
			}
			if preset == sizing.PresetNone {
				return fmt.Errorf("укажите пресет через --preset")
			}

			format := a.cfg.OutputFormat
			if cmd.Flags().Changed("format") {
				if format, err = sizing.ParseFormat(formatFlag); err != nil {
					return err
				}
			}

			if err := checkOutDir(dir, outDir); err != nil {
				return err
			}

			if jobs < 1 {
				return fmt.Errorf("количество задач должно быть >= 1, получено: %d", jobs)
			}

			ctx, cancel := a.signalContext(cmd.Context())
			defer cancel()

			rec, closeRec, err := a.recorder()
			if err != nil {
				return err
			}
			defer closeRec()

			accept := watchFilter()

			w, err := watcher.New(dir, accept)
			if err != nil {
				return err
			}
			w.SetDebounceTime(debounce)
			w.SetLogger(a.logger)
			if outDir != "" {
				w.Ignore(outDir)
			}

			files, err := w.Watch(ctx)
			if err != nil {
				return err
			}

			var stats watchStats

			g, gctx := errgroup.WithContext(ctx)
			g.SetLimit(jobs)

			process := func(src string) {
				g.Go(func() error {
					opts := resizeOptions{
						preset:   preset,
						format:   format,
						output:   watchOutputPath(src, outDir, format),
						lock:     a.cfg.LockAspect,
						quiet:    true,
						recorder: rec,
					}
					res, err := a.resizeFile(gctx, src, opts)

					stats.mu.Lock()
					defer stats.mu.Unlock()
					if err != nil {
						stats.failed++
						fmt.Fprintf(a.stderr, "❌ %s: %v\n", src, err)
						return nil
					}
					stats.processed++
					fmt.Fprintf(a.stdout, "✅ %s -> %s (%s)\n", src, res.Output, res.Token)
					return nil
				})
			}

			fmt.Fprintf(a.stdout, "👀 Слежение за %s (пресет %s, Ctrl+C для выхода)\n", dir, preset.Label())

			if existing {
				sc := scanner.New(dir, accept)
				sc.SetLogger(a.logger)
				if outDir != "" {
					sc.Skip(outDir)
				}
				found, errs := sc.Scan(ctx)
				for src := range found {
					process(src)
				}
				if err := <-errs; err != nil && ctx.Err() == nil {
					a.logger.Warn("ошибка обхода директории", zap.Error(err))
				}
			}

			for src := range files {
				process(src)
			}

			_ = g.Wait()

			fmt.Fprintln(a.stdout)
			fmt.Fprintf(a.stdout, "📊 Результаты:\n")
			fmt.Fprintf(a.stdout, "   Обработано: %d\n", stats.processed)
			fmt.Fprintf(a.stdout, "   Ошибок: %d\n", stats.failed)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&presetFlag, "preset", "p", "", "Пресет (по умолчанию resize.default_preset)")
	flags.StringVarP(&formatFlag, "format", "f", "same", "Выходной формат: same, png, jpg, webp")
	flags.StringVar(&outDir, "out", "", "Выходная директория (по умолчанию рядом с исходным файлом)")
	flags.IntVarP(&jobs, "jobs", "j", 1, "Количество одновременных convert")
	flags.BoolVar(&existing, "existing", false, "Сначала обработать уже существующие изображения")
	flags.DurationVar(&debounce, "debounce", watcher.DefaultDebounce, "Пауза после последней записи в файл")

	return cmd
}

// watchFilter отбирает изображения, кроме результатов предыдущих запусков.
func watchFilter() func(string) bool {
	return func(path string) bool {
		if !nautilus.IsImage(path) {
			return false
		}
		base := filepath.Base(path)
		stem := strings.TrimSuffix(base, filepath.Ext(base))
		return !strings.HasSuffix(stem, resizedSuffix)
	}
}

// checkOutDir запрещает выходную директорию, совпадающую с dir или содержащую её:
// такая директория исключается из слежения вместе с dir.
func checkOutDir(dir, outDir string) error {
	if outDir == "" {
		return nil
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return err
	}
	absOut, err := filepath.Abs(outDir)
	if err != nil {
		return err
	}
	rel, err := filepath.Rel(absOut, absDir)
	if err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("выходная директория %s не должна совпадать с %s или содержать её", outDir, dir)
	}
	return nil
}

// watchOutputPath возвращает путь результата: рядом с исходным файлом
// или в outDir с тем же именем.
func watchOutputPath(src, outDir string, format sizing.OutputFormat) string {
	def := sizing.DefaultOutputPath(src, format)
	if outDir == "" {
		return def
	}
	return filepath.Join(outDir, filepath.Base(def))
}
