// Package cli содержит CLI интерфейс приложения.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/artemshloyda/imageresizer/internal/config"
	"github.com/artemshloyda/imageresizer/internal/magick"
	"github.com/artemshloyda/imageresizer/internal/nautilus"
	"github.com/artemshloyda/imageresizer/internal/notify"
	"github.com/artemshloyda/imageresizer/internal/session"
	"github.com/artemshloyda/imageresizer/internal/storage"
	"github.com/artemshloyda/imageresizer/internal/toolfinder"
)

var (
	// Version будет установлена при сборке.
	Version = "dev"

	// BuildTime будет установлена при сборке.
	BuildTime = "unknown"
)

// globalFlags - значения persistent-флагов до слияния с конфигом.
type globalFlags struct {
	configPath   string
	convertPath  string
	identifyPath string
	historyDB    string
	verbose      bool
	noProgress   bool
	noNotify     bool
}

// app содержит зависимости команд. В тестах поля подменяются.
type app struct {
	cfg    *config.Config
	flags  globalFlags
	logger *zap.Logger

	stdout io.Writer
	stderr io.Writer

	// runner запускает convert, identify, notify-send и nautilus.
	runner magick.Runner

	// notifier переопределяет уведомления (nil = по конфигу).
	notifier notify.Notifier

	getenv     func(string) string
	homeDir    func() (string, error)
	executable func() (string, error)
}

func newApp() *app {
	return &app{
		cfg:        config.DefaultConfig(),
		logger:     zap.NewNop(),
		stdout:     os.Stdout,
		stderr:     os.Stderr,
		runner:     magick.ExecRunner{},
		getenv:     os.Getenv,
		homeDir:    os.UserHomeDir,
		executable: resolvedExecutable,
	}
}

// NewRootCmd создаёт корневую команду CLI.
func NewRootCmd() *cobra.Command {
	return newRootCmd(newApp())
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "imageresizer [FILE]",
		Short: "Изменение размера изображений через ImageMagick",
		Long: `ImageResizer - утилита для изменения размера изображения из Nautilus или терминала.

Использует convert/identify из ImageMagick. При запуске как скрипт Nautilus
изменяет размер выделенного изображения по пресету по умолчанию.

Примеры:
  # Установить пункт «Resize Image...» в меню Nautilus
  imageresizer install

  # Изменить размер до ширины 800 с сохранением пропорций
  imageresizer resize photo.jpg --width 800

  # Уменьшить вдвое и сохранить в WebP
  imageresizer resize photo.jpg --preset 50% --format webp

  # Список пресетов для 4000x3000
  imageresizer presets --from 4000x3000

  # Следить за директорией
  imageresizer watch ~/Pictures/inbox --preset hd --out ~/Pictures/resized`,
		Args:              cobra.ArbitraryArgs,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		RunE:              a.runScript,
	}

	rootCmd.SetOut(a.stdout)
	rootCmd.SetErr(a.stderr)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&a.flags.configPath, "config", "", "Путь к файлу конфигурации YAML")
	pf.StringVar(&a.flags.convertPath, "convert-path", "", "Путь к convert")
	pf.StringVar(&a.flags.identifyPath, "identify-path", "", "Путь к identify")
	pf.StringVar(&a.flags.historyDB, "history-db", "", "Путь к SQLite базе истории")
	pf.BoolVarP(&a.flags.verbose, "verbose", "v", false, "Подробный вывод")
	pf.BoolVar(&a.flags.noProgress, "no-progress", false, "Отключить индикатор")
	pf.BoolVar(&a.flags.noNotify, "no-notify", false, "Отключить уведомления на рабочем столе")

	rootCmd.AddCommand(newResizeCmd(a))
	rootCmd.AddCommand(newProbeCmd(a))
	rootCmd.AddCommand(newPresetsCmd(a))
	rootCmd.AddCommand(newInstallCmd(a))
	rootCmd.AddCommand(newUninstallCmd(a))
	rootCmd.AddCommand(newHistoryCmd(a))
	rootCmd.AddCommand(newWatchCmd(a))
	rootCmd.AddCommand(newConfigCmd(a))
	rootCmd.AddCommand(newVersionCmd(a))

	return rootCmd
}

// setup собирает конфигурацию: значения по умолчанию, затем файл, затем флаги.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg := config.DefaultConfig()

	fc, path, err := config.FindAndLoadConfig(a.flags.configPath)
	if err != nil {
		return err
	}
	if err := fc.ApplyToConfig(cfg); err != nil {
		return fmt.Errorf("ошибка конфигурации %s: %w", path, err)
	}

	flags := cmd.Flags()
	if flags.Changed("convert-path") {
		cfg.ConvertPath = a.flags.convertPath
	}
	if flags.Changed("identify-path") {
		cfg.IdentifyPath = a.flags.identifyPath
	}
	if flags.Changed("history-db") {
		cfg.HistoryDB = a.flags.historyDB
	}
	if a.flags.verbose {
		cfg.Verbose = true
	}
	if a.flags.noProgress {
		cfg.NoProgress = true
	}
	if a.flags.noNotify {
		cfg.Notify = false
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("ошибка конфигурации: %w", err)
	}
	a.cfg = cfg

	if cfg.Verbose {
		logger, err := zap.NewDevelopment()
		if err != nil {
			return fmt.Errorf("не удалось создать логгер: %w", err)
		}
		a.logger = logger
		if path != "" {
			a.logger.Debug("загружен файл конфигурации", zap.String("path", path))
		}
	}

	return nil
}

// runScript выполняет запуск без подкоманды.
// Nautilus передаёт выделение через окружение и аргументы.
func (a *app) runScript(cmd *cobra.Command, args []string) error {
	inScript := nautilus.InScript(a.getenv)
	if !inScript && len(args) == 0 {
		return cmd.Help()
	}

	sel := nautilus.SelectionFromArgs(args)
	if inScript {
		sel = nautilus.SelectionFromEnv(a.getenv)
	}

	ctx := cmd.Context()
	path, ok := sel.Eligible()
	if !ok {
		err := errors.New("выберите одно локальное изображение (" + strings.Join(nautilus.ImageExtensions, ", ") + ")")
		a.notifierFor().Notify(ctx, notify.Failure(err.Error()))
		return err
	}

	if a.cfg.DefaultPreset == "" {
		err := errors.New("не задан пресет по умолчанию (resize.default_preset)")
		a.notifierFor().Notify(ctx, notify.Failure(err.Error()))
		return err
	}

	_, err := a.resizeFile(ctx, path, resizeOptions{
		preset: a.cfg.DefaultPreset,
		format: a.cfg.OutputFormat,
		lock:   a.cfg.LockAspect,
	})
	return err
}

// tools находит convert и identify.
func (a *app) tools(ctx context.Context) (convert, identify magick.Tool) {
	cf := toolfinder.NewFinder("convert", a.cfg.ConvertPath)
	cf.SetRunner(a.runner)
	convert, cinfo := cf.Resolve(ctx)

	idf := toolfinder.NewFinder("identify", a.cfg.IdentifyPath)
	idf.SetRunner(a.runner)
	identify, iinfo := idf.Resolve(ctx)

	if cinfo != nil {
		a.logger.Debug("найден convert", zap.Stringer("tool", convert), zap.String("version", cinfo.Version))
	}
	if iinfo != nil {
		a.logger.Debug("найден identify", zap.Stringer("tool", identify), zap.String("version", iinfo.Version))
	}
	return convert, identify
}

// notifierFor возвращает уведомления по конфигурации.
func (a *app) notifierFor() notify.Notifier {
	if !a.cfg.Notify {
		return notify.Nop{}
	}
	if a.notifier != nil {
		return a.notifier
	}
	cmdSender := notify.NewCommandSender()
	cmdSender.SetRunner(a.runner)
	return notify.NewDesktopWithSenders(a.cfg.NotifyTimeout, a.logger, notify.NewDBusSender(), cmdSender)
}

// recorder открывает историю, если она включена.
func (a *app) recorder() (session.Recorder, func(), error) {
	if a.cfg.HistoryDB == "" {
		return nil, func() {}, nil
	}

	store, err := storage.New(a.cfg.HistoryDB)
	if err != nil {
		return nil, nil, fmt.Errorf("не удалось открыть историю: %w", err)
	}

	if cleaned, err := store.CleanupInProgress(); err != nil {
		a.logger.Warn("не удалось очистить in_progress", zap.Error(err))
	} else if cleaned > 0 {
		a.logger.Debug("очищены прерванные записи", zap.Int64("count", cleaned))
	}

	return store, func() { _ = store.Close() }, nil
}

// signalContext отменяется по SIGINT/SIGTERM.
func (a *app) signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigChan:
			fmt.Fprintln(a.stdout, "\n⚠️  Получен сигнал завершения, останавливаем...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()

	return ctx, cancel
}

// newVersionCmd создаёт команду version.
func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Показать версию",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(a.stdout, "imageresizer %s (built %s)\n", Version, BuildTime)
		},
	}
}

func resolvedExecutable() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		return resolved, nil
	}
	return exe, nil
}

// Execute запускает CLI.
func Execute() {
	if err := NewRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
}
