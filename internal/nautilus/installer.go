package nautilus

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/artemshloyda/imageresizer/internal/magick"
)

// ScriptName - имя пункта в меню «Сценарии».
const ScriptName = "Resize Image..."

// RestartTimeout - таймаут `nautilus -q`.
const RestartTimeout = 10 * time.Second

const legacyExtension = "nautilus-python/extensions/image-resizer-extension.py"

// ErrNothingRemoved возвращается, если Uninstall не нашёл файлов.
var ErrNothingRemoved = errors.New("файлы расширения не найдены")

// Installer устанавливает и удаляет скрипт Nautilus.
type Installer struct {
	// Home - домашняя директория пользователя.
	Home string

	// Executable - путь к бинарнику, на который указывает ссылка.
	Executable string

	// SystemShare - системная директория share (по умолчанию /usr/share).
	SystemShare string

	// Out - куда выводить сообщения (по умолчанию os.Stdout).
	Out io.Writer

	runner magick.Runner
}

// NewInstaller создаёт Installer.
func NewInstaller(home, executable string) *Installer {
	return &Installer{
		Home:        home,
		Executable:  executable,
		SystemShare: "/usr/share",
		Out:         os.Stdout,
		runner:      magick.ExecRunner{},
	}
}

// SetRunner устанавливает способ запуска процессов.
func (i *Installer) SetRunner(r magick.Runner) {
	i.runner = r
}

// ScriptPath возвращает путь к ссылке в директории скриптов.
func (i *Installer) ScriptPath() string {
	return filepath.Join(i.Home, ".local", "share", "nautilus", "scripts", ScriptName)
}

// removablePaths возвращает все пути, которые удаляет Uninstall.
func (i *Installer) removablePaths() []string {
	return []string{
		i.ScriptPath(),
		filepath.Join(i.Home, ".local", "share", legacyExtension),
		filepath.Join(i.SystemShare, legacyExtension),
	}
}

// Install создаёт ссылку на бинарник и перезапускает Nautilus.
// Существующая ссылка или файл заменяются.
func (i *Installer) Install(ctx context.Context) error {
	target := i.ScriptPath()

	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Errorf("не удалось создать директорию скриптов: %w", err)
	}

	if fi, err := os.Lstat(target); err == nil {
		if err := os.Remove(target); err != nil {
			return fmt.Errorf("не удалось удалить %s: %w", target, err)
		}
		if fi.Mode()&os.ModeSymlink != 0 {
			fmt.Fprintln(i.Out, "📝 Удалена существующая ссылка")
		} else {
			fmt.Fprintln(i.Out, "📝 Удалён существующий файл")
		}
	}

	if err := os.Symlink(i.Executable, target); err != nil {
		return fmt.Errorf("не удалось создать ссылку: %w", err)
	}
	fmt.Fprintf(i.Out, "✅ Создана ссылка: %s\n", target)

	if _, err := os.Stat(target); err != nil {
		return fmt.Errorf("ссылка создана, но цель недоступна: %w", err)
	}
	fmt.Fprintln(i.Out, "✅ Ссылка проверена")

	i.RestartNautilus(ctx)

	fmt.Fprintln(i.Out, "\n🎉 Установка завершена!")
	fmt.Fprintln(i.Out, "Выберите изображение в Nautilus: ПКМ → Сценарии → "+ScriptName)
	return nil
}

// Uninstall удаляет ссылку и файлы старого python-расширения.
// Возвращает ErrNothingRemoved, если ничего не было удалено.
func (i *Installer) Uninstall(ctx context.Context) (int, error) {
	removed := 0

	for _, path := range i.removablePaths() {
		if _, err := os.Lstat(path); err != nil {
			fmt.Fprintf(i.Out, "ℹ️  Не найден: %s\n", path)
			continue
		}

		if err := os.Remove(path); err != nil {
			if errors.Is(err, os.ErrPermission) {
				fmt.Fprintf(i.Out, "❌ Нет доступа: %s\n", path)
				fmt.Fprintln(i.Out, "   Для системной установки запустите через sudo")
			} else {
				fmt.Fprintf(i.Out, "❌ Ошибка удаления %s: %v\n", path, err)
			}
			continue
		}

		fmt.Fprintf(i.Out, "✅ Удалено: %s\n", path)
		removed++
	}

	if removed == 0 {
		return 0, ErrNothingRemoved
	}

	i.RestartNautilus(ctx)
	return removed, nil
}

// RestartNautilus выполняет `nautilus -q`. Ошибки только выводятся.
func (i *Installer) RestartNautilus(ctx context.Context) {
	fmt.Fprintln(i.Out, "🔄 Перезапуск Nautilus...")

	ctx, cancel := context.WithTimeout(ctx, RestartTimeout)
	defer cancel()

	res, err := i.runner.Run(ctx, "nautilus", "-q")
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		fmt.Fprintln(i.Out, "⚠️  Перезапуск Nautilus не уложился в таймаут")
	case err != nil:
		fmt.Fprintf(i.Out, "⚠️  Не удалось перезапустить Nautilus: %v\n", err)
		fmt.Fprintln(i.Out, "   Перезапустите вручную: nautilus -q")
	case res.ExitCode != 0:
		fmt.Fprintf(i.Out, "⚠️  nautilus -q завершился с кодом %d\n", res.ExitCode)
	default:
		fmt.Fprintln(i.Out, "✅ Nautilus перезапущен")
	}
}
