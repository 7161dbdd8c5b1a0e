// Package toolfinder отвечает за поиск утилит ImageMagick в системе.
package toolfinder

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/artemshloyda/imageresizer/internal/magick"
)

// versionTimeout - таймаут на вызов "-version".
const versionTimeout = 5 * time.Second

// ToolInfo содержит информацию о найденной утилите.
type ToolInfo struct {
	// Tool - команда для запуска.
	Tool magick.Tool

	// Version - версия ImageMagick (например, "6.9.11-60").
	Version string
}

// Finder ищет утилиту ImageMagick (convert или identify).
type Finder struct {
	// Name - имя утилиты: "convert" или "identify".
	Name string

	// CustomPath - пользовательский путь (из флага или конфига).
	CustomPath string

	// EnvVar - имя переменной окружения с путём.
	EnvVar string

	// runner - запуск процессов.
	runner magick.Runner
}

// NewFinder создаёт новый Finder.
// Переменная окружения: IMAGERESIZER_CONVERT или IMAGERESIZER_IDENTIFY.
func NewFinder(name, customPath string) *Finder {
	return &Finder{
		Name:       name,
		CustomPath: customPath,
		EnvVar:     "IMAGERESIZER_" + strings.ToUpper(name),
		runner:     magick.ExecRunner{},
	}
}

// SetRunner устанавливает Runner (для тестов).
func (f *Finder) SetRunner(r magick.Runner) {
	f.runner = r
}

// candidates возвращает кандидатов в порядке приоритета.
func (f *Finder) candidates() []magick.Tool {
	var tools []magick.Tool

	// 1. Пользовательский путь
	if f.CustomPath != "" {
		tools = append(tools, magick.Tool{Path: f.CustomPath})
	}

	// 2. Переменная окружения
	if envPath := os.Getenv(f.EnvVar); envPath != "" {
		tools = append(tools, magick.Tool{Path: envPath})
	}

	// 3. PATH (ImageMagick 6 или ссылки совместимости IM7)
	if p, err := exec.LookPath(binaryName(f.Name)); err == nil {
		tools = append(tools, magick.Tool{Path: p})
	}

	// 4. PATH: ImageMagick 7 без ссылок совместимости
	if p, err := exec.LookPath(binaryName("magick")); err == nil {
		tools = append(tools, magick.Tool{Path: p, Args: []string{f.Name}})
	}

	// 5. Рядом с бинарником
	if execPath, err := os.Executable(); err == nil {
		execDir := filepath.Dir(execPath)
		tools = append(tools,
			magick.Tool{Path: filepath.Join(execDir, "bin", binaryName(f.Name))},
			magick.Tool{Path: filepath.Join(execDir, binaryName(f.Name))},
		)
	}

	return tools
}

// Find ищет утилиту в следующем порядке:
// 1. CustomPath (если задан)
// 2. Переменная окружения
// 3. PATH
// 4. magick <name> из PATH
// 5. Рядом с исполняемым файлом
func (f *Finder) Find(ctx context.Context) (*ToolInfo, error) {
	for _, tool := range f.candidates() {
		if info, err := f.check(ctx, tool); err == nil {
			return info, nil
		}
	}

	return nil, fmt.Errorf("%s не найден. Проверьте:\n"+
		"  1. Установлен ли ImageMagick (apt install imagemagick / dnf install ImageMagick / brew install imagemagick)\n"+
		"  2. Установлена ли переменная окружения %s\n"+
		"  3. Указан ли путь через флаг --%s-path", f.Name, f.EnvVar, f.Name)
}

// Resolve возвращает найденную утилиту или команду по имени, если поиск
// не удался. Во втором случае ошибка "не найден" проявится при запуске.
func (f *Finder) Resolve(ctx context.Context) (magick.Tool, *ToolInfo) {
	info, err := f.Find(ctx)
	if err != nil {
		if f.CustomPath != "" {
			return magick.Tool{Path: f.CustomPath}, nil
		}
		return magick.Tool{Path: f.Name}, nil
	}
	return info.Tool, info
}

// check проверяет, что кандидат запускается и является ImageMagick.
func (f *Finder) check(ctx context.Context, tool magick.Tool) (*ToolInfo, error) {
	if strings.ContainsRune(tool.Path, os.PathSeparator) {
		if _, err := os.Stat(tool.Path); err != nil {
			return nil, fmt.Errorf("файл не найден: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, versionTimeout)
	defer cancel()

	args := append(append([]string{}, tool.Args...), "-version")
	res, err := f.runner.Run(ctx, tool.Path, args...)
	if err != nil {
		return nil, fmt.Errorf("не удалось выполнить %s -version: %w", tool.Path, err)
	}
	if res.ExitCode != 0 {
		return nil, fmt.Errorf("%s -version завершился с кодом %d", tool.Path, res.ExitCode)
	}

	version, ok := parseVersion(res.Stdout)
	if !ok {
		// Например, convert из Windows (fs-утилита) - не ImageMagick
		return nil, fmt.Errorf("%s не является ImageMagick", tool.Path)
	}

	return &ToolInfo{Tool: tool, Version: version}, nil
}

// parseVersion извлекает версию из вывода "-version".
// Пример: "Version: ImageMagick 6.9.11-60 Q16 x86_64 2021-01-25 https://imagemagick.org"
func parseVersion(output string) (string, bool) {
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		idx := strings.Index(line, "ImageMagick")
		if idx < 0 {
			continue
		}
		fields := strings.Fields(line[idx+len("ImageMagick"):])
		if len(fields) == 0 {
			return "", true
		}
		return fields[0], true
	}
	return "", false
}

// binaryName возвращает имя бинарника для текущей ОС.
func binaryName(name string) string {
	if runtime.GOOS == "windows" {
		return name + ".exe"
	}
	return name
}

/*
Возможные расширения:
- Проверка минимальной версии ImageMagick
- Поддержка GraphicsMagick (gm convert / gm identify)
*/
