// Package nautilus содержит интеграцию с файловым менеджером Nautilus.
//
// Nautilus запускает скрипты из ~/.local/share/nautilus/scripts и передаёт
// выделение через переменные окружения NAUTILUS_SCRIPT_SELECTED_FILE_PATHS и
// NAUTILUS_SCRIPT_SELECTED_URIS (по одному элементу на строку).
package nautilus

import (
	"net/url"
	"path/filepath"
	"strings"
)

// Переменные окружения, которые выставляет Nautilus.
const (
	EnvSelectedPaths = "NAUTILUS_SCRIPT_SELECTED_FILE_PATHS"
	EnvSelectedURIs  = "NAUTILUS_SCRIPT_SELECTED_URIS"
)

// ImageExtensions - расширения, для которых доступен пункт меню.
var ImageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".bmp", ".webp", ".tiff", ".svg"}

// IsImage проверяет расширение файла без учёта регистра.
func IsImage(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range ImageExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Selection - выделенные в Nautilus элементы.
type Selection struct {
	// Paths - локальные пути (пусто для удалённых расположений).
	Paths []string

	// URIs - URI элементов.
	URIs []string
}

// InScript возвращает true, если процесс запущен как скрипт Nautilus.
func InScript(getenv func(string) string) bool {
	return getenv(EnvSelectedPaths) != "" || getenv(EnvSelectedURIs) != ""
}

// SelectionFromEnv читает выделение из переменных окружения.
func SelectionFromEnv(getenv func(string) string) Selection {
	return Selection{
		Paths: splitLines(getenv(EnvSelectedPaths)),
		URIs:  splitLines(getenv(EnvSelectedURIs)),
	}
}

// SelectionFromArgs строит выделение из аргументов командной строки.
func SelectionFromArgs(args []string) Selection {
	return Selection{Paths: args}
}

// Len возвращает количество выделенных элементов.
func (s Selection) Len() int {
	if len(s.URIs) > len(s.Paths) {
		return len(s.URIs)
	}
	return len(s.Paths)
}

// Eligible возвращает локальный путь изображения, если пункт меню применим:
// выделен ровно один элемент, схема file, расширение изображения.
func (s Selection) Eligible() (string, bool) {
	if s.Len() != 1 {
		return "", false
	}

	var path string
	if len(s.URIs) == 1 {
		u, err := url.Parse(s.URIs[0])
		if err != nil || u.Scheme != "file" {
			return "", false
		}
		path = u.Path
	}
	if len(s.Paths) == 1 {
		path = s.Paths[0]
	}

	if path == "" || !IsImage(filepath.Base(path)) {
		return "", false
	}
	return path, true
}

func splitLines(v string) []string {
	var out []string
	for _, line := range strings.Split(v, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}
