package sizing

import (
	"fmt"
	"path/filepath"
	"strings"
)

// OutputFormat определяет формат выходного файла.
type OutputFormat string

const (
	// FormatSame - формат исходного файла.
	FormatSame OutputFormat = "same"
	FormatPNG  OutputFormat = "png"
	FormatJPEG OutputFormat = "jpg"
	FormatWebP OutputFormat = "webp"
)

// ParseFormat разбирает имя формата.
func ParseFormat(s string) (OutputFormat, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "", "same", "original":
		return FormatSame, nil
	case "png":
		return FormatPNG, nil
	case "jpg", "jpeg":
		return FormatJPEG, nil
	case "webp":
		return FormatWebP, nil
	}
	return "", fmt.Errorf("неизвестный формат: %s (доступны: same, png, jpg, webp)", s)
}

// Extension возвращает расширение выходного файла (с точкой).
// Для FormatSame берётся расширение исходного файла.
func (f OutputFormat) Extension(srcPath string) string {
	switch f {
	case FormatPNG:
		return ".png"
	case FormatJPEG:
		return ".jpg"
	case FormatWebP:
		return ".webp"
	}
	return filepath.Ext(srcPath)
}

// DefaultOutputPath строит путь по умолчанию: <dir>/<name>_resized<ext>.
func DefaultOutputPath(srcPath string, f OutputFormat) string {
	base := filepath.Base(srcPath)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(filepath.Dir(srcPath), name+"_resized"+f.Extension(srcPath))
}
