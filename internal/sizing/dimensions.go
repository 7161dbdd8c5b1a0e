// Package sizing содержит расчёт целевых размеров изображения.
package sizing

import (
	"fmt"
	"strconv"
	"strings"
)

// Dimensions - размеры изображения в пикселях.
type Dimensions struct {
	// Width - ширина.
	Width int

	// Height - высота.
	Height int
}

// Fallback используется, когда исходные размеры определить не удалось.
var Fallback = Dimensions{Width: 1920, Height: 1080}

// Known возвращает true, если обе стороны положительны.
func (d Dimensions) Known() bool {
	return d.Width > 0 && d.Height > 0
}

// String возвращает размеры в формате "WxH".
func (d Dimensions) String() string {
	return fmt.Sprintf("%dx%d", d.Width, d.Height)
}

// ParseDimensions разбирает строку вида "WxH" (например, "4000x3000").
// Допускаются пробелы вокруг "x" и заглавная "X".
func ParseDimensions(s string) (Dimensions, error) {
	s = strings.TrimSpace(s)
	idx := strings.IndexAny(s, "xX")
	if idx <= 0 || idx == len(s)-1 {
		return Dimensions{}, fmt.Errorf("некорректные размеры %q: ожидается WxH", s)
	}

	w, err := strconv.Atoi(strings.TrimSpace(s[:idx]))
	if err != nil {
		return Dimensions{}, fmt.Errorf("некорректная ширина в %q: %w", s, err)
	}
	h, err := strconv.Atoi(strings.TrimSpace(s[idx+1:]))
	if err != nil {
		return Dimensions{}, fmt.Errorf("некорректная высота в %q: %w", s, err)
	}

	d := Dimensions{Width: w, Height: h}
	if !d.Known() {
		return Dimensions{}, fmt.Errorf("размеры должны быть положительными, получено: %s", d)
	}
	return d, nil
}
