package sizing

import (
	"fmt"
	"strings"
)

// Preset определяет предустановленный размер.
type Preset string

const (
	// PresetNone - пресет не выбран.
	PresetNone Preset = ""

	Preset25  Preset = "25%"
	Preset50  Preset = "50%"
	Preset75  Preset = "75%"
	Preset100 Preset = "100%"
	Preset150 Preset = "150%"
	Preset200 Preset = "200%"

	PresetQVGA   Preset = "qvga"
	PresetVGA    Preset = "vga"
	PresetSVGA   Preset = "svga"
	PresetXGA    Preset = "xga"
	PresetHD     Preset = "hd"
	PresetFullHD Preset = "fullhd"
	Preset4K     Preset = "4k"
)

// PresetConfig содержит параметры пресета.
// Заполнено либо Percent, либо Width/Height.
type PresetConfig struct {
	// Label - подпись для списка пресетов.
	Label string
	// Percent - процент от исходного размера (0 = фиксированный пресет).
	Percent int
	// Width - фиксированная ширина.
	Width int
	// Height - фиксированная высота.
	Height int
}

// Presets содержит все доступные пресеты.
var Presets = map[Preset]PresetConfig{
	Preset25:  {Label: "25% (Quarter size)", Percent: 25},
	Preset50:  {Label: "50% (Half size)", Percent: 50},
	Preset75:  {Label: "75% (Three quarters)", Percent: 75},
	Preset100: {Label: "100% (Original)", Percent: 100},
	Preset150: {Label: "150% (1.5x)", Percent: 150},
	Preset200: {Label: "200% (2x)", Percent: 200},

	PresetQVGA:   {Label: "320x240 (QVGA)", Width: 320, Height: 240},
	PresetVGA:    {Label: "640x480 (VGA)", Width: 640, Height: 480},
	PresetSVGA:   {Label: "800x600 (SVGA)", Width: 800, Height: 600},
	PresetXGA:    {Label: "1024x768 (XGA)", Width: 1024, Height: 768},
	PresetHD:     {Label: "1280x720 (HD)", Width: 1280, Height: 720},
	PresetFullHD: {Label: "1920x1080 (Full HD)", Width: 1920, Height: 1080},
	Preset4K:     {Label: "3840x2160 (4K)", Width: 3840, Height: 2160},
}

// order - порядок пресетов в списке: сначала проценты, потом разрешения.
var order = []Preset{
	Preset25, Preset50, Preset75, Preset100, Preset150, Preset200,
	PresetQVGA, PresetVGA, PresetSVGA, PresetXGA, PresetHD, PresetFullHD, Preset4K,
}

// AllPresets возвращает пресеты в порядке отображения.
func AllPresets() []Preset {
	out := make([]Preset, len(order))
	copy(out, order)
	return out
}

// IsPercentage возвращает true для процентных пресетов.
func (p Preset) IsPercentage() bool {
	return Presets[p].Percent > 0
}

// Label возвращает подпись пресета.
func (p Preset) Label() string {
	if p == PresetNone {
		return "Select preset..."
	}
	return Presets[p].Label
}

// ParsePreset находит пресет по имени.
// Принимает "25", "25%", "hd", "HD", "1280x720", "none" и пустую строку.
func ParsePreset(s string) (Preset, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	switch name {
	case "", "none":
		return PresetNone, nil
	case "full-hd", "1080p":
		return PresetFullHD, nil
	case "720p":
		return PresetHD, nil
	case "2160p", "uhd":
		return Preset4K, nil
	}

	if !strings.HasSuffix(name, "%") && strings.Trim(name, "0123456789") == "" {
		name += "%"
	}
	if _, ok := Presets[Preset(name)]; ok {
		return Preset(name), nil
	}

	// Поиск по разрешению: "1280x720"
	for _, p := range order {
		cfg := Presets[p]
		if cfg.Percent == 0 && fmt.Sprintf("%dx%d", cfg.Width, cfg.Height) == name {
			return p, nil
		}
	}

	return PresetNone, fmt.Errorf("неизвестный пресет: %s (доступны: %s)", s, strings.Join(ValidPresets(), ", "))
}

// ValidPresets возвращает имена всех пресетов.
func ValidPresets() []string {
	names := make([]string, 0, len(order))
	for _, p := range order {
		names = append(names, string(p))
	}
	return names
}

// Resolve вычисляет целевые размеры для пресета.
//
// Возвращает false, если пресет не выбран или если процентный пресет
// запрошен при неизвестных исходных размерах. Вызывающий код, получивший
// от Prober размеры Fallback, передаёт именно их: проценты тогда считаются
// от 1920x1080.
func Resolve(p Preset, original Dimensions) (Dimensions, bool) {
	cfg, ok := Presets[p]
	if !ok {
		return Dimensions{}, false
	}

	if cfg.Percent == 0 {
		return Dimensions{Width: cfg.Width, Height: cfg.Height}, true
	}

	if !original.Known() {
		return Dimensions{}, false
	}

	return Dimensions{
		Width:  original.Width * cfg.Percent / 100,
		Height: original.Height * cfg.Percent / 100,
	}, true
}

/*
Возможные расширения:
- Пресеты для социальных сетей (instagram, telegram)
- Пользовательские пресеты из конфигурационного файла
*/
