package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/artemshloyda/imageresizer/internal/sizing"
)

// FileConfig представляет структуру конфигурационного файла YAML.
// Все поля опциональны - если не указаны, используются значения по умолчанию.
type FileConfig struct {
	// Tools - пути к утилитам ImageMagick.
	Tools *ToolsConfig `yaml:"tools,omitempty"`

	// Resize - настройки изменения размера.
	Resize *ResizeConfig `yaml:"resize,omitempty"`

	// UI - настройки индикатора.
	UI *UIConfig `yaml:"ui,omitempty"`

	// Notify - настройки уведомлений.
	Notify *NotifyConfig `yaml:"notify,omitempty"`

	// Paths - настройки путей.
	Paths *PathsConfig `yaml:"paths,omitempty"`
}

// ToolsConfig содержит пути к утилитам.
type ToolsConfig struct {
	// Convert - путь к convert.
	Convert string `yaml:"convert,omitempty"`

	// Identify - путь к identify.
	Identify string `yaml:"identify,omitempty"`
}

// ResizeConfig содержит настройки изменения размера.
type ResizeConfig struct {
	// DefaultPreset - пресет по умолчанию (например, "50%", "hd").
	DefaultPreset string `yaml:"default_preset,omitempty"`

	// Format - выходной формат (same, png, jpg, webp).
	Format string `yaml:"format,omitempty"`

	// LockAspect - сохранять пропорции.
	LockAspect *bool `yaml:"lock_aspect,omitempty"`

	// ProbeTimeout - таймаут identify (например, "10s").
	ProbeTimeout string `yaml:"probe_timeout,omitempty"`

	// ResizeTimeout - таймаут convert (например, "30s").
	ResizeTimeout string `yaml:"resize_timeout,omitempty"`
}

// UIConfig содержит настройки индикатора.
type UIConfig struct {
	// PulseInterval - период анимации (например, "100ms").
	PulseInterval string `yaml:"pulse_interval,omitempty"`

	// CloseDelay - задержка перед закрытием после успеха.
	CloseDelay string `yaml:"close_delay,omitempty"`

	// NoProgress - отключить индикатор.
	NoProgress bool `yaml:"no_progress,omitempty"`

	// Verbose - подробный вывод.
	Verbose bool `yaml:"verbose,omitempty"`
}

// NotifyConfig содержит настройки уведомлений.
type NotifyConfig struct {
	// Enabled - показывать уведомления.
	Enabled *bool `yaml:"enabled,omitempty"`

	// Timeout - таймаут отправки уведомления.
	Timeout string `yaml:"timeout,omitempty"`
}

// PathsConfig содержит настройки путей.
type PathsConfig struct {
	// HistoryDB - путь к SQLite базе истории.
	HistoryDB string `yaml:"history_db,omitempty"`
}

// DefaultConfigPaths возвращает список путей для поиска конфигурационного файла.
// Поиск выполняется в следующем порядке:
// 1. ./imageresizer.yaml (текущая директория)
// 2. ./imageresizer.yml
// 3. ~/.config/imageresizer/config.yaml
// 4. ~/.config/imageresizer/config.yml
func DefaultConfigPaths() []string {
	paths := []string{
		"imageresizer.yaml",
		"imageresizer.yml",
	}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(home, ".config", "imageresizer", "config.yaml"),
			filepath.Join(home, ".config", "imageresizer", "config.yml"),
		)
	}

	return paths
}

// LoadFromFile загружает конфигурацию из указанного файла.
// Возвращает nil, nil если файл не существует.
func LoadFromFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("не удалось прочитать файл конфигурации %s: %w", path, err)
	}

	var fc FileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("ошибка парсинга YAML в %s: %w", path, err)
	}

	return &fc, nil
}

// FindAndLoadConfig ищет и загружает конфигурационный файл из стандартных путей.
// Если configPath указан явно, использует только его.
// Возвращает nil, nil если файл не найден.
func FindAndLoadConfig(configPath string) (*FileConfig, string, error) {
	if configPath != "" {
		fc, err := LoadFromFile(configPath)
		if err != nil {
			return nil, "", err
		}
		if fc == nil {
			return nil, "", fmt.Errorf("файл конфигурации не найден: %s", configPath)
		}
		return fc, configPath, nil
	}

	for _, path := range DefaultConfigPaths() {
		fc, err := LoadFromFile(path)
		if err != nil {
			return nil, "", err
		}
		if fc != nil {
			return fc, path, nil
		}
	}

	return nil, "", nil
}

// ApplyToConfig применяет настройки из файла к основной конфигурации.
// CLI флаги имеют приоритет над файлом конфигурации, поэтому
// эта функция должна вызываться до парсинга CLI флагов.
func (fc *FileConfig) ApplyToConfig(cfg *Config) error {
	if fc == nil {
		return nil
	}

	if fc.Tools != nil {
		if fc.Tools.Convert != "" {
			cfg.ConvertPath = fc.Tools.Convert
		}
		if fc.Tools.Identify != "" {
			cfg.IdentifyPath = fc.Tools.Identify
		}
	}

	if r := fc.Resize; r != nil {
		if r.DefaultPreset != "" {
			p, err := sizing.ParsePreset(r.DefaultPreset)
			if err != nil {
				return fmt.Errorf("resize.default_preset: %w", err)
			}
			cfg.DefaultPreset = p
		}
		if r.Format != "" {
			f, err := sizing.ParseFormat(r.Format)
			if err != nil {
				return fmt.Errorf("resize.format: %w", err)
			}
			cfg.OutputFormat = f
		}
		if r.LockAspect != nil {
			cfg.LockAspect = *r.LockAspect
		}
		if err := parseDuration("resize.probe_timeout", r.ProbeTimeout, &cfg.ProbeTimeout); err != nil {
			return err
		}
		if err := parseDuration("resize.resize_timeout", r.ResizeTimeout, &cfg.ResizeTimeout); err != nil {
			return err
		}
	}

	if u := fc.UI; u != nil {
		if err := parseDuration("ui.pulse_interval", u.PulseInterval, &cfg.PulseInterval); err != nil {
			return err
		}
		if err := parseDuration("ui.close_delay", u.CloseDelay, &cfg.CloseDelay); err != nil {
			return err
		}
		if u.NoProgress {
			cfg.NoProgress = true
		}
		if u.Verbose {
			cfg.Verbose = true
		}
	}

	if n := fc.Notify; n != nil {
		if n.Enabled != nil {
			cfg.Notify = *n.Enabled
		}
		if err := parseDuration("notify.timeout", n.Timeout, &cfg.NotifyTimeout); err != nil {
			return err
		}
	}

	if fc.Paths != nil && fc.Paths.HistoryDB != "" {
		cfg.HistoryDB = expandHome(fc.Paths.HistoryDB)
	}

	return nil
}

// parseDuration разбирает значение, если оно задано.
func parseDuration(key, value string, dst *time.Duration) error {
	if value == "" {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("%s: некорректная длительность %q: %w", key, value, err)
	}
	*dst = d
	return nil
}

// expandHome раскрывает "~/" в начале пути.
func expandHome(path string) string {
	if len(path) < 2 || path[:2] != "~/" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}

// GenerateExampleConfig генерирует пример конфигурационного файла.
func GenerateExampleConfig() string {
	return `# ImageResizer Configuration File
# Все параметры опциональны - если не указаны, используются значения по умолчанию.
# CLI флаги имеют приоритет над этим файлом.

tools:
  # Путь к convert (по умолчанию автопоиск, затем "magick convert")
  convert: ""
  # Путь к identify
  identify: ""

resize:
  # Пресет для запуска из файлового менеджера: 25%..200%, qvga, vga, svga, xga, hd, fullhd, 4k
  default_preset: "50%"
  # Выходной формат: same, png, jpg, webp
  format: same
  # Сохранять пропорции при вводе одной стороны
  lock_aspect: true
  # Таймауты
  probe_timeout: 10s
  resize_timeout: 30s

ui:
  # Период анимации индикатора
  pulse_interval: 100ms
  # Задержка перед выходом после успешного изменения размера
  close_delay: 0s
  # Отключить индикатор
  no_progress: false
  # Подробный вывод
  verbose: false

notify:
  # Уведомления на рабочем столе (D-Bus, затем notify-send)
  enabled: true
  timeout: 5s

paths:
  # SQLite база истории (пусто = история не ведётся)
  history_db: ""
`
}

/*
Возможные расширения:
- Добавить команду 'config check' для проверки файла
- Добавить поддержку переменных окружения в конфиге
*/
