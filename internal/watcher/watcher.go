// Package watcher следит за директорией и сообщает о новых изображениях.
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce - пауза после последней записи перед обработкой файла.
const DefaultDebounce = 500 * time.Millisecond

// Watcher следит за директорией и отправляет пути новых файлов в канал.
type Watcher struct {
	// dir - корневая директория.
	dir string

	// watcher - fsnotify watcher.
	watcher *fsnotify.Watcher

	// debounceTime - время ожидания перед обработкой файла.
	// Нужно для того, чтобы файл успел полностью записаться.
	debounceTime time.Duration

	// accept - фильтр путей.
	accept func(path string) bool

	// ignore - префиксы путей, которые не отслеживаются.
	ignore []string

	// pending - файлы, ожидающие обработки (для debounce).
	pending map[string]time.Time
	mu      sync.Mutex

	logger *zap.Logger
}

// New создаёт новый Watcher для dir. accept отбирает интересующие файлы.
func New(dir string, accept func(path string) bool) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("не удалось создать watcher: %w", err)
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		abs = dir
	}

	return &Watcher{
		dir:          abs,
		watcher:      w,
		debounceTime: DefaultDebounce,
		accept:       accept,
		pending:      make(map[string]time.Time),
		logger:       zap.NewNop(),
	}, nil
}

// SetDebounceTime устанавливает время debounce.
func (w *Watcher) SetDebounceTime(d time.Duration) {
	w.debounceTime = d
}

// SetLogger устанавливает логгер.
func (w *Watcher) SetLogger(l *zap.Logger) {
	w.logger = l
}

// Ignore исключает директорию (например, выходную) из слежения.
func (w *Watcher) Ignore(dir string) {
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	w.ignore = append(w.ignore, filepath.Clean(dir))
}

// Watch запускает слежение и возвращает канал с путями.
// Канал закрывается после отмены ctx.
func (w *Watcher) Watch(ctx context.Context) (<-chan string, error) {
	if w.ignored(w.dir) {
		_ = w.watcher.Close()
		return nil, fmt.Errorf("директория %s исключена из слежения", w.dir)
	}
	if err := w.addRecursive(w.dir); err != nil {
		_ = w.watcher.Close()
		return nil, err
	}

	files := make(chan string, 100)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		w.processEvents(ctx)
	}()
	go func() {
		defer wg.Done()
		w.processPending(ctx, files)
	}()

	go func() {
		wg.Wait()
		close(files)
	}()

	return files, nil
}

// ignored проверяет, попадает ли путь в исключённые директории.
func (w *Watcher) ignored(path string) bool {
	for _, prefix := range w.ignore {
		if path == prefix || strings.HasPrefix(path, prefix+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// addRecursive добавляет директорию и все поддиректории в watcher.
func (w *Watcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if w.ignored(path) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			return fmt.Errorf("не удалось добавить директорию %s: %w", path, err)
		}
		return nil
	})
}

// processEvents обрабатывает события от fsnotify.
func (w *Watcher) processEvents(ctx context.Context) {
	defer w.watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			// Обрабатываем только создание и запись файлов
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}

			if w.ignored(event.Name) {
				continue
			}

			info, err := os.Stat(event.Name)
			if err != nil {
				continue
			}

			if info.IsDir() {
				// Новая директория - добавляем в watcher
				if event.Op&fsnotify.Create != 0 {
					_ = w.addRecursive(event.Name)
				}
				continue
			}

			if w.accept != nil && !w.accept(event.Name) {
				continue
			}

			w.mu.Lock()
			w.pending[event.Name] = time.Now()
			w.mu.Unlock()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("ошибка watcher", zap.Error(err))
		}
	}
}

// processPending обрабатывает файлы из pending после debounce.
func (w *Watcher) processPending(ctx context.Context, files chan<- string) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, path := range w.ready() {
				select {
				case files <- path:
				case <-ctx.Done():
					return
				}
			}
		}
	}
}

// ready забирает из pending файлы, прошедшие debounce.
func (w *Watcher) ready() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := time.Now()
	var out []string
	for path, addedAt := range w.pending {
		if now.Sub(addedAt) < w.debounceTime {
			continue
		}
		delete(w.pending, path)

		if _, err := os.Stat(path); err != nil {
			continue
		}
		out = append(out, path)
	}
	return out
}
