// Package scanner находит изображения, уже лежащие в директории.
package scanner

import (
	"context"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// Scanner обходит директорию и отбирает файлы фильтром.
type Scanner struct {
	dir    string
	accept func(path string) bool
	skip   map[string]bool
	logger *zap.Logger
}

// New создаёт новый Scanner.
func New(dir string, accept func(path string) bool) *Scanner {
	return &Scanner{
		dir:    dir,
		accept: accept,
		skip:   map[string]bool{},
		logger: zap.NewNop(),
	}
}

// SetLogger устанавливает логгер.
func (s *Scanner) SetLogger(l *zap.Logger) {
	s.logger = l
}

// Skip исключает директорию из обхода.
func (s *Scanner) Skip(dir string) {
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	s.skip[filepath.Clean(dir)] = true
}

// Scan запускает обход и отправляет абсолютные пути найденных файлов в канал.
// Канал закрывается после завершения обхода.
func (s *Scanner) Scan(ctx context.Context) (<-chan string, <-chan error) {
	files := make(chan string, 100)
	errs := make(chan error, 1)

	go func() {
		defer close(files)
		defer close(errs)

		root, err := filepath.Abs(s.dir)
		if err != nil {
			root = s.dir
		}

		err = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			if err != nil {
				// Логируем ошибку, но продолжаем
				s.logger.Warn("не удалось прочитать", zap.String("path", path), zap.Error(err))
				return nil
			}

			if d.IsDir() {
				name := d.Name()
				if path != root && (s.skip[path] || (len(name) > 0 && name[0] == '.')) {
					return filepath.SkipDir
				}
				return nil
			}

			// Пропускаем macOS metadata файлы (начинаются с ._*)
			baseName := d.Name()
			if len(baseName) >= 2 && baseName[0] == '.' && baseName[1] == '_' {
				return nil
			}

			if s.accept != nil && !s.accept(path) {
				return nil
			}

			select {
			case files <- path:
			case <-ctx.Done():
				return ctx.Err()
			}
			return nil
		})

		if err != nil {
			errs <- err
		}
	}()

	return files, errs
}
