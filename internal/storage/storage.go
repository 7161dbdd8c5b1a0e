// Package storage ведёт историю изменений размера в SQLite.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/artemshloyda/imageresizer/internal/magick"
)

// Storage предоставляет методы для работы с историей.
type Storage struct {
	db *sql.DB

	// now - источник времени (подменяется в тестах).
	now func() time.Time
}

// New создаёт новое подключение к SQLite и выполняет миграции.
func New(dbPath string) (*Storage, error) {
	dbDir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return nil, fmt.Errorf("не удалось создать директорию для БД: %w", err)
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть БД: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("не удалось подключиться к БД: %w", err)
	}

	// SQLite не поддерживает concurrent writes
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Storage{db: db, now: time.Now}

	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("не удалось выполнить миграции: %w", err)
	}

	return s, nil
}

// migrate выполняет все SQL-миграции.
func (s *Storage) migrate() error {
	for i, m := range GetMigrations() {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("миграция %d: %w", i+1, err)
		}
	}
	return nil
}

// Close закрывает подключение к БД.
func (s *Storage) Close() error {
	return s.db.Close()
}

// Begin создаёт запись со статусом in_progress и возвращает её ID.
func (s *Storage) Begin(req magick.Request) (string, error) {
	token, _ := magick.ResizeToken(req.Width, req.Height)
	id := uuid.NewString()

	_, err := s.db.Exec(`
		INSERT INTO resizes (id, src_path, dst_path, width, height, resize_token,
		                     out_format, status, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, req.Source, req.Output, req.Width, req.Height, token,
		string(req.Format), StatusInProgress, s.now().UnixMilli(),
	)
	if err != nil {
		return "", fmt.Errorf("не удалось создать запись истории: %w", err)
	}
	return id, nil
}

// Finish завершает запись по результату Resize.
func (s *Storage) Finish(id string, res *magick.Result, resizeErr error) error {
	now := s.now().UnixMilli()

	if resizeErr == nil {
		dst := ""
		if res != nil {
			dst = res.Output
		}
		_, err := s.db.Exec(`
			UPDATE resizes SET status = ?, dst_path = COALESCE(NULLIF(?, ''), dst_path),
			                   exit_code = 0, finished_at = ?
			WHERE id = ?`,
			StatusOK, dst, now, id,
		)
		if err != nil {
			return fmt.Errorf("не удалось обновить запись истории: %w", err)
		}
		return nil
	}

	var exitCode *int
	var merr *magick.Error
	if errors.As(resizeErr, &merr) && merr.Kind == magick.KindNonZeroExit {
		code := merr.ExitCode
		exitCode = &code
	}

	_, err := s.db.Exec(`
		UPDATE resizes SET status = ?, error_kind = ?, error = ?, exit_code = ?, finished_at = ?
		WHERE id = ?`,
		StatusFailed, magick.KindOf(resizeErr).String(), resizeErr.Error(), exitCode, now, id,
	)
	if err != nil {
		return fmt.Errorf("не удалось обновить запись истории: %w", err)
	}
	return nil
}

// Get возвращает запись по ID.
func (s *Storage) Get(id string) (*Record, error) {
	row := s.db.QueryRow(selectRecord+" WHERE id = ?", id)
	r, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("запись %s не найдена", id)
		}
		return nil, err
	}
	return r, nil
}

// Recent возвращает последние записи, новые первыми.
func (s *Storage) Recent(limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(selectRecord+" ORDER BY started_at DESC, rowid DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("не удалось прочитать историю: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *r)
	}
	return records, rows.Err()
}

// GetStats возвращает статистику по записям.
func (s *Storage) GetStats() (Stats, error) {
	var st Stats
	if err := s.db.QueryRow("SELECT COUNT(*) FROM resizes").Scan(&st.Total); err != nil {
		return st, fmt.Errorf("не удалось получить статистику: %w", err)
	}
	counts := []struct {
		status Status
		dst    *int64
	}{
		{StatusOK, &st.OK},
		{StatusFailed, &st.Failed},
		{StatusInProgress, &st.InProgress},
	}
	for _, c := range counts {
		if err := s.db.QueryRow("SELECT COUNT(*) FROM resizes WHERE status = ?", c.status).Scan(c.dst); err != nil {
			return st, fmt.Errorf("не удалось получить статистику (%s): %w", c.status, err)
		}
	}
	return st, nil
}

// CleanupInProgress переводит записи in_progress в failed.
// Вызывается при старте для очистки после аварийного завершения.
func (s *Storage) CleanupInProgress() (int64, error) {
	result, err := s.db.Exec(
		"UPDATE resizes SET status = ?, error_kind = ?, error = ?, finished_at = ? WHERE status = ?",
		StatusFailed, "interrupted", "прервано при предыдущем запуске", s.now().UnixMilli(), StatusInProgress,
	)
	if err != nil {
		return 0, fmt.Errorf("не удалось очистить in_progress: %w", err)
	}
	return result.RowsAffected()
}

const selectRecord = `
	SELECT id, src_path, dst_path, width, height, resize_token, out_format,
	       status, error_kind, error, exit_code, started_at, finished_at
	FROM resizes`

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc scanner) (*Record, error) {
	var (
		r        Record
		started  int64
		finished sql.NullInt64
		exitCode sql.NullInt64
	)
	err := sc.Scan(&r.ID, &r.SrcPath, &r.DstPath, &r.Width, &r.Height, &r.Token,
		&r.OutFormat, &r.Status, &r.ErrorKind, &r.Error, &exitCode, &started, &finished)
	if err != nil {
		return nil, err
	}

	r.StartedAt = time.UnixMilli(started)
	if finished.Valid {
		t := time.UnixMilli(finished.Int64)
		r.FinishedAt = &t
	}
	if exitCode.Valid {
		code := int(exitCode.Int64)
		r.ExitCode = &code
	}
	return &r, nil
}
