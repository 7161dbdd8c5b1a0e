// Package storage содержит модели и логику работы с SQLite базой данных.
package storage

import "time"

// Status определяет статус записи истории.
type Status string

const (
	// StatusInProgress - convert выполняется.
	StatusInProgress Status = "in_progress"
	// StatusOK - размер успешно изменён.
	StatusOK Status = "ok"
	// StatusFailed - изменение размера завершилось с ошибкой.
	StatusFailed Status = "failed"
)

// Record представляет одну операцию изменения размера.
type Record struct {
	// ID - uuid записи.
	ID string `db:"id"`

	// SrcPath - исходный файл.
	SrcPath string `db:"src_path"`

	// DstPath - выходной файл.
	DstPath string `db:"dst_path"`

	// Width - целевая ширина (0 = не задана).
	Width int `db:"width"`

	// Height - целевая высота (0 = не задана).
	Height int `db:"height"`

	// Token - аргумент -resize.
	Token string `db:"resize_token"`

	// OutFormat - выбранный выходной формат.
	OutFormat string `db:"out_format"`

	// Status - статус записи.
	Status Status `db:"status"`

	// ErrorKind - вид ошибки (nullable).
	ErrorKind *string `db:"error_kind"`

	// Error - сообщение об ошибке (nullable).
	Error *string `db:"error"`

	// ExitCode - код возврата convert (nullable).
	ExitCode *int `db:"exit_code"`

	// StartedAt - время запуска.
	StartedAt time.Time `db:"started_at"`

	// FinishedAt - время завершения (nullable).
	FinishedAt *time.Time `db:"finished_at"`
}

// Duration возвращает длительность операции или 0, если она не завершена.
func (r Record) Duration() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Stats содержит агрегированную статистику истории.
type Stats struct {
	Total      int64
	OK         int64
	Failed     int64
	InProgress int64
}
