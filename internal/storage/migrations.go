package storage

// migrations содержит SQL-миграции в порядке выполнения.
var migrations = []string{
	// Миграция 1: таблица истории
	`CREATE TABLE IF NOT EXISTS resizes (
		id TEXT PRIMARY KEY,
		src_path TEXT NOT NULL,
		dst_path TEXT NOT NULL,
		width INTEGER NOT NULL DEFAULT 0,
		height INTEGER NOT NULL DEFAULT 0,
		resize_token TEXT NOT NULL,
		out_format TEXT NOT NULL,
		status TEXT NOT NULL,
		error_kind TEXT,
		error TEXT,
		exit_code INTEGER,
		started_at INTEGER NOT NULL,
		finished_at INTEGER
	);`,

	// Миграция 2: индекс для выборки последних записей
	`CREATE INDEX IF NOT EXISTS ix_resizes_started ON resizes (started_at);`,

	// Миграция 3: индекс по статусу
	`CREATE INDEX IF NOT EXISTS ix_resizes_status ON resizes (status);`,

	// Миграция 4: метаданные схемы
	`CREATE TABLE IF NOT EXISTS schema_info (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);`,

	`INSERT OR REPLACE INTO schema_info (key, value) VALUES ('version', '1');`,
}

// GetMigrations возвращает список SQL-миграций.
func GetMigrations() []string {
	return migrations
}
