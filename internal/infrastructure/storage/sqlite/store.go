package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"savestate-server/internal/infrastructure/storage"

	_ "modernc.org/sqlite"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS save_slots (
    name        TEXT PRIMARY KEY,
    data        BLOB NOT NULL,
    entry_count INTEGER NOT NULL,
    saved_at    INTEGER NOT NULL
);
`

// Store хранит слоты сохранений в SQLite.
type Store struct {
	sqlDB *sql.DB
	now   func() time.Time
}

// Open открывает (или создает) базу слотов и применяет схему.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := "file:" + cleanPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schemaSQL); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{sqlDB: sqlDB, now: time.Now}, nil
}

// Close освобождает соединение.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Put создает или перезаписывает слот.
func (s *Store) Put(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if err := storage.ValidateSlotName(name); err != nil {
		return err
	}
	header, err := storage.PeekHeader(data)
	if err != nil {
		return fmt.Errorf("refusing to store slot %s: %w", name, err)
	}

	_, err = s.sqlDB.ExecContext(ctx, `
INSERT INTO save_slots (name, data, entry_count, saved_at)
VALUES (?, ?, ?, ?)
ON CONFLICT(name) DO UPDATE SET
	data = excluded.data,
	entry_count = excluded.entry_count,
	saved_at = excluded.saved_at
`,
		name,
		data,
		int64(header.EntryCount),
		s.now().UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("put slot %s: %w", name, err)
	}
	return nil
}

// Get читает слот целиком.
func (s *Store) Get(ctx context.Context, name string) (storage.Slot, error) {
	if err := ctx.Err(); err != nil {
		return storage.Slot{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.Slot{}, fmt.Errorf("storage is not configured")
	}
	if err := storage.ValidateSlotName(name); err != nil {
		return storage.Slot{}, err
	}

	var (
		slot    storage.Slot
		savedAt int64
	)
	err := s.sqlDB.QueryRowContext(ctx, `
SELECT name, data, entry_count, saved_at
FROM save_slots
WHERE name = ?
`, name).Scan(&slot.Name, &slot.Data, &slot.EntryCount, &savedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.Slot{}, fmt.Errorf("%w: %s", storage.ErrSlotNotFound, name)
	}
	if err != nil {
		return storage.Slot{}, fmt.Errorf("get slot %s: %w", name, err)
	}

	slot.SavedAt = time.UnixMilli(savedAt).UTC()
	slot.Size = len(slot.Data)
	return slot, nil
}

// List возвращает метаданные слотов, новые первыми.
func (s *Store) List(ctx context.Context) ([]storage.SlotInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT name, length(data), entry_count, saved_at
FROM save_slots
ORDER BY saved_at DESC, name ASC
`)
	if err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}
	defer rows.Close()

	var slots []storage.SlotInfo
	for rows.Next() {
		var (
			info    storage.SlotInfo
			savedAt int64
		)
		if err := rows.Scan(&info.Name, &info.Size, &info.EntryCount, &savedAt); err != nil {
			return nil, fmt.Errorf("scan slot: %w", err)
		}
		info.SavedAt = time.UnixMilli(savedAt).UTC()
		slots = append(slots, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate slots: %w", err)
	}
	return slots, nil
}

// Delete удаляет слот.
func (s *Store) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if err := storage.ValidateSlotName(name); err != nil {
		return err
	}

	res, err := s.sqlDB.ExecContext(ctx, `DELETE FROM save_slots WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete slot %s: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete slot %s: %w", name, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", storage.ErrSlotNotFound, name)
	}
	return nil
}

var _ storage.SlotStorage = (*Store)(nil)
