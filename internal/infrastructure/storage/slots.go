package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// SlotExt — расширение файлов слотов
const SlotExt = ".cdsv"

var (
	ErrSlotNotFound    = errors.New("save slot not found")
	ErrInvalidSlotName = errors.New("invalid save slot name")
)

// SlotInfo — метаданные слота сохранения.
type SlotInfo struct {
	Name       string    `json:"name"`
	SavedAt    time.Time `json:"savedAt"`
	Size       int       `json:"size"`
	EntryCount int       `json:"entryCount"`
}

// Slot — слот вместе с блобом снапшота.
type Slot struct {
	SlotInfo
	Data []byte `json:"-"`
}

// SlotStorage — долговременное хранилище экспортированных снапшотов.
// Реализации: FileSlots (папка с файлами) и sqlite.Store.
type SlotStorage interface {
	Put(ctx context.Context, name string, data []byte) error
	Get(ctx context.Context, name string) (Slot, error)
	List(ctx context.Context) ([]SlotInfo, error)
	Delete(ctx context.Context, name string) error
	Close() error
}

// ValidateSlotName разрешает только [a-zA-Z0-9_-], чтобы имя было безопасно
// и как имя файла, и как ключ в БД.
func ValidateSlotName(name string) error {
	if name == "" || len(name) > 64 {
		return fmt.Errorf("%w: %q", ErrInvalidSlotName, name)
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
		default:
			return fmt.Errorf("%w: %q", ErrInvalidSlotName, name)
		}
	}
	return nil
}

// FileSlots хранит каждый слот отдельным файлом в SaveDir.
type FileSlots struct {
	SaveDir string
}

// NewFileSlots создает папку, если её нет.
func NewFileSlots(dir string) (*FileSlots, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create save dir: %w", err)
	}
	return &FileSlots{SaveDir: dir}, nil
}

func (s *FileSlots) path(name string) string {
	return filepath.Join(s.SaveDir, name+SlotExt)
}

// Put атомарно записывает слот: сначала во временный файл, потом rename.
func (s *FileSlots) Put(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := ValidateSlotName(name); err != nil {
		return err
	}
	if _, err := PeekHeader(data); err != nil {
		return fmt.Errorf("refusing to store slot %s: %w", name, err)
	}

	tmp, err := os.CreateTemp(s.SaveDir, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write slot %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close slot %s: %w", name, err)
	}
	if err := os.Rename(tmpName, s.path(name)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename slot %s: %w", name, err)
	}
	return nil
}

// Get читает слот целиком.
func (s *FileSlots) Get(ctx context.Context, name string) (Slot, error) {
	if err := ctx.Err(); err != nil {
		return Slot{}, err
	}
	if err := ValidateSlotName(name); err != nil {
		return Slot{}, err
	}

	path := s.path(name)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Slot{}, fmt.Errorf("%w: %s", ErrSlotNotFound, name)
	}
	if err != nil {
		return Slot{}, fmt.Errorf("read slot %s: %w", name, err)
	}

	info, err := s.describe(name, path)
	if err != nil {
		return Slot{}, err
	}
	return Slot{SlotInfo: info, Data: data}, nil
}

// List возвращает слоты, новые первыми.
func (s *FileSlots) List(ctx context.Context) ([]SlotInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dirEntries, err := os.ReadDir(s.SaveDir)
	if err != nil {
		return nil, fmt.Errorf("read save dir: %w", err)
	}

	var slots []SlotInfo
	for _, de := range dirEntries {
		if de.IsDir() || !strings.HasSuffix(de.Name(), SlotExt) {
			continue
		}
		name := strings.TrimSuffix(de.Name(), SlotExt)
		info, err := s.describe(name, filepath.Join(s.SaveDir, de.Name()))
		if err != nil {
			return nil, err
		}
		slots = append(slots, info)
	}

	sort.Slice(slots, func(i, j int) bool {
		if !slots[i].SavedAt.Equal(slots[j].SavedAt) {
			return slots[i].SavedAt.After(slots[j].SavedAt)
		}
		return slots[i].Name < slots[j].Name
	})
	return slots, nil
}

// Delete удаляет слот. Отсутствующий слот - ErrSlotNotFound.
func (s *FileSlots) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := ValidateSlotName(name); err != nil {
		return err
	}
	err := os.Remove(s.path(name))
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrSlotNotFound, name)
	}
	return err
}

// Close ничего не держит открытым.
func (s *FileSlots) Close() error {
	return nil
}

func (s *FileSlots) describe(name, path string) (SlotInfo, error) {
	st, err := os.Stat(path)
	if err != nil {
		return SlotInfo{}, fmt.Errorf("stat slot %s: %w", name, err)
	}

	info := SlotInfo{
		Name:    name,
		SavedAt: st.ModTime().UTC(),
		Size:    int(st.Size()),
	}

	// Количество записей берем из заголовка, не читая файл целиком
	f, err := os.Open(path)
	if err != nil {
		return SlotInfo{}, fmt.Errorf("open slot %s: %w", name, err)
	}
	defer f.Close()
	if header, err := readHeader(f); err == nil {
		info.EntryCount = int(header.EntryCount)
	}
	return info, nil
}
