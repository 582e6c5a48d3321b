package storage

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"savestate-server/internal/domain"
)

const (
	MagicHeader string = `CDSV` // 4 байта
	Version1    uint32 = 1

	// maxPayloadLen ограничивает аллокацию при чтении битого файла
	maxPayloadLen = 64 << 20
)

// SnapshotFileHeader — точное представление заголовка блоба в памяти.
// binary.Write пишет его целиком: внутри только массивы и числа.
type SnapshotFileHeader struct {
	Magic      [4]byte // 4 байта
	Version    uint32  // 4 байта
	EntryCount uint32  // 4 байта
}

// EntryHeader — заголовок каждой записи снапшота.
type EntryHeader struct {
	ObjectID   uint64 // 8
	DataTypeID uint32 // 4
	PayloadLen uint32 // 4
}

// EncodeSnapshot сериализует снапшот в непрозрачный блоб.
func EncodeSnapshot(s *domain.Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteSnapshot(&buf, s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteSnapshot пишет снапшот в w. Записи идут в порядке ключей,
// поэтому одинаковые снапшоты дают одинаковые байты.
func WriteSnapshot(w io.Writer, s *domain.Snapshot) error {
	entries := s.Entries()
	if uint64(len(entries)) > math.MaxUint32 {
		return fmt.Errorf("too many entries: %d", len(entries))
	}

	// 1. Глобальный заголовок
	header := SnapshotFileHeader{
		Version:    Version1,
		EntryCount: uint32(len(entries)),
	}
	copy(header.Magic[:], MagicHeader)

	if err := binary.Write(w, binary.LittleEndian, &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	// 2. Записи
	for _, e := range entries {
		if len(e.Payload) > maxPayloadLen {
			return fmt.Errorf("payload too long for %s: %d", e.Key(), len(e.Payload))
		}

		entryHeader := EntryHeader{
			ObjectID:   uint64(e.ObjectID),
			DataTypeID: uint32(e.DataTypeID),
			PayloadLen: uint32(len(e.Payload)),
		}
		if err := binary.Write(w, binary.LittleEndian, &entryHeader); err != nil {
			return fmt.Errorf("failed to write entry %s: %w", e.Key(), err)
		}

		if len(e.Payload) > 0 {
			if _, err := w.Write(e.Payload); err != nil {
				return fmt.Errorf("failed to write payload %s: %w", e.Key(), err)
			}
		}
	}

	return nil
}
