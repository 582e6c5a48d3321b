package storage

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"savestate-server/internal/domain"
)

var (
	ErrInvalidMagic       = errors.New("invalid magic")
	ErrUnsupportedVersion = errors.New("unsupported version")
	ErrCorrupt            = errors.New("corrupt snapshot")
)

// DecodeSnapshot разбирает блоб, полученный из EncodeSnapshot.
func DecodeSnapshot(data []byte) (*domain.Snapshot, error) {
	r := bytes.NewReader(data)
	s, err := ReadSnapshot(r)
	if err != nil {
		return nil, err
	}
	if r.Len() != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrCorrupt, r.Len())
	}
	return s, nil
}

// PeekHeader читает и валидирует только заголовок.
func PeekHeader(data []byte) (SnapshotFileHeader, error) {
	return readHeader(bytes.NewReader(data))
}

func readHeader(r io.Reader) (SnapshotFileHeader, error) {
	var header SnapshotFileHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return header, fmt.Errorf("failed to read header: %w", err)
	}

	if string(header.Magic[:]) != MagicHeader {
		return header, ErrInvalidMagic
	}
	if header.Version != Version1 {
		return header, fmt.Errorf("%w: %d (expected %d)", ErrUnsupportedVersion, header.Version, Version1)
	}
	return header, nil
}

// ReadSnapshot читает снапшот из r.
func ReadSnapshot(r io.Reader) (*domain.Snapshot, error) {
	// 1. Заголовок
	header, err := readHeader(r)
	if err != nil {
		return nil, err
	}

	snapshot := domain.NewSnapshot()

	// 2. Записи
	for i := 0; i < int(header.EntryCount); i++ {
		var eh EntryHeader
		if err := binary.Read(r, binary.LittleEndian, &eh); err != nil {
			return nil, fmt.Errorf("%w: entry %d header: %v", ErrCorrupt, i, err)
		}
		if eh.PayloadLen > maxPayloadLen {
			return nil, fmt.Errorf("%w: entry %d payload length %d", ErrCorrupt, i, eh.PayloadLen)
		}

		entry := domain.SnapshotEntry{
			ObjectID:   domain.StableID(eh.ObjectID),
			DataTypeID: domain.TypeTag(eh.DataTypeID),
			Payload:    make([]byte, eh.PayloadLen),
		}
		if _, err := io.ReadFull(r, entry.Payload); err != nil {
			return nil, fmt.Errorf("%w: entry %d payload: %v", ErrCorrupt, i, err)
		}

		// На ключ - одна запись. Дубликат означает битый файл.
		if _, exists := snapshot.Get(entry.Key()); exists {
			return nil, fmt.Errorf("%w: duplicate key %s", ErrCorrupt, entry.Key())
		}
		snapshot.Upsert(entry)
	}

	return snapshot, nil
}
