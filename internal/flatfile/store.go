// =============================================================================
// Pharmacy Records - Flat File Store
// =============================================================================
//
// This module provides the generic load-all / overwrite-all / append-one
// operations every ledger is built on. One Store owns one file.
//
// FILE CONTRACT:
//   - Load returns records in file-line order. A missing file is an empty
//     store, not an error. Blank lines are skipped and "\r\n" endings are
//     accepted.
//   - Lines that fail to parse are collected as MalformedRecordErrors next
//     to the good records. Whether that fails the caller is each ledger's
//     policy (LoadStrict vs LoadTolerant).
//   - OverwriteAll formats every record before touching the disk, writes a
//     temp file in the same directory, syncs it and renames it over the
//     target. Readers see the old contents or the new, never a mix.
//   - AppendOne adds one line without reading the rest of the file.
//
// LOCKING:
//   Load enters the gate shared; writes enter it exclusively. Ledgers hold
//   the gate across a whole read-modify-write cycle (see Gate).
//
// =============================================================================

package flatfile

import (
	"bufio"
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ginjaninja78/pharmacy-records/internal/records"
)

// maxLineSize bounds a single record line.
const maxLineSize = 1 << 20

// =============================================================================
// STORE
// =============================================================================

// Store reads and writes one record type in one file.
type Store[T any] struct {
	path  string
	codec records.Codec[T]
	gate  *Gate
	log   logrus.FieldLogger
}

// New creates a Store. A nil gate gets a private one; a nil logger
// discards output.
func New[T any](path string, codec records.Codec[T], gate *Gate, log logrus.FieldLogger) *Store[T] {
	if gate == nil {
		gate = NewGate()
	}
	if log == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		log = discard
	}
	return &Store[T]{
		path:  path,
		codec: codec,
		gate:  gate,
		log:   log.WithField("file", filepath.Base(path)),
	}
}

// Path returns the backing file path.
func (s *Store[T]) Path() string { return s.path }

// Gate returns the gate guarding this store.
func (s *Store[T]) Gate() *Gate { return s.gate }

// Result is the outcome of a Load.
type Result[T any] struct {
	// Records holds every line that parsed, in file order.
	Records []T

	// Malformed holds every line that did not.
	Malformed []*records.MalformedRecordError
}

// Err returns the first malformed line, or nil.
func (r *Result[T]) Err() error {
	if len(r.Malformed) == 0 {
		return nil
	}
	return r.Malformed[0]
}

// =============================================================================
// READ OPERATIONS
// =============================================================================

// Load reads every line of the file.
//
// RETURNS:
//   - The parsed records and any malformed lines.
//   - An error wrapping records.ErrIOUnavailable if the file exists but
//     cannot be read.
func (s *Store[T]) Load(ctx context.Context) (*Result[T], error) {
	var result *Result[T]
	err := s.gate.Read(ctx, func(ctx context.Context) error {
		var err error
		result, err = s.load()
		return err
	})
	return result, err
}

func (s *Store[T]) load() (*Result[T], error) {
	result := &Result[T]{Records: []T{}}

	file, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return result, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", records.ErrIOUnavailable, s.path, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		record, err := s.codec.Parse(line)
		if err != nil {
			var bad *records.MalformedRecordError
			if !errors.As(err, &bad) {
				bad = &records.MalformedRecordError{Raw: line, Reason: err.Error()}
			}
			bad.File = s.path
			bad.Line = lineNo
			result.Malformed = append(result.Malformed, bad)
			continue
		}
		result.Records = append(result.Records, record)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", records.ErrIOUnavailable, s.path, err)
	}

	return result, nil
}

// LoadStrict reads every record and fails on the first malformed line.
// Mutating operations use it so a rewrite never drops a line silently.
func (s *Store[T]) LoadStrict(ctx context.Context) ([]T, error) {
	result, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	if err := result.Err(); err != nil {
		return nil, err
	}
	return result.Records, nil
}

// LoadTolerant reads every record, logging and skipping malformed lines.
func (s *Store[T]) LoadTolerant(ctx context.Context) ([]T, error) {
	result, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	for _, bad := range result.Malformed {
		s.log.WithFields(logrus.Fields{"line": bad.Line, "reason": bad.Reason}).Warn("skipping malformed record")
	}
	return result.Records, nil
}

// Fingerprint returns a SHA-256 of the file contents, or "" when the file
// does not exist.
func (s *Store[T]) Fingerprint(ctx context.Context) (string, error) {
	var sum string
	err := s.gate.Read(ctx, func(ctx context.Context) error {
		data, err := os.ReadFile(s.path)
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: %s: %v", records.ErrIOUnavailable, s.path, err)
		}
		h := sha256.Sum256(data)
		sum = hex.EncodeToString(h[:])
		return nil
	})
	return sum, err
}

// =============================================================================
// WRITE OPERATIONS
// =============================================================================

// OverwriteAll replaces the file's contents with the given records.
//
// PARAMETERS:
//   - list: The records to write, in order. An empty list empties the file.
//
// RETURNS:
//   - A validation error if any record cannot be formatted (nothing is
//     written), or a wrapped I/O error.
func (s *Store[T]) OverwriteAll(ctx context.Context, list []T) error {
	var buf bytes.Buffer
	for i, record := range list {
		line, err := s.codec.Format(record)
		if err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
		buf.WriteString(line)
		buf.WriteByte('\n')
	}

	return s.gate.Write(ctx, func(ctx context.Context) error {
		if err := s.replace(buf.Bytes()); err != nil {
			return fmt.Errorf("failed to rewrite %s: %w", s.path, err)
		}
		s.log.WithField("records", len(list)).Debug("rewrote file")
		return nil
	})
}

func (s *Store[T]) replace(data []byte) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return err
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		cleanup()
		return err
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		cleanup()
		return err
	}
	return nil
}

// AppendOne adds a single record at the end of the file, creating it if
// needed. If the file does not end with a newline one is written first.
func (s *Store[T]) AppendOne(ctx context.Context, record T) error {
	line, err := s.codec.Format(record)
	if err != nil {
		return err
	}

	return s.gate.Write(ctx, func(ctx context.Context) error {
		if err := s.append(line); err != nil {
			return fmt.Errorf("failed to append to %s: %w", s.path, err)
		}
		s.log.Debug("appended record")
		return nil
	})
}

func (s *Store[T]) append(line string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return err
	}

	file, err := os.OpenFile(s.path, os.O_RDWR|os.O_APPEND|os.O_CREATE, 0644)
	if err != nil {
		return err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return err
	}
	if size := info.Size(); size > 0 {
		last := make([]byte, 1)
		if _, err := file.ReadAt(last, size-1); err != nil {
			return err
		}
		if last[0] != '\n' {
			line = "\n" + line
		}
	}

	if _, err := file.WriteString(line + "\n"); err != nil {
		return err
	}
	return file.Sync()
}

// Truncate empties the file.
func (s *Store[T]) Truncate(ctx context.Context) error {
	return s.OverwriteAll(ctx, nil)
}
