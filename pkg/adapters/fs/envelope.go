package fs

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/aretw0/shelter/pkg/core"
)

// contentKey is the single top-level key of a table file.
const contentKey = "content"

// envelope is the on-disk wrapper. Content holds either a base64 string
// (encrypted mode) or an array of records (plain mode); the mode itself is
// not recorded.
type envelope struct {
	Content json.RawMessage `json:"content"`
}

// load returns the decoded table. A missing file is an empty table. A file
// that cannot be decoded is ErrCorruptTable, or empty in lenient mode.
func (s *Store) load(table string) ([]core.Record, error) {
	path := s.TablePath(table)
	mode := s.Mode()

	info, err := os.Stat(path)
	if isNotExist(err) {
		return []core.Record{}, nil
	}
	if err != nil {
		s.logger.Error("failed to stat table", "table", table, "path", path, "error", err)
		return nil, fmt.Errorf("%w: stat %s: %v", core.ErrIO, path, err)
	}

	if recs, ok := s.cache.Get(table, mode, info.ModTime(), info.Size()); ok {
		return recs, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		s.logger.Error("failed to read table", "table", table, "path", path, "error", err)
		return nil, fmt.Errorf("%w: read %s: %v", core.ErrIO, path, err)
	}

	recs, err := s.decode(data, mode)
	if err != nil {
		s.logger.Error("failed to decode table", "table", table, "path", path, "mode", mode.String(), "error", err)
		if s.config.Lenient {
			return []core.Record{}, nil
		}
		return nil, fmt.Errorf("%w: %s: %w", core.ErrCorruptTable, table, err)
	}

	s.cache.Set(table, mode, info.ModTime(), info.Size(), recs)
	return recs, nil
}

// save encodes recs in the current mode and replaces the table file.
func (s *Store) save(table string, recs []core.Record) error {
	path := s.TablePath(table)
	mode := s.Mode()

	data, err := s.encode(recs, mode)
	if err != nil {
		s.logger.Error("failed to encode table", "table", table, "mode", mode.String(), "error", err)
		return err
	}

	if err := writeFileAtomic(path, data, s.config.FileMode); err != nil {
		s.logger.Error("failed to write table", "table", table, "path", path, "error", err)
		return fmt.Errorf("%w: %v", core.ErrIO, err)
	}

	s.cache.Delete(table)
	s.logger.Debug("table written", "table", table, "records", len(recs), "mode", mode.String())
	return nil
}

func (s *Store) decode(data []byte, mode core.Mode) ([]core.Record, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: invalid envelope: %v", core.ErrSerialization, err)
	}
	if env.Content == nil {
		return nil, fmt.Errorf("%w: envelope has no %q key", core.ErrSerialization, contentKey)
	}

	if mode == core.ModeEncrypted {
		if s.config.Codec == nil {
			return nil, fmt.Errorf("%w: encrypted mode without a codec", core.ErrValidation)
		}
		var text string
		if err := json.Unmarshal(env.Content, &text); err != nil {
			return nil, fmt.Errorf("%w: content is not ciphertext (table written in plain mode?)", core.ErrSerialization)
		}
		return s.config.Codec.DecryptRecords(text)
	}

	recs, err := core.DecodeRecords(bytes.NewReader(env.Content))
	if err != nil {
		var text string
		if json.Unmarshal(env.Content, &text) == nil {
			return nil, fmt.Errorf("%w: content is a string (table written in encrypted mode?)", core.ErrSerialization)
		}
		return nil, fmt.Errorf("%w: %v", core.ErrSerialization, err)
	}
	return recs, nil
}

func (s *Store) encode(recs []core.Record, mode core.Mode) ([]byte, error) {
	if recs == nil {
		recs = []core.Record{}
	}

	var content any = recs
	if mode == core.ModeEncrypted {
		if s.config.Codec == nil {
			return nil, fmt.Errorf("%w: encrypted mode without a codec", core.ErrValidation)
		}
		text, err := s.config.Codec.Encrypt(recs)
		if err != nil {
			return nil, err
		}
		content = text
	}

	data, err := json.MarshalIndent(map[string]any{contentKey: content}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrSerialization, err)
	}
	return append(data, '\n'), nil
}
