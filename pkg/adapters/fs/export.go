package fs

import (
	"context"
	"fmt"
	"io"

	"github.com/aretw0/shelter/pkg/core"
)

// Export writes the decoded table to w in the named format (json, yaml or
// csv). Exported data is always plaintext.
func (s *Store) Export(ctx context.Context, table string, w io.Writer, format string) error {
	ser, err := SerializerFor(format)
	if err != nil {
		return err
	}
	recs, err := s.snapshot(table)
	if err != nil {
		return err
	}

	data, err := ser.Serialize(recs)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("%w: write export: %v", core.ErrIO, err)
	}

	s.logger.Debug("table exported", "table", table, "format", format, "records", len(recs))
	return nil
}

// ImportFrom parses records in the named format and appends them with fresh
// ids, in a single write. Ids present in the input are not kept.
func (s *Store) ImportFrom(ctx context.Context, table string, r io.Reader, format string) ([]core.Record, error) {
	ser, err := SerializerFor(format)
	if err != nil {
		return nil, err
	}
	recs, err := ser.Parse(r)
	if err != nil {
		return nil, err
	}
	return s.Import(ctx, table, recs)
}
