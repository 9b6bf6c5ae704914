package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/aretw0/shelter"
	"github.com/aretw0/shelter/pkg/adapters/fs"
	"github.com/aretw0/shelter/pkg/core"
)

// printJSON writes v as indented JSON followed by a newline.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printRecords writes recs as a JSON array; an empty result prints [].
func printRecords(w io.Writer, recs []shelter.Record) error {
	if recs == nil {
		recs = []shelter.Record{}
	}
	return printJSON(w, recs)
}

// readRecord parses a JSON or YAML mapping from the argument, from --file or
// from stdin when the argument is "-" or absent.
func readRecord(stdin io.Reader, arg, file string) (shelter.Record, error) {
	switch {
	case file != "":
		f, err := os.Open(file)
		if err != nil {
			return shelter.Record{}, err
		}
		defer f.Close()
		return fs.ParseRecord(f)
	case arg == "" || arg == "-":
		return fs.ParseRecord(stdin)
	}
	return fs.ParseRecord(strings.NewReader(arg))
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q: must be an integer", s)
	}
	return id, nil
}

// parseConditions turns field=value pairs into Where conditions. Values are
// read as JSON scalars when possible so age=30 matches the number 30; quote
// them ("\"30\"") to match the string.
func parseConditions(pairs []string) (map[string]any, error) {
	conds := make(map[string]any, len(pairs))
	for _, p := range pairs {
		field, raw, ok := strings.Cut(p, "=")
		if !ok || field == "" {
			return nil, fmt.Errorf("invalid condition %q: expected field=value", p)
		}
		conds[field] = parseScalar(raw)
	}
	return conds, nil
}

func parseScalar(raw string) any {
	if v, err := core.DecodeValue(strings.NewReader(raw)); err == nil {
		return v
	}
	return raw
}
