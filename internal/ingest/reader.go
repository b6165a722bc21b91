package ingest

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"paddock/internal/entity"
)

// Format identifies a record file encoding.
type Format string

const (
	FormatJSON   Format = "json"
	FormatNDJSON Format = "ndjson"
	FormatYAML   Format = "yaml"
)

// ParseFormat accepts a format name or file extension.
func ParseFormat(value string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(value), ".")) {
	case "json":
		return FormatJSON, nil
	case "ndjson", "jsonl":
		return FormatNDJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported record format %q (want json, ndjson, jsonl, yaml, or yml)", value)
	}
}

// Defaults fill fields a record file leaves empty.
type Defaults struct {
	Type   entity.Type
	Source string
}

func (d Defaults) apply(records []entity.Record) {
	for i := range records {
		if strings.TrimSpace(string(records[i].Type)) == "" {
			records[i].Type = d.Type
		}
		if strings.TrimSpace(records[i].Source) == "" {
			records[i].Source = d.Source
		}
	}
}

// ReadRecords decodes a record file, picking the format from its extension.
// A source left empty in both the file and defaults becomes the file's base
// name.
func ReadRecords(path string, defaults Defaults) ([]entity.Record, error) {
	format, err := ParseFormat(filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open records: %w", err)
	}
	defer f.Close()

	if defaults.Source == "" {
		base := filepath.Base(path)
		defaults.Source = strings.TrimSuffix(base, filepath.Ext(base))
	}
	records, err := DecodeRecords(f, format, defaults)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

// DecodeRecords reads every record from r.
func DecodeRecords(r io.Reader, format Format, defaults Defaults) ([]entity.Record, error) {
	var (
		records []entity.Record
		err     error
	)
	switch format {
	case FormatJSON:
		records, err = decodeJSON(r)
	case FormatNDJSON:
		records, err = decodeStream(r)
	case FormatYAML:
		records, err = decodeYAML(r)
	default:
		return nil, fmt.Errorf("unsupported record format %q", format)
	}
	if err != nil {
		return nil, err
	}
	defaults.apply(records)
	return records, nil
}

// decodeJSON accepts a top-level array. Anything else is read as a stream of
// objects so concatenated exports still load.
func decodeJSON(r io.Reader) ([]entity.Record, error) {
	br := bufio.NewReader(r)
	first, err := peekNonSpace(br)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, err
	}
	if first != '[' {
		return decodeStream(br)
	}
	var records []entity.Record
	if err := json.NewDecoder(br).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode json records: %w", err)
	}
	return records, nil
}

func decodeStream(r io.Reader) ([]entity.Record, error) {
	dec := json.NewDecoder(r)
	var records []entity.Record
	for {
		var rec entity.Record
		err := dec.Decode(&rec)
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		if err != nil {
			return nil, fmt.Errorf("decode record %d: %w", len(records)+1, err)
		}
		records = append(records, rec)
	}
}

func decodeYAML(r io.Reader) ([]entity.Record, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read yaml records: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	var records []entity.Record
	if err := yaml.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode yaml records: %w", err)
	}
	return records, nil
}

func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		}
		return b, br.UnreadByte()
	}
}
