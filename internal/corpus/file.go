package corpus

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
)

// FileSource reads records from a file holding either a JSON array of
// records or newline-delimited JSON objects.
type FileSource struct {
	Path string
}

func (s FileSource) Load(_ context.Context) ([]Record, error) {
	return ReadFile(s.Path)
}

// ReadFile parses records from path. The format is sniffed from the first
// non-space byte: '[' means a JSON array, anything else is treated as JSONL.
// Records without an ID are assigned one.
func ReadFile(path string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read corpus file: %w", err)
	}

	var records []Record
	if first := firstNonSpace(data); first == '[' {
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, fmt.Errorf("parse corpus array: %w", err)
		}
	} else {
		scanner := bufio.NewScanner(bytes.NewReader(data))
		scanner.Buffer(make([]byte, 0, 1024*1024), 16*1024*1024)
		line := 0
		for scanner.Scan() {
			line++
			raw := bytes.TrimSpace(scanner.Bytes())
			if len(raw) == 0 {
				continue
			}
			var r Record
			if err := json.Unmarshal(raw, &r); err != nil {
				return nil, fmt.Errorf("parse corpus line %d: %w", line, err)
			}
			records = append(records, r)
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("scan corpus file: %w", err)
		}
	}

	for i := range records {
		if records[i].ID == "" {
			records[i].ID = uuid.New().String()
		}
	}
	return records, nil
}

func firstNonSpace(data []byte) byte {
	for _, b := range data {
		switch b {
		case ' ', '\t', '\n', '\r':
			continue
		}
		return b
	}
	return 0
}
