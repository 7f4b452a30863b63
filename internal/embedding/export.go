package embedding

import (
	"encoding/json"
	"fmt"
	"io"
)

type Format string

const (
	FormatJSONL Format = "jsonl"
	FormatArray Format = "array"
)

const (
	FullFileName     = "evidence_embeddings.json"
	MetadataFileName = "evidence_embeddings_metadata.json"
)

func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", FormatJSONL:
		return FormatJSONL, nil
	case FormatArray:
		return FormatArray, nil
	}
	return "", fmt.Errorf("unknown format %q (want jsonl or array)", s)
}

// WriteRecords writes one JSON document per line, or a single JSON array.
func WriteRecords[T any](w io.Writer, items []T, format Format) error {
	if format == FormatArray {
		if items == nil {
			items = []T{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(items)
	}

	enc := json.NewEncoder(w)
	for _, it := range items {
		if err := enc.Encode(it); err != nil {
			return err
		}
	}
	return nil
}

func metadataOnly(records []Record) []MetadataRecord {
	out := make([]MetadataRecord, len(records))
	for i, r := range records {
		out[i] = MetadataRecord{ID: r.ID, Metadata: r.Metadata}
	}
	return out
}
