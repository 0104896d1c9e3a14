package ingest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Record is one element of an uploaded JSON array.
// It is either a WellFormedRecord or a RawRecord.
type Record interface {
	isRecord()
}

// WellFormedRecord carries both a date string and non-blank text.
// Date is not validated here; a malformed date falls back to today during normalization.
type WellFormedRecord struct {
	Date string
	Text string
}

// RawRecord is an element missing its date or text. The whole element is sent to the
// model for cleanup.
type RawRecord struct {
	Blob         json.RawMessage
	FallbackDate string // the element's own date when present, otherwise empty
}

func (WellFormedRecord) isRecord() {}
func (RawRecord) isRecord()        {}

// ParseRecords decodes a JSON array into records.
// Elements that are not objects, or whose date or text is missing, blank or not a string,
// become RawRecords. Anything other than an array is ErrMalformedJSON.
func ParseRecords(data []byte) ([]Record, error) {
	var elements []json.RawMessage
	if err := json.Unmarshal(data, &elements); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedJSON, err)
	}
	if elements == nil {
		return nil, fmt.Errorf("%w: top-level value is not an array", ErrMalformedJSON)
	}

	records := make([]Record, 0, len(elements))
	for _, elem := range elements {
		records = append(records, classify(elem))
	}
	return records, nil
}

func classify(elem json.RawMessage) Record {
	blob := compact(elem)

	var fields map[string]any
	if err := json.Unmarshal(elem, &fields); err != nil || fields == nil {
		return RawRecord{Blob: blob}
	}

	date, _ := fields["date"].(string)
	text, _ := fields["text"].(string)
	date = strings.TrimSpace(date)

	if date != "" && strings.TrimSpace(text) != "" {
		return WellFormedRecord{Date: date, Text: text}
	}
	return RawRecord{Blob: blob, FallbackDate: date}
}

func compact(elem json.RawMessage) json.RawMessage {
	var buf bytes.Buffer
	if err := json.Compact(&buf, elem); err != nil {
		return elem
	}
	return buf.Bytes()
}
