package ingest

import (
	"errors"
	"testing"
)

func TestParseRecords(t *testing.T) {
	data := []byte(`[
		{"date": "2024-03-01", "text": "Felt great today"},
		{"text": "no date here"},
		{"date": "2024-03-02", "text": "   "},
		{"date": 20240303, "text": "numeric date"},
		"just a string",
		null
	]`)

	records, err := ParseRecords(data)
	if err != nil {
		t.Fatalf("ParseRecords() error = %v", err)
	}
	if len(records) != 6 {
		t.Fatalf("ParseRecords() returned %d records, want 6", len(records))
	}

	wf, ok := records[0].(WellFormedRecord)
	if !ok || wf.Date != "2024-03-01" || wf.Text != "Felt great today" {
		t.Errorf("record 0 = %#v, want well-formed", records[0])
	}

	raw, ok := records[1].(RawRecord)
	if !ok || raw.FallbackDate != "" || string(raw.Blob) != `{"text":"no date here"}` {
		t.Errorf("record 1 = %#v, want raw without fallback date", records[1])
	}

	raw, ok = records[2].(RawRecord)
	if !ok || raw.FallbackDate != "2024-03-02" {
		t.Errorf("record 2 = %#v, want raw with its own date", records[2])
	}

	if _, ok := records[3].(RawRecord); !ok {
		t.Errorf("record 3 = %#v, want raw for non-string date", records[3])
	}
	if _, ok := records[4].(RawRecord); !ok {
		t.Errorf("record 4 = %#v, want raw for non-object", records[4])
	}
	if _, ok := records[5].(RawRecord); !ok {
		t.Errorf("record 5 = %#v, want raw for null", records[5])
	}
}

func TestParseRecords_Malformed(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "object", data: `{"date": "2024-01-01", "text": "x"}`},
		{name: "truncated", data: `[{"date": "2024-01-01"`},
		{name: "null", data: `null`},
		{name: "empty", data: ``},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRecords([]byte(tt.data))
			if !errors.Is(err, ErrMalformedJSON) {
				t.Errorf("ParseRecords() error = %v, want ErrMalformedJSON", err)
			}
		})
	}
}

func TestParseRecords_EmptyArray(t *testing.T) {
	records, err := ParseRecords([]byte(`[]`))
	if err != nil {
		t.Fatalf("ParseRecords() error = %v", err)
	}
	if len(records) != 0 {
		t.Errorf("ParseRecords() returned %d records, want 0", len(records))
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		path    string
		want    Kind
		wantErr bool
	}{
		{path: "notes.txt", want: KindText},
		{path: "/tmp/export.JSON", want: KindJSON},
		{path: "memo.m4a", want: KindAudio},
		{path: "page.jpeg", want: KindImage},
		{path: "doc.pdf", wantErr: true},
		{path: "noext", wantErr: true},
	}
	for _, tt := range tests {
		got, err := KindOf(tt.path)
		if tt.wantErr {
			if !errors.Is(err, ErrUnsupportedExtension) {
				t.Errorf("KindOf(%q) error = %v, want ErrUnsupportedExtension", tt.path, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("KindOf(%q) = %q, %v, want %q", tt.path, got, err, tt.want)
		}
	}

	if exts := SupportedExtensions(); len(exts) != 8 || exts[0] != ".jpeg" {
		t.Errorf("SupportedExtensions() = %v", exts)
	}
	if KindJSON.SourceType() != "text" || KindAudio.SourceType() != "audio" {
		t.Error("SourceType() mapping wrong")
	}
}
