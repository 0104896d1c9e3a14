package ingest

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"dreamweaver-ai/internal/storage"
)

// Kind is how a file's content is turned into raw entry text.
type Kind string

const (
	KindText  Kind = "text"
	KindJSON  Kind = "json"
	KindAudio Kind = "audio"
	KindImage Kind = "image"
)

var extensionKinds = map[string]Kind{
	".txt":  KindText,
	".json": KindJSON,
	".mp3":  KindAudio,
	".wav":  KindAudio,
	".m4a":  KindAudio,
	".jpg":  KindImage,
	".jpeg": KindImage,
	".png":  KindImage,
}

// KindOf maps a file path to its kind by extension, case-insensitively.
func KindOf(path string) (Kind, error) {
	ext := strings.ToLower(filepath.Ext(path))
	kind, ok := extensionKinds[ext]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedExtension, ext)
	}
	return kind, nil
}

// SupportedExtensions lists the accepted extensions in sorted order.
func SupportedExtensions() []string {
	exts := make([]string, 0, len(extensionKinds))
	for ext := range extensionKinds {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// SourceType is the source recorded on entries produced from this kind.
// JSON records are stored as text.
func (k Kind) SourceType() storage.SourceType {
	switch k {
	case KindAudio:
		return storage.SourceAudio
	case KindImage:
		return storage.SourceImage
	default:
		return storage.SourceText
	}
}

// NeedsNetwork reports whether extracting text for this kind relies on a remote backend.
func (k Kind) NeedsNetwork() bool {
	return k == KindAudio || k == KindImage
}
