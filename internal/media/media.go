// Package media turns audio and image files into raw journal text.
package media

import "context"

// Transcriber converts an audio file into text.
type Transcriber interface {
	Transcribe(ctx context.Context, path string) (string, error)
}

// TextExtractor converts an image file into the text written in it.
type TextExtractor interface {
	ExtractText(ctx context.Context, path string) (string, error)
}
