package transcriber

import (
	"context"
	"time"

	"github.com/iamSachinDev/transcription-workflow-api/internal/port"
)

// Mock is a transcriber that returns fixed text after a short delay,
// standing in for a speech backend in development and tests.
type Mock struct {
	source string
}

// NewMock creates a mock transcriber that reports the given source
func NewMock(source string) *Mock {
	if source == "" {
		source = "mock"
	}
	return &Mock{source: source}
}

// Transcribe returns the canned transcription text
func (m *Mock) Transcribe(ctx context.Context, _ []byte, _ string) (string, string, error) {
	select {
	case <-ctx.Done():
		return "", "", ctx.Err()
	case <-time.After(50 * time.Millisecond):
	}
	return "transcribed text", m.source, nil
}

// Verify interface compliance
var _ port.Transcriber = (*Mock)(nil)
