package port

import (
	"context"

	"github.com/iamSachinDev/transcription-workflow-api/internal/domain/entity"
)

// AudioFetcher downloads audio content from a URL
type AudioFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Transcriber turns audio content into text. The returned source names the
// backend that produced the text (e.g. "openai", "mock").
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, language string) (text string, source string, err error)
}

// Notifier tells an assignee that a workflow landed on their desk.
// Implementations are best effort; callers log failures and move on.
type Notifier interface {
	NotifyAssignment(ctx context.Context, assignee string, wf *entity.Workflow) error
}
