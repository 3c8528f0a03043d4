package transcriber

import (
	"bytes"
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/iamSachinDev/transcription-workflow-api/internal/port"
)

// OpenAI transcribes audio with the Whisper API
type OpenAI struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// NewOpenAI creates a Whisper-backed transcriber
func NewOpenAI(apiKey, model string, logger *zap.Logger) *OpenAI {
	if model == "" {
		model = openai.Whisper1
	}
	return &OpenAI{
		client: openai.NewClient(apiKey),
		model:  model,
		logger: logger,
	}
}

// Transcribe sends the audio to the Whisper API and returns the text
func (o *OpenAI) Transcribe(ctx context.Context, audio []byte, language string) (string, string, error) {
	req := openai.AudioRequest{
		Model:    o.model,
		Reader:   bytes.NewReader(audio),
		FilePath: "audio.mp3", // filename hint only; content comes from Reader
		Language: language,
	}

	resp, err := o.client.CreateTranscription(ctx, req)
	if err != nil {
		o.logger.Error("Whisper transcription failed",
			zap.String("model", o.model),
			zap.Error(err))
		return "", "", fmt.Errorf("whisper transcription failed: %w", err)
	}

	return resp.Text, "openai", nil
}

// Verify interface compliance
var _ port.Transcriber = (*OpenAI)(nil)
