package notify

import (
	"context"

	"github.com/iamSachinDev/transcription-workflow-api/internal/domain/entity"
	"github.com/iamSachinDev/transcription-workflow-api/internal/port"
)

// Noop is the notifier used when no messaging backend is configured
type Noop struct{}

// NewNoop creates a notifier that does nothing
func NewNoop() *Noop {
	return &Noop{}
}

// NotifyAssignment does nothing
func (n *Noop) NotifyAssignment(context.Context, string, *entity.Workflow) error {
	return nil
}

// Verify interface compliance
var _ port.Notifier = (*Noop)(nil)
