package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	lark "github.com/larksuite/oapi-sdk-go/v3"
	larkim "github.com/larksuite/oapi-sdk-go/v3/service/im/v1"
	"go.uber.org/zap"

	"github.com/iamSachinDev/transcription-workflow-api/internal/domain/entity"
	"github.com/iamSachinDev/transcription-workflow-api/internal/port"
)

// LarkConfig holds Lark app credentials
type LarkConfig struct {
	AppID     string
	AppSecret string
}

// Enabled reports whether credentials are present
func (c LarkConfig) Enabled() bool {
	return c.AppID != "" && c.AppSecret != ""
}

// LarkNotifier sends workflow assignment messages through Lark
type LarkNotifier struct {
	client *lark.Client
	logger *zap.Logger
}

// NewLarkNotifier creates a Lark-backed notifier
func NewLarkNotifier(cfg LarkConfig, logger *zap.Logger) *LarkNotifier {
	client := lark.NewClient(cfg.AppID, cfg.AppSecret,
		lark.WithEnableTokenCache(true),
	)

	return &LarkNotifier{
		client: client,
		logger: logger,
	}
}

// NotifyAssignment sends the assignee a text message about the workflow's
// current step. Assignees containing '@' are addressed by email, anything
// else is treated as a Lark open id.
func (n *LarkNotifier) NotifyAssignment(ctx context.Context, assignee string, wf *entity.Workflow) error {
	receiveIDType := "open_id"
	if strings.Contains(assignee, "@") {
		receiveIDType = "email"
	}

	text := fmt.Sprintf("Transcription %s is now in %s (workflow #%d)",
		wf.TranscriptionID, wf.CurrentState, wf.ID)

	content, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return fmt.Errorf("failed to marshal message content: %w", err)
	}

	req := larkim.NewCreateMessageReqBuilder().
		ReceiveIdType(receiveIDType).
		Body(larkim.NewCreateMessageReqBodyBuilder().
			ReceiveId(assignee).
			MsgType("text").
			Content(string(content)).
			Build()).
		Build()

	resp, err := n.client.Im.Message.Create(ctx, req)
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	if !resp.Success() {
		return fmt.Errorf("lark api error: code=%d, msg=%s", resp.Code, resp.Msg)
	}

	n.logger.Info("Assignment notification sent",
		zap.String("assignee", assignee),
		zap.Int64("workflow_id", wf.ID),
		zap.String("state", wf.CurrentState.String()))
	return nil
}

// Verify interface compliance
var _ port.Notifier = (*LarkNotifier)(nil)
