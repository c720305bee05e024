// Package notify sends failed probe runs to a Feishu chat.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	lark "github.com/larksuite/oapi-sdk-go/v3"
	larkcore "github.com/larksuite/oapi-sdk-go/v3/core"
	larkim "github.com/larksuite/oapi-sdk-go/v3/service/im/v1"
	"github.com/rs/zerolog"

	"apiprobe/internal/models"
)

// TextSender delivers one plain-text message.
type TextSender interface {
	SendTextMessage(ctx context.Context, receiveIDType, receiveID, text string) error
}

type FeishuActor struct {
	c   *lark.Client
	log zerolog.Logger
}

func NewFeishuActor(appID, appSecret string, logger zerolog.Logger) *FeishuActor {
	return &FeishuActor{c: lark.NewClient(appID, appSecret), log: logger}
}

func (a *FeishuActor) SendTextMessage(ctx context.Context, receiveIDType, receiveID, text string) error {
	b, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return err
	}

	req := larkim.NewCreateMessageReqBuilder().
		ReceiveIdType(receiveIDType).
		Body(larkim.NewCreateMessageReqBodyBuilder().
			ReceiveId(receiveID).
			MsgType(`text`).
			Content(string(b)).
			Build()).
		Build()

	resp, err := a.c.Im.V1.Message.Create(ctx, req)
	if err != nil {
		return err
	}
	if !resp.Success() {
		return fmt.Errorf("logId: %s, error response: \n%s", resp.RequestId(), larkcore.Prettify(resp.CodeError))
	}

	a.log.Info().Str("receive_id_type", receiveIDType).Str("receive_id", receiveID).Msg("feishu message sent")
	return nil
}

// Notifier posts a message for every run that did not pass.
type Notifier struct {
	sender        TextSender
	receiveIDType string
	receiveID     string
}

// NewNotifier takes the receiver as "<receive_id_type>:<receive_id>".
func NewNotifier(sender TextSender, receiver string) (*Notifier, error) {
	idType, id, ok := strings.Cut(receiver, ":")
	if !ok || idType == "" || id == "" {
		return nil, fmt.Errorf("feishu receiver %q is not <receive_id_type>:<receive_id>", receiver)
	}
	return &Notifier{sender: sender, receiveIDType: idType, receiveID: id}, nil
}

// Notify does nothing for passed runs.
func (n *Notifier) Notify(ctx context.Context, r *models.RunReport) error {
	if r.Passed() {
		return nil
	}
	if err := n.sender.SendTextMessage(ctx, n.receiveIDType, n.receiveID, FormatFailure(r)); err != nil {
		return fmt.Errorf("notify run %s: %w", r.ID, err)
	}
	return nil
}

// FormatFailure renders a failed run as a short chat message.
func FormatFailure(r *models.RunReport) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "API probe %s against %s\n", r.Outcome, r.BaseURL)
	fmt.Fprintf(&sb, "run: %s at %s\n", r.ID, r.StartedAt.UTC().Format("2006-01-02 15:04:05Z"))
	if r.FailedStep != "" {
		fmt.Fprintf(&sb, "step: %s\n", r.FailedStep)
	}
	if r.StatusCode != 0 {
		fmt.Fprintf(&sb, "status: %d\n", r.StatusCode)
	}
	if r.Body != "" {
		fmt.Fprintf(&sb, "body: %s\n", truncate(r.Body, 500))
	}
	if r.Error != "" {
		fmt.Fprintf(&sb, "error: %s\n", r.Error)
	}
	return strings.TrimRight(sb.String(), "\n")
}

// truncate keeps at most n bytes of s without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
