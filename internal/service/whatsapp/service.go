package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/caloriebalance/tracker/internal/config"
	"github.com/caloriebalance/tracker/internal/domain/models"
	"github.com/caloriebalance/tracker/internal/service/commands"
	"github.com/caloriebalance/tracker/pkg/clients/anthropic"
	"github.com/caloriebalance/tracker/pkg/clients/nutritionix"
	client "github.com/caloriebalance/tracker/pkg/clients/whatsapp"
)

// MessagingService describes the operations the HTTP layer and scheduler use.
type MessagingService interface {
	VerifyWebhookToken(mode, verifyToken, challenge string) (string, error)
	HandleWebhook(ctx context.Context, payload models.WebhookPayload) error
	SendOutbound(ctx context.Context, req models.OutboundMessageRequest) error
}

// MetaWhatsAppService is the production implementation backed by WhatsApp Cloud API.
type MetaWhatsAppService struct {
	cfg        config.WhatsAppConfig
	client     client.Client
	ai         anthropic.Client
	dispatcher commands.Dispatcher
	logger     *zap.Logger
}

// NewMetaWhatsAppService wires a new service instance. ai may be nil, in
// which case only explicit commands are understood.
func NewMetaWhatsAppService(cfg config.WhatsAppConfig, client client.Client, ai anthropic.Client, dispatcher commands.Dispatcher, logger *zap.Logger) *MetaWhatsAppService {
	svc := &MetaWhatsAppService{
		cfg:        cfg,
		client:     client,
		ai:         ai,
		dispatcher: dispatcher,
		logger:     logger,
	}
	if svc.logger == nil {
		svc.logger = zap.NewNop()
	}
	return svc
}

var errorReplies = []struct {
	target error
	reply  models.AutomationReply
}{
	{commands.ErrUnknownSender, models.AutomationReply{
		Title:   "Number not linked",
		Message: "Add this phone number to your profile to log meals over WhatsApp.",
	}},
	{commands.ErrInvalidArguments, models.AutomationReply{
		Title:   "Could not read that",
		Message: "Examples: /meal 450 pasta, /activity run 30 300.",
	}},
	{commands.ErrUnsupportedCommand, models.AutomationReply{
		Title:   "Command Help",
		Message: commands.HelpText,
	}},
	{nutritionix.ErrServiceUnavailable, models.AutomationReply{
		Title:   "Nutrition lookup unavailable",
		Message: "Try again later or send the calories yourself, e.g. /meal 450 pasta.",
	}},
}

// VerifyWebhookToken validates the callback verification token.
func (s *MetaWhatsAppService) VerifyWebhookToken(mode, verifyToken, challenge string) (string, error) {
	if mode == "" || verifyToken == "" {
		return "", errors.New("missing mode or verify token")
	}

	if !strings.EqualFold(mode, "subscribe") {
		return "", fmt.Errorf("unsupported hub.mode %s", mode)
	}

	if verifyToken != s.cfg.VerifyToken {
		return "", errors.New("invalid verify token")
	}

	return challenge, nil
}

// HandleWebhook processes inbound webhook payloads. Every message is handled
// even when an earlier one fails; the first failure is returned.
func (s *MetaWhatsAppService) HandleWebhook(ctx context.Context, payload models.WebhookPayload) error {
	var firstErr error

	for _, msg := range payload.Messages() {
		if err := s.handleInboundMessage(ctx, msg); err != nil {
			s.logger.Error("failed to handle inbound message", zap.Error(err), zap.String("message_id", msg.ID))
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	return firstErr
}

func (s *MetaWhatsAppService) handleInboundMessage(ctx context.Context, msg models.InboundMessage) error {
	text := extractMessageText(msg)
	if text == "" {
		s.logger.Debug("ignoring non-text message", zap.String("type", msg.Type), zap.String("message_id", msg.ID))
		return nil
	}

	cmd := s.toCommand(ctx, text)
	s.logger.Info("parsed inbound command",
		zap.String("from", msg.From),
		zap.String("command", string(cmd.Type)),
		zap.Any("args", cmd.Args))

	reply, err := s.dispatcher.HandleCommand(ctx, cmd, msg.From)
	var handlerErr error
	if err != nil {
		reply, handlerErr = replyForError(err)
	}

	if sendErr := s.send(ctx, msg.From, reply); sendErr != nil {
		return sendErr
	}
	return handlerErr
}

// toCommand parses explicit commands directly and asks the AI translator for
// anything else.
func (s *MetaWhatsAppService) toCommand(ctx context.Context, text string) models.Command {
	cmd := models.ParseCommand(text)
	if cmd.Type != models.CommandUnknown || models.IsSlashCommand(text) || s.ai == nil {
		return cmd
	}

	translated, err := s.ai.TranslateToCommand(ctx, text)
	if err != nil {
		if !errors.Is(err, anthropic.ErrNoCommand) {
			s.logger.Warn("ai translation failed", zap.Error(err))
		}
		return cmd
	}

	s.logger.Debug("ai translated message", zap.String("command", translated))
	return models.ParseCommand(translated)
}

// replyForError maps known failures to a user reply. Unknown failures get a
// generic reply and are returned for logging.
func replyForError(err error) (string, error) {
	for _, known := range errorReplies {
		if errors.Is(err, known.target) {
			return fmt.Sprintf("%s\n%s", known.reply.Title, known.reply.Message), nil
		}
	}
	return "Something went wrong, please try again later.", err
}

// SendOutbound lets the scheduler and operators push notifications.
func (s *MetaWhatsAppService) SendOutbound(ctx context.Context, req models.OutboundMessageRequest) error {
	return s.send(ctx, req.To, req.Message)
}

func (s *MetaWhatsAppService) send(ctx context.Context, to, body string) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	id, err := s.client.SendText(ctxWithTimeout, to, body)
	if err != nil {
		return fmt.Errorf("send reply to %s: %w", to, err)
	}
	s.logger.Debug("message sent", zap.String("to", to), zap.String("message_id", id))
	return nil
}

func extractMessageText(msg models.InboundMessage) string {
	if msg.Text != nil {
		return strings.TrimSpace(msg.Text.Body)
	}

	if msg.Interactive != nil {
		if msg.Interactive.ButtonReply != nil {
			return msg.Interactive.ButtonReply.ID
		}
		if msg.Interactive.ListReply != nil {
			return msg.Interactive.ListReply.ID
		}
	}

	return ""
}
