package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/mealscan/entitled/internal/model"
)

// LoggingNotifier records subscription prompts in the log. It stands in for
// the push-notification collaborator, which is outside this service.
type LoggingNotifier struct {
	log *zap.Logger
}

// NewLoggingNotifier constructs a log-only notifier.
func NewLoggingNotifier(log *zap.Logger) *LoggingNotifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &LoggingNotifier{log: log}
}

func (n *LoggingNotifier) PromptSubscription(_ context.Context, userID string, f model.Feature) {
	n.log.Info("subscription prompt",
		zap.String("user_id", userID),
		zap.String("feature", string(f)),
	)
}

var _ Notifier = (*LoggingNotifier)(nil)
