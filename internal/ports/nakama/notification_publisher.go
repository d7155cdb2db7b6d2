package nakama

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/heroiclabs/nakama-common/runtime"

	"scorefive/internal/app"
	"scorefive/internal/ports"
)

type notifier interface {
	NotificationSend(ctx context.Context, userID, subject string, content map[string]interface{}, code int, sender string, persistent bool) error
}

var notificationCodes = map[app.EventKind]int{
	app.EventGameCreated:       NotifyGameCreated,
	app.EventRoundAdded:        NotifyRoundAdded,
	app.EventRoundRemoved:      NotifyRoundRemoved,
	app.EventRoundReplaced:     NotifyRoundReplaced,
	app.EventScoreLimitChanged: NotifyScoreLimitChanged,
	app.EventPlayerEliminated:  NotifyPlayerEliminated,
	app.EventPlayerRevived:     NotifyPlayerRevived,
	app.EventGameFinished:      NotifyGameFinished,
	app.EventGameDeleted:       NotifyGameDeleted,
}

// NakamaNotificationPublisher delivers game events to their owner as Nakama notifications.
// Only game_finished is persisted in the player's inbox.
type NakamaNotificationPublisher struct {
	nk     notifier
	logger runtime.Logger
}

func NewNakamaNotificationPublisher(nk notifier, logger runtime.Logger) *NakamaNotificationPublisher {
	return &NakamaNotificationPublisher{nk: nk, logger: logger}
}

var _ ports.EventPublisher = (*NakamaNotificationPublisher)(nil)

func (p *NakamaNotificationPublisher) Publish(ctx context.Context, kind, recipient string, payload any) error {
	code, ok := notificationCodes[app.EventKind(kind)]
	if !ok {
		return fmt.Errorf("no notification code for event %q", kind)
	}
	content, err := toContent(payload)
	if err != nil {
		return err
	}
	persistent := app.EventKind(kind) == app.EventGameFinished
	if err := p.nk.NotificationSend(ctx, recipient, kind, content, code, "", persistent); err != nil {
		p.logger.Warn("NotificationSend %s to %s failed: %v", kind, recipient, err)
		return err
	}
	return nil
}

// toContent turns a payload struct into the map Nakama notifications carry.
func toContent(payload any) (map[string]interface{}, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	content := map[string]interface{}{}
	if err := json.Unmarshal(data, &content); err != nil {
		return nil, fmt.Errorf("payload %T is not a JSON object: %w", payload, err)
	}
	return content, nil
}
