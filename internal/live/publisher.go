package live

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"

	"github.com/nurpe/negotiations-service/internal/model"
)

// Publisher pushes notification events over redis pub/sub. Subscribing
// frontends listen on the channel matching their own scope. Everything here
// is best-effort: a missing or unreachable redis never fails the write path.
type Publisher struct {
	client *redis.Client
	log    zerolog.Logger
}

// New returns a publisher, or nil when no redis address is configured.
func New(addr, password string, log zerolog.Logger) *Publisher {
	if addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password})
	return &Publisher{client: client, log: log}
}

type countPayload struct {
	Channel string `json:"channel"`
	Unread  int64  `json:"unread"`
}

func (p *Publisher) PublishNotification(ctx context.Context, n model.Notification) {
	payload, err := json.Marshal(n)
	if err != nil {
		return
	}
	channel := channelFor(n)
	if err := p.client.Publish(ctx, channel, payload).Err(); err != nil {
		p.log.Debug().Err(err).Str("channel", channel).Msg("notification push failed")
	}
}

func (p *Publisher) PublishUnreadCount(ctx context.Context, n model.Notification, count int64) {
	channel := channelFor(n)
	payload, err := json.Marshal(countPayload{Channel: channel, Unread: count})
	if err != nil {
		return
	}
	if err := p.client.Publish(ctx, channel+":unread", payload).Err(); err != nil {
		p.log.Debug().Err(err).Str("channel", channel).Msg("unread push failed")
	}
}

func channelFor(n model.Notification) string {
	switch {
	case n.RecipientUserID != nil:
		return "notifications:user:" + *n.RecipientUserID
	case n.IsBroadcast():
		return "notifications:feed"
	default:
		channel := "notifications:scope"
		if n.RecipientRole != nil {
			channel += ":role=" + string(*n.RecipientRole)
		}
		if n.RecipientOrganizationID != nil {
			channel += fmt.Sprintf(":org=%d", *n.RecipientOrganizationID)
		}
		if n.RecipientDepartmentID != nil {
			channel += fmt.Sprintf(":dept=%d", *n.RecipientDepartmentID)
		}
		return channel
	}
}
