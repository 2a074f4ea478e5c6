package session

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog/log"

	"github.com/obsidianwallet/obsidian-wallet-client/common"
	"github.com/obsidianwallet/obsidian-wallet-client/database"
)

const dbNotificationPrefix = "notification-"

const defaultNotificationLimit = 50

// notify records a user-facing notification and hands it to subscribers.
// Journal failures are logged; the notification is still delivered.
func (o *Orchestrator) notify(variant common.NotificationVariant, message string) common.Notification {
	n := common.Notification{
		Variant:   variant,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	}
	if err := o.saveNotification(&n); err != nil {
		log.Error().Err(err).Str("message", message).Msg("failed to journal notification")
	}
	for _, sub := range o.subscriberList() {
		sub.Notified(n)
	}
	return n
}

func (o *Orchestrator) saveNotification(n *common.Notification) error {
	if o.db == nil {
		return nil
	}
	key, err := o.db.CreateULID(n.CreatedAt)
	if err != nil {
		return err
	}
	var id ulid.ULID
	if err := id.UnmarshalBinary(key); err != nil {
		return err
	}
	n.ID = id.String()

	value, err := json.Marshal(n)
	if err != nil {
		return err
	}
	return o.db.Set([]byte(dbNotificationPrefix), []database.Object{{Key: key, Value: value}})
}

// Notifications lists journaled notifications, newest first.
func (o *Orchestrator) Notifications(limit int) ([]common.Notification, error) {
	if o.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = defaultNotificationLimit
	}
	var result []common.Notification
	err := o.db.ReadIteratorCopy([]byte(dbNotificationPrefix), true, func(k []byte, v []byte) (bool, error) {
		var n common.Notification
		if err := json.Unmarshal(v, &n); err != nil {
			return true, fmt.Errorf("decode notification: %w", err)
		}
		result = append(result, n)
		return len(result) >= limit, nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ClearNotifications empties the journal.
func (o *Orchestrator) ClearNotifications() error {
	if o.db == nil {
		return nil
	}
	return o.db.DeleteNamespace([]byte(dbNotificationPrefix))
}
