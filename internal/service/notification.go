package service

import (
	"context"
	"sync"

	"github.com/ppsgen/backend/internal/eventbus"
)

const notificationLimit = 50

// notificationLog 每个数据集保留最近的提示
type notificationLog struct {
	mu    sync.Mutex
	items map[sessionKey][]eventbus.Notification
}

func newNotificationLog() *notificationLog {
	return &notificationLog{items: map[sessionKey][]eventbus.Notification{}}
}

func (l *notificationLog) record(ctx context.Context, n eventbus.Notification) error {
	key := sessionKey{owner: n.OwnerID, dataset: n.DatasetName}
	l.mu.Lock()
	defer l.mu.Unlock()
	list := append(l.items[key], n)
	if len(list) > notificationLimit {
		list = append([]eventbus.Notification(nil), list[len(list)-notificationLimit:]...)
	}
	l.items[key] = list
	return nil
}

func (l *notificationLog) list(key sessionKey) []eventbus.Notification {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]eventbus.Notification(nil), l.items[key]...)
}

func (l *notificationLog) clear(key sessionKey) {
	l.mu.Lock()
	delete(l.items, key)
	l.mu.Unlock()
}
