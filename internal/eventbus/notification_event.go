package eventbus

import "time"

type NotificationLevel string

const (
	NotificationError   NotificationLevel = "error"
	NotificationWarning NotificationLevel = "warning"
)

// Notification 面向用户的全局提示（如 API Key 无效、快照写入失败）
type Notification struct {
	Level       NotificationLevel `json:"level"`
	OwnerID     string            `json:"owner_id"`
	DatasetName string            `json:"dataset_name"`
	Message     string            `json:"message"`
	At          time.Time         `json:"at"`
}

func (n Notification) EventType() NotificationLevel {
	return n.Level
}

type NotificationHandler = Handler[Notification]
type NotificationBus = Bus[NotificationLevel, Notification]

func NewNotificationBus() *NotificationBus {
	return NewBus[NotificationLevel, Notification]()
}
