package outbound

import "github.com/Subrata270/studio-sub001/domain/entity"

// NotificationPublisher pushes stored notifications to connected clients.
// Publishing is best effort and must not block.
type NotificationPublisher interface {
	Publish(notification *entity.Notification)
}
