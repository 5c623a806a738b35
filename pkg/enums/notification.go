package enums

import "fmt"

// NotificationType classifies staff alerts raised from domain events.
type NotificationType string

const (
	NotificationTypeLowStock        NotificationType = "low_stock"
	NotificationTypeRegisterOverdue NotificationType = "register_overdue"
	NotificationTypeRegisterClosed  NotificationType = "register_closed"
)

var validNotificationTypes = []NotificationType{
	NotificationTypeLowStock,
	NotificationTypeRegisterOverdue,
	NotificationTypeRegisterClosed,
}

// IsValid checks whether the given type matches the canonical enum.
func (n NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationType converts raw strings into NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	for _, candidate := range validNotificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification type %q", value)
}
