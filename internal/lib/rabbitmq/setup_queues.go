package rabbitmq

import "github.com/magabrotheeeer/incubator-portal/internal/models"

// Очереди notifier.
const (
	ObservationQueue  = "notification.observation"
	RegistrationQueue = "notification.registration"
)

// QueueConfig очередь и ключ маршрутизации, которым она привязана к exchange.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// GetNotificationQueues возвращает очереди, которые обслуживает notifier.
func GetNotificationQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: ObservationQueue, RoutingKey: models.EventObservationCreated},
		{QueueName: RegistrationQueue, RoutingKey: models.EventRegistrationReviewed},
	}
}
