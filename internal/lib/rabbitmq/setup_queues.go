package rabbitmq

// Ключи маршрутизации событий учётных записей.
const (
	RoutingAccountCreated = "account.created"
	RoutingProfileUpdated = "profile.updated"
)

// QueueConfig описывает очередь и ключ её привязки.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// IdentityQueues возвращает очереди, в которые попадают события учётных записей.
// Очереди читает рассыльщик писем.
func IdentityQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: "identity.mailer.account_created", RoutingKey: RoutingAccountCreated},
		{QueueName: "identity.mailer.profile_updated", RoutingKey: RoutingProfileUpdated},
	}
}
