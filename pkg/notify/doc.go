// Package notify publishes identity lifecycle events to RabbitMQ so
// downstream systems can react to first logins. The publisher is
// optional and enabled by setting AMQP_URL.
package notify
