package notify

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// DefaultQueueName receives provisioning events
const DefaultQueueName = "identity.provisioned"

// ProvisionedMessage is the JSON body published on a first login
type ProvisionedMessage struct {
	UserID    string    `json:"user_id"`
	ProjectID string    `json:"project_id"`
	RoleID    string    `json:"role_id"`
	Timestamp time.Time `json:"timestamp"`
}

// Publisher publishes identity events to a message queue
type Publisher interface {
	Provisioned(ctx context.Context, userID, projectID, roleID string)
	Close() error
}

type rabbitPublisher struct {
	conn *amqp.Connection
	q    amqp.Queue
}

// NewFromEnv connects to the broker named by AMQP_URL and declares the
// provisioning queue. Returns nil when AMQP_URL is unset; callers treat
// a nil publisher as notifications disabled.
func NewFromEnv() (Publisher, error) {
	url := os.Getenv("AMQP_URL")
	if url == "" {
		return nil, nil
	}
	return NewRabbitPublisher(url, DefaultQueueName)
}

// NewRabbitPublisher connects to RabbitMQ and declares a durable queue
// with the given name.
func NewRabbitPublisher(url, queueName string) (Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	q, err := ch.QueueDeclare(
		queueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}
	// close channel; publishes open their own
	ch.Close()
	return &rabbitPublisher{conn: conn, q: q}, nil
}

// Provisioned publishes a first-login provisioning event. Publish
// failures are logged and swallowed; the queue is advisory and must
// never affect a login.
func (r *rabbitPublisher) Provisioned(ctx context.Context, userID, projectID, roleID string) {
	body, err := json.Marshal(ProvisionedMessage{
		UserID:    userID,
		ProjectID: projectID,
		RoleID:    roleID,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		log.Printf("failed to encode provisioning event for %s: %v", userID, err)
		return
	}

	ch, err := r.conn.Channel()
	if err != nil {
		log.Printf("failed to open channel for provisioning event: %v", err)
		return
	}
	defer ch.Close()

	err = ch.PublishWithContext(ctx,
		"", r.q.Name, false, false,
		amqp.Publishing{ContentType: "application/json", Body: body},
	)
	if err != nil {
		log.Printf("failed to publish provisioning event for %s: %v", userID, err)
	}
}

func (r *rabbitPublisher) Close() error {
	if r.conn == nil {
		return nil
	}
	return r.conn.Close()
}
