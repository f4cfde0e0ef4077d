package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"claims-service/internal/models"
)

// ClaimDecisionQueue receives one event per adjudicated claim. The
// notification service consumes it to inform the employee of the outcome.
const ClaimDecisionQueue = "claim_decision_events"

// ClaimDecisionEvent is the wire payload published after adjudication.
type ClaimDecisionEvent struct {
	ClaimID         string    `json:"claim_id"`
	EmployeeID      string    `json:"employee_id"`
	PatientName     string    `json:"patient_name"`
	Status          string    `json:"status"`
	ApprovedAmount  string    `json:"approved_amount"`
	ConfidenceScore float64   `json:"confidence_score"`
	Reasons         []string  `json:"reasons"`
	NextSteps       string    `json:"next_steps"`
	DecidedAt       time.Time `json:"decided_at"`
}

// DecisionPublisher publishes claim decision events to RabbitMQ. A nil
// publisher is valid and drops events, so the pipeline runs without a broker.
// Counters are atomic because claims are processed concurrently.
type DecisionPublisher struct {
	conn              *RabbitMQConnection
	messagesPublished atomic.Int64
	messagesFailed    atomic.Int64
	lastPublishUnix   atomic.Int64
}

func NewDecisionPublisher(conn *RabbitMQConnection) *DecisionPublisher {
	p := &DecisionPublisher{conn: conn}
	p.lastPublishUnix.Store(time.Now().UnixNano())
	return p
}

// PublishDecision publishes the outcome of one adjudicated claim.
func (p *DecisionPublisher) PublishDecision(ctx context.Context, claim *models.Claim, decision *models.Decision) error {
	if p == nil || p.conn == nil {
		return nil
	}

	_, err := p.conn.Channel.QueueDeclare(
		ClaimDecisionQueue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		p.messagesFailed.Add(1)
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	event := ClaimDecisionEvent{
		ClaimID:         decision.ClaimID,
		EmployeeID:      claim.EmployeeID,
		PatientName:     claim.PatientName,
		Status:          string(decision.Status),
		ApprovedAmount:  decision.ApprovedAmount.StringFixed(2),
		ConfidenceScore: decision.ConfidenceScore,
		Reasons:         decision.ReasonStrings(),
		NextSteps:       decision.NextSteps,
		DecidedAt:       time.Now().UTC(),
	}

	body, err := json.Marshal(event)
	if err != nil {
		p.messagesFailed.Add(1)
		return fmt.Errorf("failed to marshal decision event: %w", err)
	}

	err = p.conn.Channel.PublishWithContext(
		ctx,
		"",                 // exchange
		ClaimDecisionQueue, // routing key (queue name)
		false,              // mandatory
		false,              // immediate
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Body:         body,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		p.messagesFailed.Add(1)
		return fmt.Errorf("failed to publish decision event: %w", err)
	}

	p.messagesPublished.Add(1)
	p.lastPublishUnix.Store(time.Now().UnixNano())

	slog.Info("Claim decision event published",
		"queue", ClaimDecisionQueue,
		"claim_id", decision.ClaimID,
		"status", decision.Status,
	)

	return nil
}

// HealthCheck reports whether the publisher can reach the broker.
func (p *DecisionPublisher) HealthCheck() PublisherHealthStatus {
	isHealthy := p != nil && p.conn != nil && p.conn.Connection != nil && !p.conn.Connection.IsClosed()

	status := PublisherHealthStatus{
		IsHealthy: isHealthy,
		Queue:     ClaimDecisionQueue,
	}
	if p != nil {
		status.MessagesPublished = p.messagesPublished.Load()
		status.MessagesFailed = p.messagesFailed.Load()
		status.LastPublishTime = time.Unix(0, p.lastPublishUnix.Load())
	}
	return status
}

// PublisherHealthStatus represents the health status of the publisher.
type PublisherHealthStatus struct {
	IsHealthy         bool      `json:"is_healthy"`
	MessagesPublished int64     `json:"messages_published"`
	MessagesFailed    int64     `json:"messages_failed"`
	LastPublishTime   time.Time `json:"last_publish_time"`
	Queue             string    `json:"queue"`
}
