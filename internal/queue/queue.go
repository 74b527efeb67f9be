package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"

	"github.com/meridianfi/treasury-sweeper/internal/config"
	"github.com/meridianfi/treasury-sweeper/internal/types"
)

const publishTimeout = 5 * time.Second

// SweepEventMessage is the downstream notification emitted after each
// account's sweep evaluation reaches a terminal state.
type SweepEventMessage struct {
	CycleID     string    `json:"cycleId"`
	AccountID   string    `json:"accountId"`
	State       string    `json:"state"`
	SweptAmount string    `json:"sweptAmount"`
	TxHash      string    `json:"txHash,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

type QueueManager struct {
	conn      *amqp.Connection
	channel   *amqp.Channel
	queueName string
}

func NewQueueManager(cfg *config.QueueConfig) (*QueueManager, error) {
	amqpURI := fmt.Sprintf("amqp://%s:%s@%s", cfg.User, cfg.Password, cfg.URL)

	conn, err := amqp.Dial(amqpURI)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to queue: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	_, err = channel.QueueDeclare(
		cfg.QueueName,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue %s: %w", cfg.QueueName, err)
	}

	return &QueueManager{
		conn:      conn,
		channel:   channel,
		queueName: cfg.QueueName,
	}, nil
}

// PublishSweepResult sends one terminal sweep outcome downstream. Publishing
// is best effort from the worker's point of view, callers log and count
// failures but never roll back the sweep.
func (qm *QueueManager) PublishSweepResult(ctx context.Context, cycleID string, result *types.SweepResult) error {
	amount := "0"
	if !result.SweptAmount.IsNil() {
		amount = result.SweptAmount.String()
	}

	msg := SweepEventMessage{
		CycleID:     cycleID,
		AccountID:   result.AccountID,
		State:       result.State.String(),
		SweptAmount: amount,
		TxHash:      result.TxHash,
		Timestamp:   time.Now(),
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode sweep event: %w", err)
	}

	publishCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = qm.channel.PublishWithContext(publishCtx,
		"",           // default exchange
		qm.queueName, // routing key
		false,        // mandatory
		false,        // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		})
	if err != nil {
		return fmt.Errorf("failed to publish sweep event: %w", err)
	}

	return nil
}

// Shutdown gracefully stops the interaction with the queue, ensuring all resources are properly released.
func (qm *QueueManager) Shutdown() {
	log.Info().Msg("Shutting down queue manager")

	if err := qm.channel.Close(); err != nil {
		log.Error().Err(err).Msg("Error closing queue channel")
	}
	if err := qm.conn.Close(); err != nil {
		log.Error().Err(err).Msg("Error closing queue connection")
	}
}
