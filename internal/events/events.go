// Package events publishes domain events to Kafka.
//
// Publishing is best-effort: callers log a failed Publish and carry on, so a
// broker outage never fails an API request.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/xid"
	"github.com/segmentio/kafka-go"
)

// Topic suffixes; the full topic is "<prefix>.<suffix>".
const (
	TopicUsers      = "usuarios"
	TopicActivities = "atividades"
)

// Event types.
const (
	TypeUserCreated      = "usuario.criado"
	TypeActivityRecorded = "atividade.registrada"
)

// Event is the envelope written to Kafka. Topic and Key route the message and
// are not part of the body.
type Event struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload"`

	Topic string `json:"-"`
	Key   string `json:"-"`
}

// Publisher delivers events.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// UserCreated is the payload of usuario.criado.
type UserCreated struct {
	UserID int64  `json:"usuario_id"`
	Name   string `json:"nome"`
	Email  string `json:"email"`
}

// ActivityRecorded is the payload of atividade.registrada.
type ActivityRecorded struct {
	ActivityID int64     `json:"atividade_id"`
	UserID     int64     `json:"usuario_id"`
	ActionID   int64     `json:"acao_id"`
	Points     int       `json:"pontos"`
	OccurredAt time.Time `json:"data_hora"`
}

// NewUserCreated builds the event keyed by the user id.
func NewUserCreated(p UserCreated) Event {
	return newEvent(TopicUsers, TypeUserCreated, strconv.FormatInt(p.UserID, 10), p)
}

// NewActivityRecorded builds the event keyed by the user id, so one user's
// activity stays ordered within a partition.
func NewActivityRecorded(p ActivityRecorded) Event {
	return newEvent(TopicActivities, TypeActivityRecorded, strconv.FormatInt(p.UserID, 10), p)
}

func newEvent(topic, eventType, key string, payload any) Event {
	return Event{
		ID:         xid.New().String(),
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
		Topic:      topic,
		Key:        key,
	}
}

// messageWriter is satisfied by KafkaProducer.
type messageWriter interface {
	WriteMessages(ctx context.Context, topic string, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher encodes events as JSON and writes them to "<prefix>.<topic>".
type KafkaPublisher struct {
	prefix string
	writer messageWriter
}

// NewKafkaPublisher builds a publisher on a lazily connected producer.
func NewKafkaPublisher(brokers []string, prefix string) *KafkaPublisher {
	return newKafkaPublisher(NewKafkaProducer(brokers), prefix)
}

func newKafkaPublisher(writer messageWriter, prefix string) *KafkaPublisher {
	return &KafkaPublisher{prefix: prefix, writer: writer}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("events: encoding %s: %w", event.Type, err)
	}
	msg := kafka.Message{
		Key:   []byte(event.Key),
		Value: body,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(event.Type)},
			{Key: "event-id", Value: []byte(event.ID)},
		},
		Time: event.OccurredAt,
	}
	topic := p.topic(event.Topic)
	if err := p.writer.WriteMessages(ctx, topic, msg); err != nil {
		return fmt.Errorf("events: writing %s to %s: %w", event.Type, topic, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

func (p *KafkaPublisher) topic(suffix string) string {
	if p.prefix == "" {
		return suffix
	}
	return p.prefix + "." + suffix
}

// Nop discards every event. It is used when no brokers are configured.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }
