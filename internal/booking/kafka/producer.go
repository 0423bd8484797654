package kafka

import (
	"encoding/json"

	"ms-gymbooking/internal/kafka"
	"ms-gymbooking/internal/models"
)

// Publisher streams booking lifecycle events to the booking events topic,
// keyed by session id so events for one session stay ordered.
type Publisher struct {
	Producer *kafka.Producer
	Topic    string
}

func NewPublisher(producer *kafka.Producer, topic string) *Publisher {
	return &Publisher{Producer: producer, Topic: topic}
}

func (p *Publisher) publish(event models.BookingEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.Producer.Publish(p.Topic, event.SessionID, value)
}

func (p *Publisher) PublishBookingCreated(event models.BookingEvent) error {
	return p.publish(event)
}

func (p *Publisher) PublishBookingConfirmed(event models.BookingEvent) error {
	return p.publish(event)
}

func (p *Publisher) PublishBookingPromoted(event models.BookingEvent) error {
	return p.publish(event)
}

func (p *Publisher) PublishBookingCancelled(event models.BookingEvent) error {
	return p.publish(event)
}
