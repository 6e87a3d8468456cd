package worker

import (
	"encoding/json"

	"text2phenotype.com/hmmpos/rmq"

	"github.com/rs/zerolog"
	"github.com/streadway/amqp"
)

const senderName = "hmmpos"

type rmqTransactions interface {
	sendReply(task *Task, message Message) error
	acknowledgeDelivery(delivery *amqp.Delivery) error
	rejectDelivery(delivery *amqp.Delivery, log *zerolog.Logger)
	getDeliveriesCh() <-chan amqp.Delivery
	getConsumerErrorsCh() <-chan *amqp.Error
	getPublisherErrorsCh() <-chan *amqp.Error
	close()
}

type rmqClientWrapper struct {
	rmqClient *rmq.Client
}

func (wrapper *rmqClientWrapper) close() {
	wrapper.rmqClient.Close()
}

func (wrapper *rmqClientWrapper) getDeliveriesCh() <-chan amqp.Delivery {
	return wrapper.rmqClient.Deliveries
}

func (wrapper *rmqClientWrapper) getConsumerErrorsCh() <-chan *amqp.Error {
	return wrapper.rmqClient.ConsumerErrors
}

func (wrapper *rmqClientWrapper) getPublisherErrorsCh() <-chan *amqp.Error {
	return wrapper.rmqClient.PublisherErrors
}

func (wrapper *rmqClientWrapper) sendReply(task *Task, message Message) error {
	message.Sender = senderName
	b, err := json.Marshal(message)
	if err != nil {
		return err
	}
	return wrapper.rmqClient.SendReply(amqp.Publishing{
		ContentType:   task.delivery.ContentType,
		CorrelationId: task.delivery.CorrelationId,
		Body:          b,
	})
}

func (wrapper *rmqClientWrapper) acknowledgeDelivery(delivery *amqp.Delivery) error {
	return delivery.Ack(false)
}

// rejectDelivery requeues a delivery once and drops it when it comes back.
func (wrapper *rmqClientWrapper) rejectDelivery(delivery *amqp.Delivery, log *zerolog.Logger) {
	requeue := !delivery.Redelivered
	if requeue {
		log.Info().Msg("Requeuing delivery as it has not been redelivered yet")
	} else {
		log.Info().Msg("Rejecting delivery as it already has been redelivered")
	}
	if err := delivery.Reject(requeue); err != nil {
		log.Err(err).Bool("requeue", requeue).Msg("Failed to reject delivery")
	}
}
