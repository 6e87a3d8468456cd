package rmq

import (
	"fmt"

	"text2phenotype.com/hmmpos/logger"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
	"github.com/streadway/amqp"
)

type Config struct {
	Host                    string `envconfig:"HMMPOS_RMQ_HOST" required:"true"`
	Port                    string `envconfig:"HMMPOS_RMQ_PORT" default:"5672"`
	Username                string `envconfig:"HMMPOS_RMQ_USERNAME" required:"true"`
	Password                string `envconfig:"HMMPOS_RMQ_PASSWORD" required:"true"`
	Exchange                string `envconfig:"HMMPOS_RMQ_EXCHANGE" default:"hmmpos-default-exchange"`
	MaxParallelRequestCount int    `envconfig:"HMMPOS_MQ_MAX_PARALLEL_REQUESTS" default:"5"`
	TaskQueue               string `envconfig:"HMMPOS_TAG_TASK_QUEUE" required:"true"`
	ReplyQueue              string `envconfig:"HMMPOS_REPLY_QUEUE" required:"true"`
}

func (config Config) URL() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%s", config.Username, config.Password, config.Host, config.Port)
}

// Client consumes tagging tasks on one connection and publishes replies on
// another, so a blocked publisher never stalls deliveries.
type Client struct {
	Deliveries       <-chan amqp.Delivery
	ConsumerErrors   <-chan *amqp.Error
	PublisherErrors  <-chan *amqp.Error
	config           Config
	consumerConn     *amqp.Connection
	publisherConn    *amqp.Connection
	publisherChannel *amqp.Channel
	log              zerolog.Logger
}

func NewClient() (*Client, error) {
	log := logger.NewLogger("RMQ client")
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		log.Error().Err(err).Msg("Could not read env config")
		return nil, err
	}

	publisherConn, publisherChannel, err := dial(config.URL())
	if err != nil {
		return nil, fmt.Errorf("failed connection: %w", err)
	}
	consumerConn, consumerChannel, err := dial(config.URL())
	if err != nil {
		_ = publisherConn.Close()
		return nil, fmt.Errorf("failed connection: %w", err)
	}

	client := Client{
		config:           config,
		consumerConn:     consumerConn,
		publisherConn:    publisherConn,
		publisherChannel: publisherChannel,
		log:              log,
	}
	if err := client.consume(consumerChannel); err != nil {
		client.Close()
		return nil, err
	}
	client.PublisherErrors = publisherChannel.NotifyClose(make(chan *amqp.Error, 1))
	client.ConsumerErrors = consumerChannel.NotifyClose(make(chan *amqp.Error, 1))
	log.Info().
		Str("queue", config.TaskQueue).
		Int("prefetch", config.MaxParallelRequestCount).
		Msg("Consuming tagging tasks")
	return &client, nil
}

func (c *Client) consume(ch *amqp.Channel) error {
	q, err := ch.QueueDeclarePassive(
		c.config.TaskQueue, // name
		true,               // durable
		false,              // delete when unused
		false,              // exclusive
		false,              // no-wait
		nil,                // arguments
	)
	if err != nil {
		return fmt.Errorf("declare %s: %w", c.config.TaskQueue, err)
	}
	if err := ch.QueueBind(q.Name, q.Name, c.config.Exchange, false, nil); err != nil {
		return fmt.Errorf("bind %s: %w", q.Name, err)
	}
	if err := ch.Qos(c.config.MaxParallelRequestCount, 0, false); err != nil {
		return fmt.Errorf("qos: %w", err)
	}
	deliveries, err := ch.Consume(
		q.Name,
		"",    // consumer
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("consume deliveries: %w", err)
	}
	c.Deliveries = deliveries
	return nil
}

// SendReply publishes msg to the reply queue through the configured exchange.
func (c *Client) SendReply(msg amqp.Publishing) error {
	return c.publisherChannel.Publish(
		c.config.Exchange,
		c.config.ReplyQueue,
		false,
		false,
		msg)
}

func (c *Client) Close() {
	_ = c.consumerConn.Close()
	_ = c.publisherConn.Close()
}

func dial(url string) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, err
	}
	return conn, ch, nil
}
