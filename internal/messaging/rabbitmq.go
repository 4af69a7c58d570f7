// Package messaging publishes booking events to RabbitMQ.
package messaging

import (
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/streadway/amqp"

	"toolrent-backend/internal/config"
	"toolrent-backend/internal/logger"
)

// ConnectionURL builds the AMQP URL for cfg.
func ConnectionURL(cfg config.RabbitMQConfig) string {
	u := url.URL{
		Scheme: "amqp",
		User:   url.UserPassword(cfg.Username, cfg.Password),
		Host:   fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Path:   "/" + url.PathEscape(cfg.VHost),
	}
	if cfg.VHost == "/" {
		u.Path = "/"
	}
	return u.String()
}

type Client struct {
	cfg        config.RabbitMQConfig
	connection *amqp.Connection
	channel    *amqp.Channel
	mu         sync.RWMutex
	closing    bool
}

func NewClient(cfg config.RabbitMQConfig) *Client {
	return &Client{cfg: cfg}
}

// Connect dials the broker with retries and declares the durable topic exchange.
func (c *Client) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var err error
	for i := 0; i < c.cfg.RetryCount; i++ {
		c.connection, err = amqp.Dial(ConnectionURL(c.cfg))
		if err != nil {
			logger.Warn("RabbitMQ connection failed", "attempt", i+1, "of", c.cfg.RetryCount, "error", err)
			if i < c.cfg.RetryCount-1 {
				time.Sleep(c.cfg.RetryDelay)
			}
			continue
		}

		c.channel, err = c.connection.Channel()
		if err != nil {
			c.connection.Close()
			return fmt.Errorf("failed to open channel: %w", err)
		}

		err = c.channel.ExchangeDeclare(c.cfg.Exchange, "topic", true, false, false, false, nil)
		if err != nil {
			c.channel.Close()
			c.connection.Close()
			return fmt.Errorf("failed to declare exchange: %w", err)
		}

		logger.Info("Connected to RabbitMQ", "host", c.cfg.Host, "exchange", c.cfg.Exchange)
		go c.watch(c.connection)
		return nil
	}
	return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
}

func (c *Client) watch(conn *amqp.Connection) {
	closed := conn.NotifyClose(make(chan *amqp.Error, 1))
	amqpErr, ok := <-closed
	if !ok {
		return
	}

	c.mu.RLock()
	closing := c.closing
	c.mu.RUnlock()
	if closing {
		return
	}

	logger.Warn("RabbitMQ connection lost, reconnecting", "error", amqpErr)
	time.Sleep(2 * time.Second)
	if err := c.Connect(); err != nil {
		logger.Error("RabbitMQ reconnect failed", "error", err)
	}
}

func (c *Client) Publish(exchange, key string, msg amqp.Publishing) error {
	c.mu.RLock()
	ch := c.channel
	c.mu.RUnlock()
	if ch == nil {
		return errors.New("no channel to RabbitMQ")
	}
	return ch.Publish(exchange, key, false, false, msg)
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closing {
		return nil
	}
	c.closing = true

	var errs []error
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			errs = append(errs, fmt.Errorf("channel close: %w", err))
		}
	}
	if c.connection != nil {
		if err := c.connection.Close(); err != nil {
			errs = append(errs, fmt.Errorf("connection close: %w", err))
		}
	}
	return errors.Join(errs...)
}
