package config

import "errors"

// QueueConfig describes the RabbitMQ endpoint sweep outcomes are published
// to for downstream consumers (dashboard feed, reconciliation jobs).
type QueueConfig struct {
	User      string `mapstructure:"user"`
	Password  string `mapstructure:"password"`
	URL       string `mapstructure:"url"`
	QueueName string `mapstructure:"queue-name"`
}

func (cfg *QueueConfig) Validate() error {
	if cfg.User == "" {
		return errors.New("queue user is required")
	}
	if cfg.Password == "" {
		return errors.New("queue password is required")
	}
	if cfg.URL == "" {
		return errors.New("queue url is required")
	}
	if cfg.QueueName == "" {
		return errors.New("queue queue-name is required")
	}

	return nil
}
