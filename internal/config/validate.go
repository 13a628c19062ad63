package config

import (
	"errors"
	"fmt"
)

// Validate checks that all required fields are set and values are valid.
func (c *MonitorConfig) Validate() error {
	if c.Instance.ID == "" {
		return errors.New("instance.id is required")
	}

	if err := c.Database.Postgres.validate("database.postgres"); err != nil {
		return err
	}

	if c.Selector.TargetCount < 1 {
		return errors.New("selector.target_count must be >= 1")
	}

	if c.Pool.Size < 1 {
		return errors.New("pool.size must be >= 1")
	}
	if c.Pool.BatchSize < 1 {
		return errors.New("pool.batch_size must be >= 1")
	}
	if c.Pool.InboundBufferSize < 1 {
		return errors.New("pool.inbound_buffer_size must be >= 1")
	}
	if c.Pool.BufferSizeThreshold < 1 {
		return errors.New("pool.buffer_size_threshold must be >= 1")
	}
	if capacity := c.Pool.Size * c.Pool.BatchSize; c.Selector.TargetCount > capacity {
		return fmt.Errorf("selector.target_count (%d) cannot exceed pool capacity pool.size*pool.batch_size (%d)",
			c.Selector.TargetCount, capacity)
	}

	if c.Connection.MaxReconnectAttempts < 1 {
		return errors.New("connection.max_reconnect_attempts must be >= 1")
	}
	if c.Connection.ReconnectBaseDelay > c.Connection.ReconnectMaxDelay {
		return fmt.Errorf("connection.reconnect_base_delay (%v) cannot exceed reconnect_max_delay (%v)",
			c.Connection.ReconnectBaseDelay, c.Connection.ReconnectMaxDelay)
	}

	if c.Health.Port < 1 || c.Health.Port > 65535 {
		return fmt.Errorf("health.port must be between 1 and 65535, got %d", c.Health.Port)
	}

	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Password == "" {
		return fmt.Errorf("%s.password is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}
