package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultInfoURL             = "https://api.hyperliquid.xyz/info"
	DefaultWSURL               = "wss://api.hyperliquid.xyz/ws"
	DefaultAPITimeout          = 30 * time.Second
	DefaultMaxRetries          = 3
	DefaultDBPort              = 5432
	DefaultDBSSLMode           = "prefer"
	DefaultMaxConns            = 10
	DefaultMinConns            = 2
	DefaultDayROIThreshold     = 0.001
	DefaultPnLRatioThreshold   = 0.0005
	DefaultDayVolumeThreshold  = 10_000
	DefaultTargetCount         = 500
	DefaultPoolSize            = 5
	DefaultBatchSize           = 100
	DefaultInboundBufferSize   = 1000
	DefaultBufferSizeThreshold = 500
	DefaultFlushInterval       = 10 * time.Second
	DefaultHealthInterval      = 30 * time.Second
	DefaultWriteTimeout        = 30 * time.Second
	DefaultHeartbeatInterval   = 30 * time.Second
	DefaultPingTimeout         = 60 * time.Second
	DefaultWSWriteTimeout      = 5 * time.Second
	DefaultSubscribeDelay      = 100 * time.Millisecond
	DefaultReconnectBaseDelay  = 5 * time.Second
	DefaultReconnectMaxDelay   = 60 * time.Second
	DefaultMaxAttempts         = 10
	DefaultRefreshInterval     = 1 * time.Hour
	DefaultHealthPort          = 8080
)

func (c *MonitorConfig) applyDefaults() {
	// API defaults
	if c.API.InfoURL == "" {
		c.API.InfoURL = DefaultInfoURL
	}
	if c.API.WSURL == "" {
		c.API.WSURL = DefaultWSURL
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = DefaultAPITimeout
	}
	if c.API.MaxRetries == 0 {
		c.API.MaxRetries = DefaultMaxRetries
	}

	// Database defaults
	applyDBDefaults(&c.Database.Postgres)

	// Filter defaults
	if c.Filter.DayROIThreshold == 0 {
		c.Filter.DayROIThreshold = DefaultDayROIThreshold
	}
	if c.Filter.PnLRatioThreshold == 0 {
		c.Filter.PnLRatioThreshold = DefaultPnLRatioThreshold
	}
	if c.Filter.DayVolumeThreshold == 0 {
		c.Filter.DayVolumeThreshold = DefaultDayVolumeThreshold
	}

	// Selector defaults
	if c.Selector.TargetCount == 0 {
		c.Selector.TargetCount = DefaultTargetCount
	}

	// Pool defaults
	if c.Pool.Size == 0 {
		c.Pool.Size = DefaultPoolSize
	}
	if c.Pool.BatchSize == 0 {
		c.Pool.BatchSize = DefaultBatchSize
	}
	if c.Pool.InboundBufferSize == 0 {
		c.Pool.InboundBufferSize = DefaultInboundBufferSize
	}
	if c.Pool.BufferSizeThreshold == 0 {
		c.Pool.BufferSizeThreshold = DefaultBufferSizeThreshold
	}
	if c.Pool.FlushInterval == 0 {
		c.Pool.FlushInterval = DefaultFlushInterval
	}
	if c.Pool.HealthInterval == 0 {
		c.Pool.HealthInterval = DefaultHealthInterval
	}
	if c.Pool.WriteTimeout == 0 {
		c.Pool.WriteTimeout = DefaultWriteTimeout
	}

	// Connection defaults
	if c.Connection.HeartbeatInterval == 0 {
		c.Connection.HeartbeatInterval = DefaultHeartbeatInterval
	}
	if c.Connection.PingTimeout == 0 {
		c.Connection.PingTimeout = DefaultPingTimeout
	}
	if c.Connection.WriteTimeout == 0 {
		c.Connection.WriteTimeout = DefaultWSWriteTimeout
	}
	if c.Connection.SubscribeDelay == 0 {
		c.Connection.SubscribeDelay = DefaultSubscribeDelay
	}
	if c.Connection.ReconnectBaseDelay == 0 {
		c.Connection.ReconnectBaseDelay = DefaultReconnectBaseDelay
	}
	if c.Connection.ReconnectMaxDelay == 0 {
		c.Connection.ReconnectMaxDelay = DefaultReconnectMaxDelay
	}
	if c.Connection.MaxReconnectAttempts == 0 {
		c.Connection.MaxReconnectAttempts = DefaultMaxAttempts
	}

	// Refresh defaults
	if c.Refresh.Interval == 0 {
		c.Refresh.Interval = DefaultRefreshInterval
	}

	// Health defaults
	if c.Health.Port == 0 {
		c.Health.Port = DefaultHealthPort
	}
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
	if db.MinConns == 0 {
		db.MinConns = DefaultMinConns
	}
}
