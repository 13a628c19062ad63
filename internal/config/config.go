package config

import "time"

// MonitorConfig is the root configuration for a monitor instance.
type MonitorConfig struct {
	Instance   InstanceConfig   `yaml:"instance"`
	API        APIConfig        `yaml:"api"`
	Database   DatabaseConfig   `yaml:"database"`
	Filter     FilterConfig     `yaml:"filter"`
	Selector   SelectorConfig   `yaml:"selector"`
	Pool       PoolConfig       `yaml:"pool"`
	Connection ConnectionConfig `yaml:"connection"`
	Refresh    RefreshConfig    `yaml:"refresh"`
	Health     HealthConfig     `yaml:"health"`
}

// InstanceConfig identifies this monitor.
type InstanceConfig struct {
	ID string `yaml:"id"`
}

// APIConfig holds Hyperliquid API settings.
type APIConfig struct {
	InfoURL    string        `yaml:"info_url"`
	WSURL      string        `yaml:"ws_url"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"`
}

// DatabaseConfig holds the Postgres connection for position data.
type DatabaseConfig struct {
	Postgres DBConfig `yaml:"postgres"`
}

// DBConfig holds a single database connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// FilterConfig holds the position-inference thresholds.
type FilterConfig struct {
	Disabled           bool    `yaml:"disabled"`
	DayROIThreshold    float64 `yaml:"day_roi_threshold"`
	PnLRatioThreshold  float64 `yaml:"pnl_ratio_threshold"`
	DayVolumeThreshold float64 `yaml:"day_volume_threshold"`
}

// SelectorConfig holds trader selection settings.
type SelectorConfig struct {
	TargetCount int `yaml:"target_count"`
}

// PoolConfig holds connection pool and flush settings.
type PoolConfig struct {
	Size                int           `yaml:"size"`
	BatchSize           int           `yaml:"batch_size"`
	InboundBufferSize   int           `yaml:"inbound_buffer_size"`
	BufferSizeThreshold int           `yaml:"buffer_size_threshold"`
	FlushInterval       time.Duration `yaml:"flush_interval"`
	HealthInterval      time.Duration `yaml:"health_interval"`
	WriteTimeout        time.Duration `yaml:"write_timeout"`
}

// ConnectionConfig holds per-client WebSocket settings.
type ConnectionConfig struct {
	HeartbeatInterval    time.Duration `yaml:"heartbeat_interval"`
	PingTimeout          time.Duration `yaml:"ping_timeout"`
	WriteTimeout         time.Duration `yaml:"write_timeout"`
	SubscribeDelay       time.Duration `yaml:"subscribe_delay"`
	ReconnectBaseDelay   time.Duration `yaml:"reconnect_base_delay"`
	ReconnectMaxDelay    time.Duration `yaml:"reconnect_max_delay"`
	MaxReconnectAttempts int           `yaml:"max_reconnect_attempts"`
}

// RefreshConfig holds target refresh (selection cycle) settings.
type RefreshConfig struct {
	Interval time.Duration `yaml:"interval"`
}

// HealthConfig holds the health/stats HTTP endpoint settings.
type HealthConfig struct {
	Port int `yaml:"port"`
}
