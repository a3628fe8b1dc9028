package store

import "time"

// Config aggregates store configuration
type Config struct {
	AppName string

	Mongo MongoConfig `validate:"required"`
}

// MongoConfig configures mongo connectivity
// ConnectTimeout and PingTimeout of zero fall back to driver-side defaults
type MongoConfig struct {
	URL            string `validate:"required,url"`
	Database       string `validate:"required"`
	ConnectTimeout time.Duration
	PingTimeout    time.Duration
}
