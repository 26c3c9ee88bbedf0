package internal

import "time"

type Config struct {
	BadgerFilepath       string        `env:"BADGER_FILEPATH,required=true"`
	NatsURL              string        `env:"NATS_URL,default=nats://localhost:4222"`
	LogLevel             string        `env:"LOG_LEVEL,default=info"`
	Host                 string        `env:"HOST,default=localhost"`
	Port                 int           `env:"PORT,default=8080"`
	HistoryCapacity      int           `env:"HISTORY_CAPACITY,default=50"`
	PresenceTTL          time.Duration `env:"PRESENCE_TTL,default=15m"`
	ConnectionBufferSize int           `env:"CONNECTION_BUFFER_SIZE,default=256"`
	DeliveryBufferSize   int           `env:"DELIVERY_BUFFER_SIZE,default=1024"`
	ReportInterval       time.Duration `env:"REPORT_INTERVAL,default=30s"`
	ShutdownTimeout      time.Duration `env:"SHUTDOWN_TIMEOUT,default=10s"`
}
