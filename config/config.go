package config

import "time"

// Config is the full server configuration, loaded from the environment.
type Config struct {
	Host         string        `env:"HOST,default=localhost"`
	Port         int           `env:"PORT,default=8080"`
	LogLevel     string        `env:"LOG_LEVEL,default=info"`
	BadgerPath   string        `env:"BADGER_FILEPATH,required=true"`
	JWTSecret    string        `env:"JWT_SECRET,required=true"`
	SessionTTL   time.Duration `env:"SESSION_TTL,default=24h"`
	RedisAddr    string        `env:"REDIS_ADDR"`
	CachePrefix  string        `env:"CACHE_PREFIX,default=parley:"`
	CacheTTL     time.Duration `env:"CACHE_TTL,default=5m"`
	BindSocketID bool          `env:"BIND_SOCKET_IDENTITY,default=true"`
}
