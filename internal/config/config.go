package config

import (
	"fmt"
	"net"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

func LoadConfig(configPath string) (*Config, error) {
	if configPath == "" {
		return nil, fmt.Errorf("config file path is required (use -config or -c)")
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyEnvironmentOverrides(&config)

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

var (
	EnvVaultAddress          = "CRYPTOFORGE_VAULT_ADDRESS"
	EnvVaultToken            = "CRYPTOFORGE_VAULT_TOKEN"
	EnvEnrollmentServer      = "CRYPTOFORGE_ENROLLMENT_SERVER"
	EnvRedisPassword         = "CRYPTOFORGE_REDIS_PASSWORD"
	EnvRedisUsername         = "CRYPTOFORGE_REDIS_USERNAME"
	EnvRedisSentinelUsername = "CRYPTOFORGE_REDIS_SENTINEL_USERNAME"
	EnvRedisSentinelPassword = "CRYPTOFORGE_REDIS_SENTINEL_PASSWORD"
)

func applyEnvironmentOverrides(config *Config) {
	if address := os.Getenv(EnvVaultAddress); address != "" {
		config.Vault.Address = address
	}

	if token := os.Getenv(EnvVaultToken); token != "" {
		config.Vault.Token = token
	}

	if server := os.Getenv(EnvEnrollmentServer); server != "" {
		config.Enrollment.Server = server
	}

	if redisPassword := os.Getenv(EnvRedisPassword); redisPassword != "" {
		if config.Redis == nil {
			config.Redis = &RedisConfig{}
		}
		config.Redis.Password = redisPassword
	}

	if redisUsername := os.Getenv(EnvRedisUsername); redisUsername != "" {
		if config.Redis == nil {
			config.Redis = &RedisConfig{}
		}
		config.Redis.Username = redisUsername
	}

	if sentinelUsername := os.Getenv(EnvRedisSentinelUsername); sentinelUsername != "" {
		if config.Redis == nil {
			config.Redis = &RedisConfig{}
		}
		if config.Redis.Sentinel == nil {
			config.Redis.Sentinel = &RedisSentinelConfig{}
		}
		config.Redis.Sentinel.SentinelUsername = sentinelUsername
	}

	if sentinelPassword := os.Getenv(EnvRedisSentinelPassword); sentinelPassword != "" {
		if config.Redis == nil {
			config.Redis = &RedisConfig{}
		}
		if config.Redis.Sentinel == nil {
			config.Redis.Sentinel = &RedisSentinelConfig{}
		}
		config.Redis.Sentinel.SentinelPassword = sentinelPassword
	}
}

func validateConfig(config *Config) error {
	err := config.validateServerConfig()
	if err != nil {
		return err
	}

	err = config.validateLogConfig()
	if err != nil {
		return err
	}

	err = config.validateCORSConfig()
	if err != nil {
		return err
	}

	err = config.validateVaultConfig()
	if err != nil {
		return err
	}

	err = config.validateEnrollmentConfig()
	if err != nil {
		return err
	}

	err = config.validateRateLimitConfig()
	if err != nil {
		return err
	}

	err = config.validatePendingConfig()
	if err != nil {
		return err
	}

	if config.UsesRedis() {
		err = config.validateRedisConfig()
		if err != nil {
			return err
		}
	}

	err = config.validateDistributedConfig()
	if err != nil {
		return err
	}

	return nil
}

// UsesRedis reports whether any component was configured to keep its state in redis.
func (c *Config) UsesRedis() bool {
	if c.RateLimit.Enabled && c.RateLimit.Store == "redis" {
		return true
	}
	if c.Pending.Store == "redis" {
		return true
	}
	return c.Distributed != nil && c.Distributed.Enabled
}

func (c *Config) validateServerConfig() error {
	if c.Server.Port == 0 {
		c.Server.Port = DefaultServerConfig.Port
	}

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}

	if _, err := c.Server.TrustedProxyPrefixes(); err != nil {
		return fmt.Errorf("server.trusted_proxies: %w", err)
	}

	if c.Server.Debug != nil && c.Server.Debug.Enabled {
		if c.Server.Debug.Host == "" {
			c.Server.Debug.Host = DefaultDebugConfig.Host
		}
		if c.Server.Debug.Port <= 0 || c.Server.Debug.Port >= 65535 {
			c.Server.Debug.Port = DefaultDebugConfig.Port
		}
	}

	return nil
}

func (c *Config) validateLogConfig() error {
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogConfig.Format
	} else {
		switch c.Log.Format {
		case "text", "json":
		default:
			return fmt.Errorf("invalid log format: %s, options are text or json", c.Log.Format)
		}
	}

	if c.Log.Level == "" {
		c.Log.Level = DefaultLogConfig.Level
	} else {
		switch c.Log.Level {
		case "debug", "info", "warn", "error":
		default:
			return fmt.Errorf("invalid log level: %s, options are debug, info, warn, error", c.Log.Level)
		}
	}

	return nil
}

func (c *Config) validateCORSConfig() error {
	if len(c.CORS.AllowedOrigins) == 0 {
		c.CORS.AllowedOrigins = DefaultCORSConfig.AllowedOrigins
	}
	if len(c.CORS.AllowedMethods) == 0 {
		c.CORS.AllowedMethods = DefaultCORSConfig.AllowedMethods
	}
	if len(c.CORS.AllowedHeaders) == 0 {
		c.CORS.AllowedHeaders = DefaultCORSConfig.AllowedHeaders
	}
	if len(c.CORS.ExposedHeaders) == 0 {
		c.CORS.ExposedHeaders = DefaultCORSConfig.ExposedHeaders
	}
	if c.CORS.MaxAgeSeconds == 0 {
		c.CORS.MaxAgeSeconds = DefaultCORSConfig.MaxAgeSeconds
	}

	return nil
}

func (c *Config) validateVaultConfig() error {
	if err := validateURL(c.Vault.Address, "vault.address"); err != nil {
		return err
	}

	if c.Vault.Token == "" {
		return fmt.Errorf("vault.token is required")
	}

	if c.Vault.Timeout <= 0 {
		c.Vault.Timeout = DefaultVaultConfig.Timeout
	}

	if c.Vault.DefaultPath == "" {
		c.Vault.DefaultPath = DefaultVaultConfig.DefaultPath
	}

	if !strings.Contains(strings.Trim(c.Vault.DefaultPath, "/"), "/") {
		return fmt.Errorf("vault.default_path must look like mount/path/to/secret, got %q", c.Vault.DefaultPath)
	}

	if len(c.Vault.AllowedPathPrefixes) == 0 {
		c.Vault.AllowedPathPrefixes = []string{c.Vault.DefaultPath}
	}

	defaultCovered := false
	defaultPath := strings.Trim(c.Vault.DefaultPath, "/")
	for i, prefix := range c.Vault.AllowedPathPrefixes {
		trimmed := strings.Trim(strings.TrimSpace(prefix), "/")
		if trimmed == "" {
			return fmt.Errorf("vault.allowed_path_prefixes[%d] is empty", i)
		}
		for _, segment := range strings.Split(trimmed, "/") {
			if segment == "" || segment == "." || segment == ".." {
				return fmt.Errorf("vault.allowed_path_prefixes[%d] %q contains an invalid segment", i, prefix)
			}
		}
		if defaultPath == trimmed || strings.HasPrefix(defaultPath, trimmed+"/") {
			defaultCovered = true
		}
	}
	if !defaultCovered {
		return fmt.Errorf("vault.default_path %q is outside vault.allowed_path_prefixes", c.Vault.DefaultPath)
	}

	return nil
}

func (c *Config) validateEnrollmentConfig() error {
	if c.Enrollment.Server == "" {
		return fmt.Errorf("enrollment.server is required")
	}

	if !slices.Contains(c.Enrollment.AllowedServers, c.Enrollment.Server) {
		c.Enrollment.AllowedServers = append(c.Enrollment.AllowedServers, c.Enrollment.Server)
	}

	if c.Enrollment.AuthMethod == "" {
		c.Enrollment.AuthMethod = DefaultEnrollmentConfig.AuthMethod
	} else {
		switch c.Enrollment.AuthMethod {
		case "basic", "ntlm", "cert":
		default:
			return fmt.Errorf("invalid enrollment auth_method: %s, options are basic, ntlm or cert", c.Enrollment.AuthMethod)
		}
	}

	if c.Enrollment.Timeout <= 0 {
		c.Enrollment.Timeout = DefaultEnrollmentConfig.Timeout
	}

	if c.Enrollment.DefaultEncoding == "" {
		c.Enrollment.DefaultEncoding = DefaultEnrollmentConfig.DefaultEncoding
	} else {
		switch c.Enrollment.DefaultEncoding {
		case "b64", "bin":
		default:
			return fmt.Errorf("invalid enrollment default_encoding: %s, options are b64 or bin", c.Enrollment.DefaultEncoding)
		}
	}

	if len(c.Enrollment.Templates) == 0 {
		c.Enrollment.Templates = append([]Template(nil), DefaultTemplates...)
	}

	for i, template := range c.Enrollment.Templates {
		if template.ID == "" {
			return fmt.Errorf("enrollment.templates[%d].id is required", i)
		}
		if template.Name == "" {
			c.Enrollment.Templates[i].Name = template.ID
		}
	}

	if c.Enrollment.DefaultTemplate == "" {
		c.Enrollment.DefaultTemplate = c.Enrollment.Templates[0].ID
	}

	return nil
}

func (c *Config) validateRateLimitConfig() error {
	if !c.RateLimit.Enabled {
		return nil
	}

	if c.RateLimit.RequestsPerMinute <= 0 {
		c.RateLimit.RequestsPerMinute = DefaultRateLimitConfig.RequestsPerMinute
	}

	if c.RateLimit.Window <= 0 {
		c.RateLimit.Window = DefaultRateLimitConfig.Window
	}

	if c.RateLimit.SweepInterval <= 0 {
		c.RateLimit.SweepInterval = DefaultRateLimitConfig.SweepInterval
	}

	if c.RateLimit.Store == "" {
		c.RateLimit.Store = DefaultRateLimitConfig.Store
	}

	switch c.RateLimit.Store {
	case "memory":
	case "redis":
		if c.Redis == nil {
			return fmt.Errorf("redis configuration must be enabled to use redis for rate limiting")
		}
	default:
		return fmt.Errorf("invalid rate_limit store: %s, must be 'memory' or 'redis'", c.RateLimit.Store)
	}

	return nil
}

func (c *Config) validatePendingConfig() error {
	if c.Pending.Store == "" {
		c.Pending.Store = DefaultPendingConfig.Store
	}

	switch c.Pending.Store {
	case "memory":
	case "redis":
		if c.Redis == nil {
			return fmt.Errorf("redis configuration must be enabled to use redis for pending requests")
		}
	default:
		return fmt.Errorf("invalid pending store: %s, must be 'memory' or 'redis'", c.Pending.Store)
	}

	if c.Pending.TTL <= 0 {
		c.Pending.TTL = DefaultPendingConfig.TTL
	}

	if c.Pending.PollInterval <= 0 {
		c.Pending.PollInterval = DefaultPendingConfig.PollInterval
	} else if c.Pending.PollInterval.Seconds() < 30 {
		return fmt.Errorf("pending.poll_interval cannot be less than 30 seconds")
	}

	return nil
}

func (c *Config) validateRedisConfig() error {
	if c.Redis == nil {
		return fmt.Errorf("redis config is nil")
	}

	if c.Redis.Address == "" {
		return fmt.Errorf("redis address is required")
	}

	if _, _, err := net.SplitHostPort(c.Redis.Address); err != nil {
		return fmt.Errorf("invalid redis address format (expected host:port): %w", err)
	}

	if c.Redis.PendingIndex == 0 && c.Redis.RateLimitIndex == 0 && c.Redis.LeaderIndex == 0 {
		c.Redis.PendingIndex = DefaultRedisConfig.PendingIndex
		c.Redis.RateLimitIndex = DefaultRedisConfig.RateLimitIndex
		c.Redis.LeaderIndex = DefaultRedisConfig.LeaderIndex
	}

	indices := map[string]int{
		"pending_index":    c.Redis.PendingIndex,
		"rate_limit_index": c.Redis.RateLimitIndex,
		"leader_index":     c.Redis.LeaderIndex,
	}

	const maxRedisDB = 15
	for name, index := range indices {
		if index < 0 {
			return fmt.Errorf("redis %s must be non-negative, got %d", name, index)
		}
		if index > maxRedisDB {
			return fmt.Errorf("redis %s %d exceeds typical maximum of %d", name, index, maxRedisDB)
		}
	}

	if c.Redis.PendingIndex == c.Redis.RateLimitIndex {
		return fmt.Errorf("redis pending_index and rate_limit_index should be different to avoid data collision (both are %d)", c.Redis.PendingIndex)
	}

	if c.Redis.LeaderIndex == c.Redis.PendingIndex {
		return fmt.Errorf("redis leader_index and pending_index should be different to avoid data collision (both are %d)", c.Redis.LeaderIndex)
	}

	if c.Redis.LeaderIndex == c.Redis.RateLimitIndex {
		return fmt.Errorf("redis leader_index and rate_limit_index should be different to avoid data collision (both are %d)", c.Redis.LeaderIndex)
	}

	if c.Redis.Sentinel != nil {
		if c.Redis.Sentinel.MasterName == "" {
			return fmt.Errorf("sentinel master_name is required")
		}
		if len(c.Redis.Sentinel.SentinelAddresses) == 0 {
			return fmt.Errorf("at least one sentinel address is required")
		}
	}
	return nil
}

func (c *Config) validateDistributedConfig() error {
	if c.Distributed == nil || !c.Distributed.Enabled {
		return nil
	}

	if c.Redis == nil {
		return fmt.Errorf("redis configuration must be enabled to use distributed mode")
	}

	if c.Distributed.TTL.Seconds() <= 0 {
		c.Distributed.TTL = DefaultDistributedConfig.TTL
	} else if c.Distributed.TTL.Minutes() > 1 {
		return fmt.Errorf("distributed ttl cannot be more than 1 minute")
	}

	return nil
}
