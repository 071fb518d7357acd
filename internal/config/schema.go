package config

import (
	"fmt"
	"net/netip"
	"time"
)

type Config struct {
	Server      ServerConfig       `yaml:"server"`
	Log         LogConfig          `yaml:"log"`
	CORS        CORSConfig         `yaml:"cors"`
	Vault       VaultConfig        `yaml:"vault"`
	Enrollment  EnrollmentConfig   `yaml:"enrollment"`
	RateLimit   RateLimitConfig    `yaml:"rate_limit"`
	Pending     PendingConfig      `yaml:"pending"`
	Redis       *RedisConfig       `yaml:"redis"`
	Distributed *DistributedConfig `yaml:"distributed"`
}

type ServerConfig struct {
	Port  int                `yaml:"port"`
	Debug *ServerDebugConfig `yaml:"debug"`
	// TrustedProxies lists the peers (IPs or CIDRs) whose forwarding headers name the client.
	TrustedProxies []string `yaml:"trusted_proxies"`
}

// TrustedProxyPrefixes parses TrustedProxies. A bare address becomes a single-host prefix.
func (s ServerConfig) TrustedProxyPrefixes() ([]netip.Prefix, error) {
	prefixes := make([]netip.Prefix, 0, len(s.TrustedProxies))
	for _, entry := range s.TrustedProxies {
		if prefix, err := netip.ParsePrefix(entry); err == nil {
			prefixes = append(prefixes, prefix.Masked())
			continue
		}
		addr, err := netip.ParseAddr(entry)
		if err != nil {
			return nil, fmt.Errorf("invalid trusted proxy %q: expected an IP or CIDR", entry)
		}
		addr = addr.Unmap()
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return prefixes, nil
}

var DefaultServerConfig = ServerConfig{
	Port: 8080,
}

type ServerDebugConfig struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
}

var DefaultDebugConfig = ServerDebugConfig{
	Enabled: false,
	Host:    "localhost",
	Port:    5123,
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

var DefaultLogConfig = LogConfig{
	Level:  "info",
	Format: "text",
}

type CORSConfig struct {
	AllowedOrigins   []string `yaml:"allowed_origins"`
	AllowedMethods   []string `yaml:"allowed_methods"`
	AllowedHeaders   []string `yaml:"allowed_headers"`
	ExposedHeaders   []string `yaml:"exposed_headers"`
	AllowCredentials bool     `yaml:"allow_credentials"`
	MaxAgeSeconds    int      `yaml:"max_age_seconds"`
}

var DefaultCORSConfig = CORSConfig{
	AllowedOrigins: []string{"http://localhost:8501"},
	AllowedMethods: []string{"GET", "POST", "OPTIONS"},
	AllowedHeaders: []string{"*"},
	ExposedHeaders: []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
	MaxAgeSeconds:  300,
}

// VaultConfig points at the KV v2 store holding the ADCS signing credentials.
type VaultConfig struct {
	Address       string        `yaml:"address"`
	Token         string        `yaml:"token"`
	Timeout       time.Duration `yaml:"timeout"`
	DefaultPath   string        `yaml:"default_path"`
	TLSSkipVerify bool          `yaml:"tls_skip_verify"`
	// AllowedPathPrefixes bound the secret paths API callers may name. Defaults to DefaultPath.
	AllowedPathPrefixes []string `yaml:"allowed_path_prefixes"`
}

var DefaultVaultConfig = VaultConfig{
	Timeout:     30 * time.Second,
	DefaultPath: "kv2/cert",
}

type EnrollmentConfig struct {
	Server          string        `yaml:"server"`
	AuthMethod      string        `yaml:"auth_method"`
	Timeout         time.Duration `yaml:"timeout"`
	DefaultTemplate string        `yaml:"default_template"`
	DefaultEncoding string        `yaml:"default_encoding"`
	Templates       []Template    `yaml:"templates"`
	// AllowedServers may be named per request. Server is always included.
	AllowedServers []string `yaml:"allowed_servers"`
}

type Template struct {
	ID          string `yaml:"id" json:"id"`
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
}

var DefaultEnrollmentConfig = EnrollmentConfig{
	AuthMethod:      "basic",
	Timeout:         30 * time.Second,
	DefaultTemplate: "WebServer",
	DefaultEncoding: "b64",
}

var DefaultTemplates = []Template{
	{ID: "WebServer", Name: "Web Server", Description: "Certificate for SSL/TLS web servers"},
	{ID: "CodeSigning", Name: "Code Signing", Description: "Certificate for signing code"},
	{ID: "ClientAuth", Name: "Client Authentication", Description: "Certificate for client authentication"},
	{ID: "SmartcardLogon", Name: "Smartcard Logon", Description: "Certificate for smartcard logon"},
}

type RateLimitConfig struct {
	Enabled           bool          `yaml:"enabled"`
	RequestsPerMinute int           `yaml:"requests_per_minute"`
	Window            time.Duration `yaml:"window"`
	Store             string        `yaml:"store"` // "memory" or "redis"
	SweepInterval     time.Duration `yaml:"sweep_interval"`
}

var DefaultRateLimitConfig = RateLimitConfig{
	RequestsPerMinute: 100,
	Window:            time.Minute,
	Store:             "memory",
	SweepInterval:     time.Minute,
}

type PendingConfig struct {
	Store        string        `yaml:"store"` // "memory" or "redis"
	TTL          time.Duration `yaml:"ttl"`
	PollEnabled  bool          `yaml:"poll_enabled"`
	PollInterval time.Duration `yaml:"poll_interval"`
}

var DefaultPendingConfig = PendingConfig{
	Store:        "memory",
	TTL:          7 * 24 * time.Hour,
	PollInterval: 5 * time.Minute,
}

type RedisConfig struct {
	Address        string               `yaml:"address"`
	Username       string               `yaml:"username"`
	Password       string               `yaml:"password"`
	Sentinel       *RedisSentinelConfig `yaml:"sentinel"`
	PendingIndex   int                  `yaml:"pending_index"`
	RateLimitIndex int                  `yaml:"rate_limit_index"`
	LeaderIndex    int                  `yaml:"leader_index"`
}

var DefaultRedisConfig = RedisConfig{
	PendingIndex:   0,
	RateLimitIndex: 1,
	LeaderIndex:    2,
}

type RedisSentinelConfig struct {
	MasterName        string   `yaml:"master_name"`
	SentinelAddresses []string `yaml:"addresses"`
	SentinelPassword  string   `yaml:"password"`
	SentinelUsername  string   `yaml:"username"`
}

type DistributedConfig struct {
	Enabled bool          `yaml:"enabled"`
	TTL     time.Duration `yaml:"ttl"`
}

var DefaultDistributedConfig = DistributedConfig{
	Enabled: false,
	TTL:     30 * time.Second,
}
