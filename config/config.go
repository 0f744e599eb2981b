package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full service configuration
type Config struct {
	Server   Server
	Redis    Redis
	Ledger   Ledger
	Protocol Protocol
	Session  Session
	Log      Log
}

// Server holds HTTP listener settings
type Server struct {
	ListenAddr string
}

// Redis holds the store/event backend settings. An empty URL selects the
// in-memory store, for single-instance and development runs.
type Redis struct {
	URL string
}

// Ledger holds the chain read API settings
type Ledger struct {
	BaseURL string
	Timeout time.Duration
}

// Protocol holds the deployment policy of the verification protocol
type Protocol struct {
	DepositAddress string
	RequiredAmount string
	EnforceAmount  bool
	AddressPrefix  string
	ChallengeTTL   time.Duration
	SweepInterval  time.Duration
}

// Session holds session-credential settings. SigningKeyFile points at an
// EC PRIVATE KEY PEM; when empty an ephemeral key is generated, which
// invalidates outstanding sessions on restart.
type Session struct {
	TTL            time.Duration
	SigningKeyFile string
}

// Log holds logger settings
type Log struct {
	Level  string
	Pretty bool
}

// Load reads config.yaml (from ./config or the working directory) merged
// with WALLETGATE_* environment overrides. A missing file is fine: the
// defaults plus environment cover containerized deployments.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("config")
	v.AddConfigPath(".")

	v.SetEnvPrefix("WALLETGATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.listenaddr", ":9000")
	v.SetDefault("redis.url", "")
	v.SetDefault("ledger.baseurl", "http://localhost:1317")
	v.SetDefault("ledger.timeout", 5*time.Second)
	v.SetDefault("protocol.depositaddress", "")
	v.SetDefault("protocol.requiredamount", "0.1")
	v.SetDefault("protocol.enforceamount", true)
	v.SetDefault("protocol.addressprefix", "axm")
	v.SetDefault("protocol.challengettl", 15*time.Minute)
	v.SetDefault("protocol.sweepinterval", time.Minute)
	v.SetDefault("session.ttl", 7*24*time.Hour)
	v.SetDefault("session.signingkeyfile", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
}
