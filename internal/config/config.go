package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/viper"
)

const ENV_PREFIX = "BRIDGE_SIDECAR"

type DatabaseDriver string

const (
	DatabaseDriver_Sqlite   DatabaseDriver = "sqlite"
	DatabaseDriver_Postgres DatabaseDriver = "postgres"
)

// Contract addresses used when none are configured.
const (
	DefaultVaultAddress = "0x6b175484e89094c44da98b954eedeac495271d0f"
	DefaultTokenAddress = "0x6b175474e89094c44da98b954eedeac495271d0f"
)

type EthereumRpcConfig struct {
	RpcUrl          string
	Confirmations   uint64
	PollInterval    time.Duration
	RequestTimeout  time.Duration
	MaxRetryElapsed time.Duration
	LogsBlockRange  uint64
}

type BridgeConfig struct {
	VaultAddress string
	TokenAddress string
	GenesisBlock uint32
}

type DatabaseConfig struct {
	Driver      DatabaseDriver
	SqlitePath  string
	Host        string
	Port        int
	User        string
	Password    string
	DbName      string
	SchemaName  string
	SSLMode     string
	SSLCert     string
	SSLKey      string
	SSLRootCert string
}

type BookmarkConfig struct {
	Path string
}

type RpcConfig struct {
	HttpPort int
}

type StatsdConfig struct {
	Enabled    bool
	Url        string
	SampleRate float64
}

type DataDogConfig struct {
	StatsdConfig StatsdConfig
}

type PrometheusConfig struct {
	Enabled bool
	Port    int
}

type RabbitMqConfig struct {
	Enabled  bool
	Url      string
	Username string
	Password string
	Secure   bool
	Exchange string
}

type ReplayConfig struct {
	InputFile string
}

type ExportConfig struct {
	OutputFile string
}

type Config struct {
	Debug             bool
	EthereumRpcConfig EthereumRpcConfig
	BridgeConfig      BridgeConfig
	DatabaseConfig    DatabaseConfig
	BookmarkConfig    BookmarkConfig
	RpcConfig         RpcConfig
	DataDogConfig     DataDogConfig
	PrometheusConfig  PrometheusConfig
	RabbitMqConfig    RabbitMqConfig
	ReplayConfig      ReplayConfig
	ExportConfig      ExportConfig
}

// Flag names. Viper keys are the snake_case form, see KebabToSnakeCase.
const (
	Debug = "debug"

	EthereumRpcUrl          = "ethereum.rpc-url"
	EthereumConfirmations   = "ethereum.confirmations"
	EthereumPollInterval    = "ethereum.poll-interval"
	EthereumRequestTimeout  = "ethereum.request-timeout"
	EthereumMaxRetryElapsed = "ethereum.max-retry-elapsed"
	EthereumLogsBlockRange  = "ethereum.logs-block-range"

	BridgeVaultAddress = "bridge.vault-address"
	BridgeTokenAddress = "bridge.token-address"
	BridgeGenesisBlock = "bridge.genesis-block"

	DatabaseDriverName  = "database.driver"
	DatabaseSqlitePath  = "database.sqlite-path"
	DatabaseHost        = "database.host"
	DatabasePort        = "database.port"
	DatabaseUser        = "database.user"
	DatabasePassword    = "database.password"
	DatabaseDbName      = "database.db-name"
	DatabaseSchemaName  = "database.schema-name"
	DatabaseSSLMode     = "database.ssl-mode"
	DatabaseSSLCert     = "database.ssl-cert"
	DatabaseSSLKey      = "database.ssl-key"
	DatabaseSSLRootCert = "database.ssl-root-cert"

	BookmarkPath = "bookmark.path"

	RpcHttpPort = "rpc.http-port"

	DataDogStatsdEnabled    = "datadog.statsd.enabled"
	DataDogStatsdUrl        = "datadog.statsd.url"
	DataDogStatsdSampleRate = "datadog.statsd.sample-rate"

	PrometheusEnabled = "prometheus.enabled"
	PrometheusPort    = "prometheus.port"

	RabbitMqEnabled  = "rabbitmq.enabled"
	RabbitMqUrl      = "rabbitmq.url"
	RabbitMqUsername = "rabbitmq.username"
	RabbitMqPassword = "rabbitmq.password"
	RabbitMqSecure   = "rabbitmq.secure"
	RabbitMqExchange = "rabbitmq.exchange"

	ReplayInputFile  = "input"
	ExportOutputFile = "output"
)

func NewConfig() *Config {
	return &Config{
		Debug: viper.GetBool(normalizeFlagName(Debug)),

		EthereumRpcConfig: EthereumRpcConfig{
			RpcUrl:          viper.GetString(normalizeFlagName(EthereumRpcUrl)),
			Confirmations:   viper.GetUint64(normalizeFlagName(EthereumConfirmations)),
			PollInterval:    viper.GetDuration(normalizeFlagName(EthereumPollInterval)),
			RequestTimeout:  viper.GetDuration(normalizeFlagName(EthereumRequestTimeout)),
			MaxRetryElapsed: viper.GetDuration(normalizeFlagName(EthereumMaxRetryElapsed)),
			LogsBlockRange:  viper.GetUint64(normalizeFlagName(EthereumLogsBlockRange)),
		},

		BridgeConfig: BridgeConfig{
			VaultAddress: viper.GetString(normalizeFlagName(BridgeVaultAddress)),
			TokenAddress: viper.GetString(normalizeFlagName(BridgeTokenAddress)),
			GenesisBlock: viper.GetUint32(normalizeFlagName(BridgeGenesisBlock)),
		},

		DatabaseConfig: DatabaseConfig{
			Driver:      DatabaseDriver(viper.GetString(normalizeFlagName(DatabaseDriverName))),
			SqlitePath:  viper.GetString(normalizeFlagName(DatabaseSqlitePath)),
			Host:        viper.GetString(normalizeFlagName(DatabaseHost)),
			Port:        viper.GetInt(normalizeFlagName(DatabasePort)),
			User:        viper.GetString(normalizeFlagName(DatabaseUser)),
			Password:    viper.GetString(normalizeFlagName(DatabasePassword)),
			DbName:      viper.GetString(normalizeFlagName(DatabaseDbName)),
			SchemaName:  viper.GetString(normalizeFlagName(DatabaseSchemaName)),
			SSLMode:     viper.GetString(normalizeFlagName(DatabaseSSLMode)),
			SSLCert:     viper.GetString(normalizeFlagName(DatabaseSSLCert)),
			SSLKey:      viper.GetString(normalizeFlagName(DatabaseSSLKey)),
			SSLRootCert: viper.GetString(normalizeFlagName(DatabaseSSLRootCert)),
		},

		BookmarkConfig: BookmarkConfig{
			Path: viper.GetString(normalizeFlagName(BookmarkPath)),
		},

		RpcConfig: RpcConfig{
			HttpPort: viper.GetInt(normalizeFlagName(RpcHttpPort)),
		},

		DataDogConfig: DataDogConfig{
			StatsdConfig: StatsdConfig{
				Enabled:    viper.GetBool(normalizeFlagName(DataDogStatsdEnabled)),
				Url:        viper.GetString(normalizeFlagName(DataDogStatsdUrl)),
				SampleRate: viper.GetFloat64(normalizeFlagName(DataDogStatsdSampleRate)),
			},
		},

		PrometheusConfig: PrometheusConfig{
			Enabled: viper.GetBool(normalizeFlagName(PrometheusEnabled)),
			Port:    viper.GetInt(normalizeFlagName(PrometheusPort)),
		},

		RabbitMqConfig: RabbitMqConfig{
			Enabled:  viper.GetBool(normalizeFlagName(RabbitMqEnabled)),
			Url:      viper.GetString(normalizeFlagName(RabbitMqUrl)),
			Username: viper.GetString(normalizeFlagName(RabbitMqUsername)),
			Password: viper.GetString(normalizeFlagName(RabbitMqPassword)),
			Secure:   viper.GetBool(normalizeFlagName(RabbitMqSecure)),
			Exchange: viper.GetString(normalizeFlagName(RabbitMqExchange)),
		},

		ReplayConfig: ReplayConfig{
			InputFile: viper.GetString(normalizeFlagName(ReplayInputFile)),
		},

		ExportConfig: ExportConfig{
			OutputFile: viper.GetString(normalizeFlagName(ExportOutputFile)),
		},
	}
}

func (c *Config) GetVaultAddress() string {
	if c.BridgeConfig.VaultAddress == "" {
		return DefaultVaultAddress
	}
	return strings.ToLower(c.BridgeConfig.VaultAddress)
}

func (c *Config) GetTokenAddress() string {
	if c.BridgeConfig.TokenAddress == "" {
		return DefaultTokenAddress
	}
	return strings.ToLower(c.BridgeConfig.TokenAddress)
}

var validDrivers = []DatabaseDriver{DatabaseDriver_Sqlite, DatabaseDriver_Postgres}

// Validate checks the settings every command depends on.
func (c *Config) Validate() error {
	var errs []error
	for name, addr := range map[string]string{
		BridgeVaultAddress: c.GetVaultAddress(),
		BridgeTokenAddress: c.GetTokenAddress(),
	} {
		if !common.IsHexAddress(addr) {
			errs = append(errs, fmt.Errorf("%s: invalid address '%s'", name, addr))
		}
	}
	if !slices.Contains(validDrivers, c.DatabaseConfig.Driver) {
		errs = append(errs, fmt.Errorf("%s: unsupported driver '%s'", DatabaseDriverName, c.DatabaseConfig.Driver))
	}
	if c.DatabaseConfig.Driver == DatabaseDriver_Sqlite && c.DatabaseConfig.SqlitePath == "" {
		errs = append(errs, fmt.Errorf("%s is required for the sqlite driver", DatabaseSqlitePath))
	}
	return errors.Join(errs...)
}

func KebabToSnakeCase(str string) string {
	return strings.ReplaceAll(str, "-", "_")
}

func normalizeFlagName(name string) string {
	return KebabToSnakeCase(name)
}
