package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"sui-wallet-go/pkg/hdkey"
	"sui-wallet-go/pkg/mnemonic"
)

// EnvPrefix is prepended to every environment override, e.g. SUIWALLET_RPC_URL
const EnvPrefix = "SUIWALLET"

// Config represents the application configuration
type Config struct {
	// Network settings
	Network       string `mapstructure:"network" yaml:"network"`
	RPCUrl        string `mapstructure:"rpc_url" yaml:"rpc_url"`
	RPCTimeoutSec int    `mapstructure:"rpc_timeout_sec" yaml:"rpc_timeout_sec"`
	WSUrl         string `mapstructure:"ws_url" yaml:"ws_url"` // derived from rpc_url when empty

	// Wallet settings
	Wallet WalletConfig `mapstructure:"wallet" yaml:"wallet"`

	// Logging settings
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Metrics settings
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
}

// WalletConfig says where key material comes from and how transactions are executed
type WalletConfig struct {
	Mnemonic         string `mapstructure:"mnemonic" yaml:"mnemonic"`
	Passphrase       string `mapstructure:"passphrase" yaml:"passphrase"`
	DerivationPath   string `mapstructure:"derivation_path" yaml:"derivation_path"`
	KeystorePath     string `mapstructure:"keystore_path" yaml:"keystore_path"`
	KeystorePassword string `mapstructure:"keystore_password" yaml:"keystore_password"`
	WordCount        int    `mapstructure:"word_count" yaml:"word_count"`
	GasBudget        uint64 `mapstructure:"gas_budget" yaml:"gas_budget"`
	RequestType      string `mapstructure:"request_type" yaml:"request_type"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"`
	LogToFile   bool   `mapstructure:"log_to_file" yaml:"log_to_file"`
	LogFilePath string `mapstructure:"log_file_path" yaml:"log_file_path"`
	AuditLogDir string `mapstructure:"audit_log_dir" yaml:"audit_log_dir"`
}

// MetricsConfig contains prometheus exporter settings
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	Port    int  `mapstructure:"port" yaml:"port"`
}

// LoadConfig loads configuration from file and environment variables
func LoadConfig(configPath string, envPath string) (*Config, error) {
	if err := loadEnvFile(envPath); err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("wallet")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.sui-wallet")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvVariables(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !(configPath != "" && os.IsNotExist(err)) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		logrus.Debug("Config file not found, using environment variables and defaults")
	} else {
		logrus.WithField("file", v.ConfigFileUsed()).Debug("Using config file")
	}

	processEnvSubstitution(v)

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// loadEnvFile loads variables from envPath, or from the first default .env that exists.
// Variables already set in the process environment win.
func loadEnvFile(envPath string) error {
	if envPath != "" {
		if err := godotenv.Load(envPath); err != nil {
			return fmt.Errorf("failed to load .env file %s: %w", envPath, err)
		}
		return nil
	}

	for _, file := range []string{".env", "configs/.env"} {
		if _, err := os.Stat(file); err == nil {
			if err := godotenv.Load(file); err != nil {
				return fmt.Errorf("failed to load .env file %s: %w", file, err)
			}
			return nil
		}
	}
	return nil
}

// bindEnvVariables binds nested keys that AutomaticEnv cannot discover on Unmarshal
func bindEnvVariables(v *viper.Viper) {
	for _, key := range []string{
		"network",
		"rpc_url",
		"rpc_timeout_sec",
		"ws_url",
		"wallet.mnemonic",
		"wallet.passphrase",
		"wallet.derivation_path",
		"wallet.keystore_path",
		"wallet.keystore_password",
		"wallet.word_count",
		"wallet.gas_budget",
		"wallet.request_type",
		"logging.level",
		"logging.format",
		"logging.log_to_file",
		"logging.log_file_path",
		"logging.audit_log_dir",
		"metrics.enabled",
		"metrics.port",
	} {
		_ = v.BindEnv(key)
	}
}

// processEnvSubstitution expands ${VAR:-default} in string values
func processEnvSubstitution(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		value, ok := v.Get(key).(string)
		if !ok || !strings.Contains(value, "${") {
			continue
		}
		v.Set(key, expandEnvVars(value))
	}
}

// expandEnvVars expands environment variables in the format ${VAR:-default}
func expandEnvVars(value string) string {
	result := value
	for {
		start := strings.Index(result, "${")
		if start == -1 {
			break
		}

		end := strings.Index(result[start:], "}")
		if end == -1 {
			break
		}
		end += start

		expr := result[start+2 : end]

		varName, defaultValue := expr, ""
		if parts := strings.SplitN(expr, ":-", 2); len(parts) == 2 {
			varName, defaultValue = parts[0], parts[1]
		}

		envValue := os.Getenv(varName)
		if envValue == "" {
			envValue = defaultValue
		}

		result = result[:start] + envValue + result[end+1:]
	}

	return result
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("network", NetworkMainnet)
	v.SetDefault("rpc_url", "")
	v.SetDefault("rpc_timeout_sec", DefaultRPCTimeoutSec)
	v.SetDefault("ws_url", "")

	v.SetDefault("wallet.derivation_path", hdkey.DefaultPath)
	v.SetDefault("wallet.word_count", mnemonic.DefaultWordCount)
	v.SetDefault("wallet.gas_budget", DefaultGasBudget)
	v.SetDefault("wallet.request_type", RequestWaitForLocalExecution)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.log_to_file", false)
	v.SetDefault("logging.log_file_path", "logs/wallet.log")
	v.SetDefault("logging.audit_log_dir", "")

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.port", DefaultMetricsPort)
}

// validateConfig validates the configuration
func validateConfig(config *Config) error {
	if config.RPCUrl == "" {
		if !IsKnownNetwork(config.Network) {
			return fmt.Errorf("unknown network %q and no rpc_url set", config.Network)
		}
		config.RPCUrl = GetRPCEndpoint(config.Network)
	}

	if config.RPCTimeoutSec <= 0 {
		return fmt.Errorf("rpc_timeout_sec must be positive")
	}

	path, err := hdkey.ParsePath(config.Wallet.DerivationPath)
	if err != nil {
		return fmt.Errorf("wallet.derivation_path: %w", err)
	}
	if err := path.ValidateSui(); err != nil {
		return fmt.Errorf("wallet.derivation_path: %w", err)
	}

	if _, err := mnemonic.EntropyBits(config.Wallet.WordCount); err != nil {
		return fmt.Errorf("wallet.word_count: %w", err)
	}

	switch config.Wallet.RequestType {
	case RequestWaitForEffectsCert, RequestWaitForLocalExecution:
	default:
		return fmt.Errorf("wallet.request_type must be %s or %s", RequestWaitForEffectsCert, RequestWaitForLocalExecution)
	}

	if config.Wallet.KeystorePath != "" && config.Wallet.KeystorePassword == "" && config.Wallet.Mnemonic == "" {
		return fmt.Errorf("wallet.keystore_password is required to unlock %s", config.Wallet.KeystorePath)
	}

	if _, err := logrus.ParseLevel(config.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}

	if config.Metrics.Enabled && (config.Metrics.Port <= 0 || config.Metrics.Port > 65535) {
		return fmt.Errorf("metrics.port must be between 1 and 65535")
	}

	return nil
}

// HasKeySource reports whether a mnemonic or keystore is configured
func (w WalletConfig) HasKeySource() bool {
	return w.Mnemonic != "" || w.KeystorePath != ""
}

// GetRPCTimeout returns the RPC timeout as a duration
func (c *Config) GetRPCTimeout() time.Duration {
	return time.Duration(c.RPCTimeoutSec) * time.Second
}
