package config

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"

	"github.com/ilyakaznacheev/cleanenv"
)

type (
	Config struct {
		App     `json:"app"     toml:"app"`
		HTTP    `json:"http"    toml:"http"`
		DB      `json:"db"      toml:"db"`
		Ledger  `json:"ledger"  toml:"ledger"`
		Docs    `json:"docs"    toml:"docs"`
		Workers `json:"workers" toml:"workers"`
		Risk    `json:"risk"    toml:"risk"`
		Log     `json:"logger"  toml:"logger"`
	}

	App struct {
		Name        string `json:"name"        toml:"name"        env:"APP_NAME"`
		Environment string `json:"environment" toml:"environment" env:"ENV_NAME" env-default:"dev"`
		Debug       bool   `json:"debug"       toml:"debug"       env:"DEBUG"    env-default:"false"`
	}

	HTTP struct {
		Port string `json:"port" toml:"port" env:"HTTP_PORT" env-default:"8080"`
	}

	DB struct {
		DatabaseURL       string `json:"database_url"        toml:"database_url"        env:"DATABASE_URL"`
		PoolMax           int32  `json:"pool_max"            toml:"pool_max"            env:"PG_POOL_MAX" env-default:"10"`
		ConnectTimeout    int    `json:"connect_timeout"     toml:"connect_timeout"     env:"PG_POOL_CONN_TIMEOUT" env-default:"5"`
		HealthCheckPeriod int    `json:"health_check_period" toml:"health_check_period" env:"PG_POOL_HEALTHCHECK" env-default:"1"`
	}

	Ledger struct {
		RPCURL                string `json:"rpc_url"                toml:"rpc_url"                env:"LEDGER_RPC_URL" env-default:"https://bsc-dataseed.binance.org/"`
		EscrowContract        string `json:"escrow_contract"        toml:"escrow_contract"        env:"ESCROW_CONTRACT"`
		PlatformSeed          string `json:"platform_seed"          toml:"platform_seed"          env:"PLATFORM_SEED" env-default:"your secure seed phrase here"`
		RequiredConfirmations uint64 `json:"required_confirmations" toml:"required_confirmations" env:"REQUIRED_CONFIRMATIONS" env-default:"3"`
	}

	Docs struct {
		StorePath string `json:"store_path" toml:"store_path" env:"DOCS_STORE_PATH" env-default:"./documents"`
	}

	Workers struct {
		RecoveryInterval int `json:"recovery_interval" toml:"recovery_interval" env:"RECOVERY_INTERVAL_MINUTES" env-default:"5"`
	}

	Risk struct {
		HighRiskCommodities []string `json:"high_risk_commodities" toml:"high_risk_commodities" env:"HIGH_RISK_COMMODITIES" env-separator:"," env-default:"oil,gold,diamonds"`
	}

	Log struct {
		Level slog.Level `json:"level" toml:"level" env:"LOG_LEVEL"`
	}
)

func LoadConfig() (*Config, error) {
	cfg := &Config{}

	_, b, _, _ := runtime.Caller(0)
	basePath := filepath.Dir(b)

	configTomlPath := filepath.Join(basePath, "config.toml")
	err := cleanenv.ReadConfig(configTomlPath, cfg)
	if err != nil {
		configJsonPath := filepath.Join(basePath, "config.json")
		err = cleanenv.ReadConfig(configJsonPath, cfg)
		if err != nil {
			return nil, fmt.Errorf("config error: %w", err)
		}
	}

	err = cleanenv.ReadEnv(cfg)
	if err != nil {
		return nil, fmt.Errorf("env read error: %w", err)
	}

	return cfg, nil
}
