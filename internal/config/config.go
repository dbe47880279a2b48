package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Server struct {
		Port         string
		LogLevel     string
		JWTSecret    string
		EngineSecret string
		TokenExpMin  int
	}
	Backend struct {
		BaseURL        string
		GatewayURL     string
		CredentialFile string
	}
	Live struct {
		AppID              string
		Profile            string
		PollIntervalMS     int
		JoinTimeoutSeconds int
	}
}

func Load() Config {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.token_exp_min", 120)

	v.SetDefault("backend.base_url", "http://localhost:8080")
	v.SetDefault("backend.gateway_url", "ws://localhost:8080/engine/ws")
	v.SetDefault("backend.credential_file", defaultCredentialFile())

	v.SetDefault("live.profile", "live_broadcasting")
	v.SetDefault("live.poll_interval_ms", 1000)
	v.SetDefault("live.join_timeout_seconds", 20)

	// Map envs
	v.BindEnv("server.port", "PORT")
	v.BindEnv("server.log_level", "LOG_LEVEL")
	v.BindEnv("server.jwt_secret", "JWT_SECRET")
	v.BindEnv("server.engine_secret", "ENGINE_SECRET")
	v.BindEnv("server.token_exp_min", "TOKEN_EXP_MIN")

	v.BindEnv("backend.base_url", "API_BASE_URL")
	v.BindEnv("backend.gateway_url", "ENGINE_GATEWAY_URL")
	v.BindEnv("backend.credential_file", "CREDENTIAL_FILE")

	v.BindEnv("live.app_id", "ENGINE_APP_ID")
	v.BindEnv("live.profile", "ENGINE_PROFILE")
	v.BindEnv("live.poll_interval_ms", "CHAT_POLL_INTERVAL_MS")
	v.BindEnv("live.join_timeout_seconds", "LIVE_JOIN_TIMEOUT_SECONDS")

	var c Config
	c.Server.Port = v.GetString("server.port")
	c.Server.LogLevel = v.GetString("server.log_level")
	c.Server.JWTSecret = v.GetString("server.jwt_secret")
	c.Server.EngineSecret = v.GetString("server.engine_secret")
	c.Server.TokenExpMin = v.GetInt("server.token_exp_min")

	c.Backend.BaseURL = strings.TrimSuffix(v.GetString("backend.base_url"), "/")
	c.Backend.GatewayURL = v.GetString("backend.gateway_url")
	c.Backend.CredentialFile = v.GetString("backend.credential_file")

	c.Live.AppID = v.GetString("live.app_id")
	c.Live.Profile = v.GetString("live.profile")
	c.Live.PollIntervalMS = v.GetInt("live.poll_interval_ms")
	c.Live.JoinTimeoutSeconds = v.GetInt("live.join_timeout_seconds")

	log.Debug().Str("module", "config").Str("base_url", c.Backend.BaseURL).Str("gateway", c.Backend.GatewayURL).Msg("config loaded")
	return c
}

func defaultCredentialFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".gympadday/credential"
	}
	return filepath.Join(home, ".gympadday", "credential")
}
