// Package e2e drives a running broker. Suites are skipped unless the
// address is set in the environment.
package e2e

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	GrpcAddr string `envconfig:"E2E_GRPC_ADDR"`
	Token    string `envconfig:"E2E_TOKEN"`
	// E2E_DEBUG_JSON dumps every frame sent and received
	DebugJSON bool `envconfig:"E2E_DEBUG_JSON" default:"false"`
	Colours   bool `envconfig:"E2E_COLOURS" default:"true"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
