// Package config loads lunarc's runtime/server tuning from an optional YAML
// file, the same env-var-then-flag-override layering the teacher's
// cmd/gcw-emulator/main.go does by hand for each setting — generalized here
// into one loadable struct so cmd/lunarc doesn't repeat that boilerplate
// per flag.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds every tunable lunarc's CLI and server commands read from, in
// priority order highest-first: explicit cobra flag, environment variable,
// YAML file, compiled-in default (Defaults()).
type Config struct {
	// Host is the bind address for both the REST and gRPC listeners.
	Host string `yaml:"host"`
	// Port is the REST server's listen port.
	Port int `yaml:"port"`
	// GRPCPort is the gRPC server's listen port.
	GRPCPort int `yaml:"grpc_port"`
	// Workers is the dfruntime worker-pool size `lunarc serve` uses for
	// interpreted executions. `lunarc run` takes its pool size from its own
	// --workers flag instead.
	Workers int `yaml:"workers"`
	// ProgramsDir, if set, is watched for .lunar source files to compile and
	// register on startup, mirroring the teacher's --workflows-dir.
	ProgramsDir string `yaml:"programs_dir"`
}

// Defaults returns lunarc's compiled-in configuration.
func Defaults() Config {
	return Config{
		Host:     "0.0.0.0",
		Port:     8787,
		GRPCPort: 8788,
		Workers:  8,
	}
}

// Load reads a YAML config file and overlays it onto Defaults(). A missing
// path is not an error — the caller gets Defaults() back, to be layered
// further with env/flag overrides exactly as the teacher's run() does.
func Load(path string) (Config, error) {
	cfg := Defaults()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return cfg, nil
}

// EnvOrDefault mirrors the teacher's cmd/gcw-emulator/main.go helper of the
// same shape, kept as a package-level function so cmd/lunarc's flag-parsing
// code reads the same way the teacher's does.
func EnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
