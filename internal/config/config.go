// Package config resolves the server's runtime knobs from flags, environment
// variables and an optional config file, layering github.com/spf13/pflag
// for flag definitions with github.com/spf13/viper to merge flags, env
// and file.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds every runtime-tunable parameter of the scheduler and server.
type Config struct {
	// Addr is the TCP address the accept loop listens on.
	Addr string

	// QueueCapacity bounds the task queue.
	QueueCapacity int

	// QuantumRound1 and QuantumLater are the time-slice budgets for a
	// Program task's first round and every round after it. Exposed as
	// knobs rather than hardcoded so deployments can retune the hybrid
	// policy without a rebuild.
	QuantumRound1 int
	QuantumLater  int

	// ShellCaptureCap bounds a Shell task's captured output in bytes
	// before truncation. Zero means unbounded.
	ShellCaptureCap int

	// Color toggles ANSI markers in the observability log.
	Color bool

	// ConfigFile, if non-empty, is an additional source merged under
	// flags and environment (viper's normal precedence).
	ConfigFile string
}

// Defaults returns the server's baseline configuration: port 8080, queue
// capacity 100, quantum 3/7, unbounded shell capture, colors on.
func Defaults() Config {
	return Config{
		Addr:            ":8080",
		QueueCapacity:   100,
		QuantumRound1:   3,
		QuantumLater:    7,
		ShellCaptureCap: 0,
		Color:           true,
	}
}

// Load resolves a Config from args (normally os.Args[1:]), environment
// variables prefixed REMOTESHELL_, and an optional file pointed to by
// --config. Flags take precedence over environment, which takes precedence
// over the file, which takes precedence over Defaults().
func Load(args []string) (Config, error) {
	cfg := Defaults()

	fs := pflag.NewFlagSet("remoteshell", pflag.ContinueOnError)
	fs.String("addr", cfg.Addr, "TCP address to listen on")
	fs.Int("queue-capacity", cfg.QueueCapacity, "maximum number of queued tasks")
	fs.Int("quantum-round1", cfg.QuantumRound1, "quantum in seconds for a task's first round")
	fs.Int("quantum-later", cfg.QuantumLater, "quantum in seconds for rounds after the first")
	fs.Int("shell-capture-cap", cfg.ShellCaptureCap, "max bytes captured from a shell command, 0 = unbounded")
	fs.Bool("color", cfg.Color, "colorize observability log output")
	fs.String("config", "", "optional config file (yaml/json/toml)")

	if err := fs.Parse(args); err != nil {
		return cfg, fmt.Errorf("parse flags: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix("REMOTESHELL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(fs); err != nil {
		return cfg, fmt.Errorf("bind flags: %w", err)
	}

	configFile, _ := fs.GetString("config")
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return cfg, fmt.Errorf("read config file %s: %w", configFile, err)
		}
	}

	cfg.Addr = v.GetString("addr")
	cfg.QueueCapacity = v.GetInt("queue-capacity")
	cfg.QuantumRound1 = v.GetInt("quantum-round1")
	cfg.QuantumLater = v.GetInt("quantum-later")
	cfg.ShellCaptureCap = v.GetInt("shell-capture-cap")
	cfg.Color = v.GetBool("color")
	cfg.ConfigFile = configFile

	return cfg, nil
}
