// Package config loads the network descriptor and run parameters that
// bootstrap a simulation, using koanf/v2 for layered file + environment
// configuration the way the rest of this codebase's ambient stack does.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// HostDescriptor is one entry of the descriptor's hosts list.
type HostDescriptor struct {
	ID string `koanf:"id"`
}

// RouterDescriptor is one entry of the descriptor's routers list.
type RouterDescriptor struct {
	ID            string  `koanf:"id"`
	InitTime      float64 `koanf:"init_time"`
	StaticRouting bool    `koanf:"static_routing"`
}

// LinkDescriptor is one entry of the descriptor's links list. Rate is
// megabits/sec, Delay is milliseconds, Buffsize is kilobytes (converted to
// bytes, ×1024, at build time).
type LinkDescriptor struct {
	ID       string  `koanf:"id"`
	SourceID string  `koanf:"source_id"`
	TargetID string  `koanf:"target_id"`
	Rate     float64 `koanf:"rate"`
	Delay    float64 `koanf:"delay"`
	Buffsize float64 `koanf:"buffsize"`
}

// RouteDescriptor seeds a static router's routing table; only meaningful
// for routers with StaticRouting set.
type RouteDescriptor struct {
	RouterID string  `koanf:"router_id"`
	DestID   string  `koanf:"dest_id"`
	ViaLink  string  `koanf:"via_link_id"`
	Distance float64 `koanf:"distance"`
}

// FlowDescriptor is one entry of the descriptor's flows list. Bytes of 0
// means a continuous, never-completing flow.
type FlowDescriptor struct {
	Name      string  `koanf:"name"`
	SourceID  string  `koanf:"source_id"`
	DestID    string  `koanf:"dest_id"`
	Bytes     int     `koanf:"bytes"`
	Timestamp float64 `koanf:"timestamp"`
	FlowType  string  `koanf:"flow_type"`
}

// Recognized FlowDescriptor.FlowType values.
const (
	FlowSuperSimple  = "SuperSimpleFlow"
	FlowSuperSimple2 = "SuperSimpleFlow2"
	FlowTCPReno      = "TCPRenoFlow"
	FlowFastTCP      = "FastTCPFlow"
)

// Descriptor is the full network descriptor consumed at bootstrap.
type Descriptor struct {
	Hosts   []HostDescriptor   `koanf:"hosts"`
	Routers []RouterDescriptor `koanf:"routers"`
	Links   []LinkDescriptor   `koanf:"links"`
	Routes  []RouteDescriptor  `koanf:"routes"`
	Flows   []FlowDescriptor   `koanf:"flows"`
}

// RunConfig holds the simulation run parameters and ambient stack
// settings: how long to run, where to serve metrics, how to log.
type RunConfig struct {
	MaxSteps int           `koanf:"max_steps"`
	Metrics  MetricsConfig `koanf:"metrics"`
	Log      LogConfig     `koanf:"log"`
}

// MetricsConfig holds the Prometheus metrics endpoint configuration.
type MetricsConfig struct {
	Addr string `koanf:"addr"`
	Path string `koanf:"path"`
}

// LogConfig holds the logging configuration.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// Config is the complete loaded configuration: the network descriptor
// plus run parameters.
type Config struct {
	Network Descriptor `koanf:"network"`
	Run     RunConfig  `koanf:"run"`
}

// DefaultConfig returns a Config with sensible run-parameter defaults; the
// network descriptor has no meaningful default and must come from the
// loaded file.
func DefaultConfig() *Config {
	return &Config{
		Run: RunConfig{
			MaxSteps: 0,
			Metrics: MetricsConfig{
				Addr: ":9100",
				Path: "/metrics",
			},
			Log: LogConfig{
				Level:  "info",
				Format: "text",
			},
		},
	}
}

// envPrefix is the environment variable prefix for netsim configuration.
// Variables are named NETSIM_<section>_<key>, e.g. NETSIM_RUN_MAX_STEPS.
const envPrefix = "NETSIM_"

// Load reads the descriptor/run configuration from a JSON file at path,
// overlays NETSIM_-prefixed environment variable overrides, and merges on
// top of DefaultConfig(). Missing run fields inherit defaults; the network
// descriptor always comes from the file.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	defaults := DefaultConfig()
	if err := loadDefaults(k, defaults); err != nil {
		return nil, fmt.Errorf("load config defaults: %w", err)
	}

	if err := k.Load(file.Provider(path), json.Parser()); err != nil {
		return nil, fmt.Errorf("load config from %s: %w", path, err)
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKeyMapper), nil); err != nil {
		return nil, fmt.Errorf("load env overrides: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validate config from %s: %w", path, err)
	}

	return cfg, nil
}

// runKeys are the run-parameter keys whose own names contain underscores
// that envKeyMapper must keep.
var runKeys = []string{"run.max_steps", "run.metrics.addr", "run.metrics.path", "run.log.level", "run.log.format"}

// envKeyMapper transforms NETSIM_RUN_MAX_STEPS -> run.max_steps.
func envKeyMapper(s string) string {
	s = strings.TrimPrefix(s, envPrefix)
	s = strings.ToLower(s)
	for _, key := range runKeys {
		if strings.ReplaceAll(key, ".", "_") == s {
			return key
		}
	}
	return strings.ReplaceAll(s, "_", ".")
}

func loadDefaults(k *koanf.Koanf, defaults *Config) error {
	defaultMap := map[string]any{
		"run.max_steps":    defaults.Run.MaxSteps,
		"run.metrics.addr": defaults.Run.Metrics.Addr,
		"run.metrics.path": defaults.Run.Metrics.Path,
		"run.log.level":    defaults.Run.Log.Level,
		"run.log.format":   defaults.Run.Log.Format,
	}
	for key, val := range defaultMap {
		if err := k.Set(key, val); err != nil {
			return fmt.Errorf("set default %s: %w", key, err)
		}
	}
	return nil
}

// Validation errors.
var (
	ErrNoHosts             = errors.New("network must declare at least one host")
	ErrDuplicateID         = errors.New("duplicate node id")
	ErrUnknownEndpoint     = errors.New("link endpoint references an unknown node")
	ErrUnknownFlowEndpoint = errors.New("flow references an unknown host")
	ErrUnknownFlowType     = errors.New("unrecognized flow type")
	ErrNonPositiveRate     = errors.New("link rate must be > 0")
	ErrNonPositiveBuffer   = errors.New("link buffsize must be > 0")
	ErrStaticRouteNoRouter = errors.New("static route references an unknown router")
)

var validFlowTypes = map[string]bool{
	FlowSuperSimple:  true,
	FlowSuperSimple2: true,
	FlowTCPReno:      true,
	FlowFastTCP:      true,
}

// Validate checks the descriptor for structural errors before it's
// handed to Build. Returns the first error encountered.
func Validate(cfg *Config) error {
	d := cfg.Network
	if len(d.Hosts) == 0 {
		return ErrNoHosts
	}

	ids := make(map[string]bool, len(d.Hosts)+len(d.Routers))
	hosts := make(map[string]bool, len(d.Hosts))
	for _, h := range d.Hosts {
		if ids[h.ID] {
			return fmt.Errorf("host %q: %w", h.ID, ErrDuplicateID)
		}
		ids[h.ID] = true
		hosts[h.ID] = true
	}
	routers := make(map[string]bool, len(d.Routers))
	for _, r := range d.Routers {
		if ids[r.ID] {
			return fmt.Errorf("router %q: %w", r.ID, ErrDuplicateID)
		}
		ids[r.ID] = true
		routers[r.ID] = true
	}

	for _, l := range d.Links {
		if !ids[l.SourceID] || !ids[l.TargetID] {
			return fmt.Errorf("link %q: %w", l.ID, ErrUnknownEndpoint)
		}
		if l.Rate <= 0 {
			return fmt.Errorf("link %q: %w", l.ID, ErrNonPositiveRate)
		}
		if l.Buffsize <= 0 {
			return fmt.Errorf("link %q: %w", l.ID, ErrNonPositiveBuffer)
		}
	}

	for _, f := range d.Flows {
		if !hosts[f.SourceID] || !hosts[f.DestID] {
			return fmt.Errorf("flow %q: %w", f.Name, ErrUnknownFlowEndpoint)
		}
		if !validFlowTypes[f.FlowType] {
			return fmt.Errorf("flow %q type %q: %w", f.Name, f.FlowType, ErrUnknownFlowType)
		}
	}

	for _, rt := range d.Routes {
		if !routers[rt.RouterID] {
			return fmt.Errorf("route to %q: %w", rt.DestID, ErrStaticRouteNoRouter)
		}
	}

	return nil
}

// ParseLogLevel maps a configuration log level string to the
// corresponding slog.Level. Unknown values default to slog.LevelInfo.
func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
