package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/timothychou/netsim/internal/config"
)

func validDescriptor() config.Descriptor {
	return config.Descriptor{
		Hosts: []config.HostDescriptor{{ID: "a"}, {ID: "b"}},
		Links: []config.LinkDescriptor{
			{ID: "L1", SourceID: "a", TargetID: "b", Rate: 10, Delay: 5, Buffsize: 64},
		},
		Flows: []config.FlowDescriptor{
			{Name: "f1", SourceID: "a", DestID: "b", Bytes: 1024, FlowType: config.FlowSuperSimple},
		},
	}
}

func TestValidateAcceptsWellFormedDescriptor(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{Network: validDescriptor()}
	if err := config.Validate(cfg); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidateRejectsNoHosts(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{}
	if err := config.Validate(cfg); !errors.Is(err, config.ErrNoHosts) {
		t.Errorf("Validate() = %v, want %v", err, config.ErrNoHosts)
	}
}

func TestValidateRejectsDuplicateID(t *testing.T) {
	t.Parallel()

	d := validDescriptor()
	d.Routers = append(d.Routers, config.RouterDescriptor{ID: "a"})
	cfg := &config.Config{Network: d}
	if err := config.Validate(cfg); !errors.Is(err, config.ErrDuplicateID) {
		t.Errorf("Validate() = %v, want %v", err, config.ErrDuplicateID)
	}
}

func TestValidateRejectsUnknownLinkEndpoint(t *testing.T) {
	t.Parallel()

	d := validDescriptor()
	d.Links[0].TargetID = "ghost"
	cfg := &config.Config{Network: d}
	if err := config.Validate(cfg); !errors.Is(err, config.ErrUnknownEndpoint) {
		t.Errorf("Validate() = %v, want %v", err, config.ErrUnknownEndpoint)
	}
}

func TestValidateRejectsNonPositiveRate(t *testing.T) {
	t.Parallel()

	d := validDescriptor()
	d.Links[0].Rate = 0
	cfg := &config.Config{Network: d}
	if err := config.Validate(cfg); !errors.Is(err, config.ErrNonPositiveRate) {
		t.Errorf("Validate() = %v, want %v", err, config.ErrNonPositiveRate)
	}
}

func TestValidateRejectsUnknownFlowType(t *testing.T) {
	t.Parallel()

	d := validDescriptor()
	d.Flows[0].FlowType = "NotARealFlow"
	cfg := &config.Config{Network: d}
	if err := config.Validate(cfg); !errors.Is(err, config.ErrUnknownFlowType) {
		t.Errorf("Validate() = %v, want %v", err, config.ErrUnknownFlowType)
	}
}

func TestValidateRejectsStaticRouteWithUnknownRouter(t *testing.T) {
	t.Parallel()

	d := validDescriptor()
	d.Routes = append(d.Routes, config.RouteDescriptor{RouterID: "ghost", DestID: "b", ViaLink: "L1", Distance: 1})
	cfg := &config.Config{Network: d}
	if err := config.Validate(cfg); !errors.Is(err, config.ErrStaticRouteNoRouter) {
		t.Errorf("Validate() = %v, want %v", err, config.ErrStaticRouteNoRouter)
	}
}

func TestLoadMergesDefaultsAndFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "network.json")
	body := `{
		"network": {
			"hosts": [{"id": "a"}, {"id": "b"}],
			"links": [{"id": "L1", "source_id": "a", "target_id": "b", "rate": 10, "delay": 5, "buffsize": 64}],
			"flows": [{"name": "f1", "source_id": "a", "dest_id": "b", "bytes": 1024, "flow_type": "SuperSimpleFlow"}]
		},
		"run": { "max_steps": 500 }
	}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write descriptor: %v", err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Run.MaxSteps != 500 {
		t.Errorf("MaxSteps = %d, want 500 (from file)", cfg.Run.MaxSteps)
	}
	if cfg.Run.Metrics.Addr != ":9100" {
		t.Errorf("Metrics.Addr = %q, want default %q (not set in file)", cfg.Run.Metrics.Addr, ":9100")
	}
	if len(cfg.Network.Hosts) != 2 {
		t.Errorf("Hosts = %d, want 2", len(cfg.Network.Hosts))
	}
}

func TestLoadRejectsInvalidDescriptor(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "network.json")
	if err := os.WriteFile(path, []byte(`{"network": {}}`), 0o644); err != nil {
		t.Fatalf("write descriptor: %v", err)
	}

	if _, err := config.Load(path); !errors.Is(err, config.ErrNoHosts) {
		t.Errorf("Load() err = %v, want wrapping %v", err, config.ErrNoHosts)
	}
}

func TestParseLogLevel(t *testing.T) {
	t.Parallel()

	cases := map[string]bool{"debug": true, "info": true, "warn": true, "error": true, "bogus": true}
	for level := range cases {
		_ = config.ParseLogLevel(level) // every input must resolve, never panic
	}
}
