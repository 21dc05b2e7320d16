package telemetry

import (
	"fmt"
	"os"
	"runtime"
	"sync"

	"github.com/grafana/pyroscope-go"
	"go.uber.org/zap"
)

// DefaultProfiles are collected when ProfilerConfig.Profiles is empty
var DefaultProfiles = []string{"cpu", "alloc_space", "inuse_space", "goroutines"}

var profileKinds = map[string][]pyroscope.ProfileType{
	"cpu":           {pyroscope.ProfileCPU},
	"alloc_space":   {pyroscope.ProfileAllocSpace},
	"alloc_objects": {pyroscope.ProfileAllocObjects},
	"inuse_space":   {pyroscope.ProfileInuseSpace},
	"inuse_objects": {pyroscope.ProfileInuseObjects},
	"goroutines":    {pyroscope.ProfileGoroutines},
	"mutex":         {pyroscope.ProfileMutexCount, pyroscope.ProfileMutexDuration},
	"block":         {pyroscope.ProfileBlockCount, pyroscope.ProfileBlockDuration},
}

// ProfilerConfig configures Pyroscope continuous profiling
type ProfilerConfig struct {
	Enabled         bool
	ServerAddress   string // e.g. "http://pyroscope:4040"
	ApplicationName string
	// Profiles names the profile kinds to collect (see DefaultProfiles)
	Profiles []string
	// Tags are attached to every profile next to the host name
	Tags map[string]string
}

// Profiler owns a running Pyroscope session. The zero session is a no-op.
type Profiler struct {
	session  *pyroscope.Profiler
	logger   *zap.Logger
	stopOnce sync.Once
	stopErr  error
}

// NewProfiler starts a Pyroscope session, or returns a no-op profiler when
// profiling is disabled
func NewProfiler(cfg ProfilerConfig, logger *zap.Logger) (*Profiler, error) {
	p := &Profiler{logger: logger}
	if !cfg.Enabled {
		logger.Info("Continuous profiling disabled")
		return p, nil
	}
	if cfg.ServerAddress == "" || cfg.ApplicationName == "" {
		return nil, fmt.Errorf("profiling needs both a server address and an application name")
	}

	names := cfg.Profiles
	if len(names) == 0 {
		names = DefaultProfiles
	}
	var types []pyroscope.ProfileType
	for _, name := range names {
		kinds, ok := profileKinds[name]
		if !ok {
			return nil, fmt.Errorf("unknown profile kind %q", name)
		}
		types = append(types, kinds...)
		switch name {
		case "mutex":
			runtime.SetMutexProfileFraction(5)
		case "block":
			runtime.SetBlockProfileRate(5)
		}
	}

	tags := make(map[string]string, len(cfg.Tags)+1)
	for k, v := range cfg.Tags {
		tags[k] = v
	}
	if host, err := os.Hostname(); err == nil {
		tags["hostname"] = host
	}

	session, err := pyroscope.Start(pyroscope.Config{
		ApplicationName: cfg.ApplicationName,
		ServerAddress:   cfg.ServerAddress,
		Logger:          logger.Named("pyroscope").Sugar(),
		Tags:            tags,
		ProfileTypes:    types,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start Pyroscope profiler: %w", err)
	}
	p.session = session

	logger.Info("Pyroscope profiler started",
		zap.String("server_address", cfg.ServerAddress),
		zap.Strings("profiles", names),
	)
	return p, nil
}

// Stop flushes pending profiles. Later calls return the first result.
func (p *Profiler) Stop() error {
	p.stopOnce.Do(func() {
		if p.session == nil {
			return
		}
		if err := p.session.Stop(); err != nil {
			p.stopErr = fmt.Errorf("failed to stop profiler: %w", err)
			return
		}
		p.logger.Info("Pyroscope profiler stopped")
	})
	return p.stopErr
}

// IsEnabled reports whether a session is running
func (p *Profiler) IsEnabled() bool {
	return p.session != nil
}
