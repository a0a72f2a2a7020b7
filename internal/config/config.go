package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/franklstreet-svg/twickell/internal/logger"
	"github.com/franklstreet-svg/twickell/internal/service"
)

// Config is the top-level TOML structure.
//
// Example:
//
//	root = "/srv/twickell"
//	listen = "127.0.0.1:9615"
//	history_dsn = "sqlite:///srv/twickell/run/history.db"
//	env = ["PYTHONUNBUFFERED=1"]
//
//	[log]
//	dir = "/srv/twickell/logs"
//
//	[[services]]
//	name = "api"
//	command = "uvicorn app.app:app --host 127.0.0.1 --port 8100"
//	pattern = "uvicorn app.app"
//	port = 8100
//	health_url = "http://127.0.0.1:8100/health"
//
//	[[services]]
//	name = "worker"
//	command = "python3 workers/queue_worker.py"
//	pattern = "queue_worker.py"
type Config struct {
	Root       string          `toml:"root" mapstructure:"root"`
	Listen     string          `toml:"listen" mapstructure:"listen"`
	HistoryDSN string          `toml:"history_dsn" mapstructure:"history_dsn"`
	Env        []string        `toml:"env" mapstructure:"env"`
	EnvFiles   []string        `toml:"env_files" mapstructure:"env_files"`
	Log        logger.Config   `toml:"log" mapstructure:"log"`
	Services   []ServiceConfig `toml:"services" mapstructure:"services"`
}

// ServiceConfig is one [[services]] entry.
type ServiceConfig struct {
	Name         string        `toml:"name" mapstructure:"name"`
	Command      string        `toml:"command" mapstructure:"command"`
	WorkDir      string        `toml:"workdir" mapstructure:"workdir"`
	Env          []string      `toml:"env" mapstructure:"env"`
	LogPath      string        `toml:"log_path" mapstructure:"log_path"`
	Pattern      string        `toml:"pattern" mapstructure:"pattern"`
	Port         int           `toml:"port" mapstructure:"port"`
	HealthURL    string        `toml:"health_url" mapstructure:"health_url"`
	StartTimeout time.Duration `toml:"start_timeout" mapstructure:"start_timeout"`
	StopTimeout  time.Duration `toml:"stop_timeout" mapstructure:"stop_timeout"`
	ProbeTimeout time.Duration `toml:"probe_timeout" mapstructure:"probe_timeout"`
}

const DefaultListen = "127.0.0.1:9615"

// Load reads and validates a TOML config file.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, err
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	if c.Listen == "" {
		c.Listen = DefaultListen
	}
	return &c, nil
}

func (c *Config) validate() error {
	if c.Root == "" {
		return fmt.Errorf("root is required")
	}
	if len(c.Services) == 0 {
		return fmt.Errorf("at least one [[services]] entry is required")
	}
	seen := make(map[string]bool)
	for _, sc := range c.Services {
		if sc.Name == "" {
			return fmt.Errorf("service name is required")
		}
		if !isSafeName(sc.Name) {
			return fmt.Errorf("invalid service name %q: allowed [A-Za-z0-9._-]", sc.Name)
		}
		if seen[sc.Name] {
			return fmt.Errorf("duplicate service name %q", sc.Name)
		}
		seen[sc.Name] = true
		if sc.Command == "" {
			return fmt.Errorf("service %s: command is required", sc.Name)
		}
	}
	return nil
}

// Specs expands the service entries into fully-defaulted specs: relative
// working directories resolve under root, lock files live in root/run,
// and logs default to root/logs/<name>.log. Global env (top-level env
// plus env_files contents) is prepended to each service's own env.
func (c *Config) Specs() ([]service.Spec, error) {
	global, err := c.globalEnv()
	if err != nil {
		return nil, err
	}
	specs := make([]service.Spec, 0, len(c.Services))
	for _, sc := range c.Services {
		workDir := sc.WorkDir
		switch {
		case workDir == "":
			workDir = c.Root
		case !filepath.IsAbs(workDir):
			workDir = filepath.Join(c.Root, workDir)
		}
		logPath := sc.LogPath
		switch {
		case logPath == "":
			logPath = filepath.Join(c.Root, "logs", sc.Name+".log")
		case !filepath.IsAbs(logPath):
			logPath = filepath.Join(c.Root, logPath)
		}
		env := make([]string, 0, len(global)+len(sc.Env))
		env = append(env, global...)
		env = append(env, sc.Env...)
		specs = append(specs, service.Spec{
			Name:         sc.Name,
			Command:      sc.Command,
			WorkDir:      workDir,
			Env:          env,
			LogPath:      logPath,
			RunDir:       filepath.Join(c.Root, "run"),
			Pattern:      sc.Pattern,
			Port:         sc.Port,
			HealthURL:    sc.HealthURL,
			StartTimeout: sc.StartTimeout,
			StopTimeout:  sc.StopTimeout,
			ProbeTimeout: sc.ProbeTimeout,
		})
	}
	return specs, nil
}

// FindSpec returns the spec named name, or an error listing the known names.
func (c *Config) FindSpec(name string) (service.Spec, error) {
	specs, err := c.Specs()
	if err != nil {
		return service.Spec{}, err
	}
	known := make([]string, 0, len(specs))
	for _, sp := range specs {
		if sp.Name == name {
			return sp, nil
		}
		known = append(known, sp.Name)
	}
	return service.Spec{}, fmt.Errorf("unknown service %q (known: %s)", name, strings.Join(known, ", "))
}

func (c *Config) globalEnv() ([]string, error) {
	out := make([]string, 0, len(c.Env))
	for _, p := range c.EnvFiles {
		pairs, err := loadEnvFile(p)
		if err != nil {
			return nil, err
		}
		out = append(out, pairs...)
	}
	out = append(out, c.Env...)
	return out, nil
}

// loadEnvFile parses KEY=VALUE lines; blank lines and # comments are skipped.
func loadEnvFile(path string) ([]string, error) {
	// #nosec G304
	b, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	var out []string
	for _, line := range strings.Split(string(b), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if i := strings.IndexByte(line, '='); i > 0 {
			out = append(out, strings.TrimSpace(line[:i])+"="+strings.TrimSpace(line[i+1:]))
		}
	}
	return out, nil
}

func isSafeName(name string) bool {
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '.', r == '_', r == '-':
		default:
			return false
		}
	}
	return name != "" && !strings.Contains(name, "..")
}
