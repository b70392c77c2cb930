// Package registry loads the suite configuration file and materializes the
// runnable test suites it declares.
package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"gopkg.in/yaml.v3"

	"github.com/ethereum-optimism/infra/suite-runner/types"
)

// Registry manages suite sources and their configurations
type Registry struct {
	config Config
	suites []types.Suite
	mu     sync.RWMutex
}

// Config contains registry configuration
type Config struct {
	Log             log.Logger
	SuiteConfigFile string
	// DefaultTimeout applies to suites that do not declare their own.
	// Zero means no timeout.
	DefaultTimeout time.Duration
	// GoBinary runs gotest suites. Defaults to "go".
	GoBinary string
}

// NewRegistry creates a new registry instance and loads the suite config.
func NewRegistry(cfg Config) (*Registry, error) {
	if cfg.SuiteConfigFile == "" {
		return nil, fmt.Errorf("suite config file is required")
	}
	if cfg.Log == nil {
		cfg.Log = log.New()
		cfg.Log.Error("No logger provided, using default")
	}
	if cfg.GoBinary == "" {
		cfg.GoBinary = "go"
	}

	r := &Registry{
		config: cfg,
	}
	if err := r.loadSuites(cfg.SuiteConfigFile); err != nil {
		return nil, fmt.Errorf("failed to load suites: %w", err)
	}

	cfg.Log.Debug("Registry loaded", "len(suites)", len(r.suites))

	return r, nil
}

// loadSuites loads the suite config file and materializes its suites.
func (r *Registry) loadSuites(cfgPath string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	registryConfig, err := loadConfig(cfgPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := validateDefinitions(registryConfig.Suites); err != nil {
		return err
	}

	// Relative workdirs are resolved against the config file's directory,
	// so a checked-in config keeps working regardless of the process cwd.
	configDir := filepath.Dir(cfgPath)

	suites := make([]types.Suite, 0, len(registryConfig.Suites))
	for _, def := range registryConfig.Suites {
		suite, err := r.materializeSuite(def, configDir)
		if err != nil {
			return fmt.Errorf("suite %s: %w", def.Name, err)
		}
		suites = append(suites, suite)
	}
	r.suites = suites

	return nil
}

func validateDefinitions(defs []types.SuiteDefinition) error {
	if len(defs) == 0 {
		return fmt.Errorf("config declares no suites")
	}
	seen := make(map[string]bool, len(defs))
	for _, def := range defs {
		if err := def.Check(); err != nil {
			return fmt.Errorf("suite %s: %w", def.Name, err)
		}
		if seen[def.Name] {
			return fmt.Errorf("duplicate suite name %s", def.Name)
		}
		seen[def.Name] = true
	}
	return nil
}

func (r *Registry) materializeSuite(def types.SuiteDefinition, configDir string) (types.Suite, error) {
	timeout := r.config.DefaultTimeout
	if def.Timeout != nil {
		timeout = *def.Timeout
	}

	workDir := def.WorkDir
	if workDir != "" && !filepath.IsAbs(workDir) {
		workDir = filepath.Join(configDir, workDir)
	}

	switch def.Kind {
	case types.SuiteKindCommand:
		return newCommandSuite(commandSuiteConfig{
			Log:     r.config.Log,
			Name:    def.Name,
			Argv:    def.Run,
			WorkDir: workDir,
			Timeout: timeout,
			Cases:   def.Cases,
		})
	case types.SuiteKindGoTest:
		cases := def.Cases
		if len(cases) == 0 {
			discovered, err := findTestFunctions(def.Package, workDir)
			if err != nil {
				return nil, fmt.Errorf("failed to discover test functions: %w", err)
			}
			if len(discovered) == 0 {
				return nil, fmt.Errorf("no test functions found in package %s", def.Package)
			}
			cases = discovered
		}
		return newGoTestSuite(goTestSuiteConfig{
			Log:      r.config.Log,
			Name:     def.Name,
			Package:  def.Package,
			WorkDir:  workDir,
			GoBinary: r.config.GoBinary,
			Timeout:  timeout,
			Cases:    cases,
		})
	default:
		return nil, fmt.Errorf("unknown suite kind %q", def.Kind)
	}
}

// GetSuites returns all materialized suites in config order.
func (r *Registry) GetSuites() []types.Suite {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.suites
}

// GetConfig returns the registry configuration
func (r *Registry) GetConfig() Config {
	return r.config
}

// loadConfig loads a suite config from a file
func loadConfig(path string) (*types.RegistryConfig, error) {
	log.Debug("Reading suite config file", "path", path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg types.RegistryConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	return &cfg, nil
}
