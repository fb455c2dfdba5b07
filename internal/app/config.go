package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/fulfillment/internal/export"
)

// Config holds the complete application configuration, loadable from
// environment variables (FULFILL_ prefix), flags, or YAML config files.
type Config struct {
	ProductsFile     string `default:"data/in/Products.csv" usage:"Product catalog CSV (.gz accepted)" flag:"products"`
	TransactionsFile string `default:"data/in/Transactions.csv" usage:"Transaction feed CSV (.gz accepted)" flag:"transactions"`
	StockFile        string `default:"" usage:"Stock catalog JSON; the built-in table is used when empty" flag:"stock"`
	Output           string `default:"data/out/output.csv" usage:"Result file, - for stdout; .gz compresses" flag:"output"`
	Format           string `default:"" usage:"Output format: csv or json (taken from the output extension when empty)" flag:"format"`
	DatabaseURL      string `default:"" usage:"PostgreSQL connection URL; results are also stored there when set (FULFILL_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	Workers          int    `default:"1" usage:"Orders processed concurrently" flag:"workers"`
	Insurance        InsuranceConfig
	Simulation       SimulationConfig
}

// InsuranceConfig controls the simulated insurer and the workflow's use of it.
type InsuranceConfig struct {
	Threshold     string        `default:"100000" usage:"Orders above this value require insurance"`
	FailureRate   float64       `default:"0.1" usage:"Probability that a single insurance call is denied"`
	Latency       time.Duration `default:"1s" usage:"Simulated insurer round trip"`
	Timeout       time.Duration `default:"5s" usage:"Per-attempt insurance deadline"`
	Retries       uint          `default:"0" usage:"Extra insurance attempts after a failure"`
	RetryInterval time.Duration `default:"200ms" usage:"Initial delay between insurance attempts"`
}

// SimulationConfig controls the high-value boost applied to the built orders.
type SimulationConfig struct {
	BoostEvery  int    `default:"4" usage:"Boost the value of every Nth order, 0 disables"`
	BoostFactor string `default:"2.5" usage:"Multiplier applied to boosted orders"`
}

// LoadConfig loads configuration from environment variables, flags and YAML
// config files, then validates it.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "FULFILL",
		Files:     []string{"fulfill.yaml", "/etc/fulfill/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values the loader cannot check on its own.
func (c *Config) Validate() error {
	if c.ProductsFile == "" {
		return errors.New("products file is required")
	}
	if c.TransactionsFile == "" {
		return errors.New("transactions file is required")
	}
	if c.Workers < 1 {
		return errors.Errorf("workers must be positive, got %d", c.Workers)
	}
	if _, err := export.ParseFormat(c.Format, c.Output); err != nil {
		return err
	}
	if _, err := c.Insurance.threshold(); err != nil {
		return err
	}
	if _, err := c.Simulation.factor(); err != nil {
		return err
	}
	if c.Insurance.FailureRate < 0 || c.Insurance.FailureRate > 1 {
		return errors.Errorf("insurance failure rate %v out of range [0, 1]", c.Insurance.FailureRate)
	}
	if c.Insurance.Timeout <= 0 {
		return errors.Errorf("insurance timeout must be positive, got %s", c.Insurance.Timeout)
	}
	return nil
}

func (c InsuranceConfig) threshold() (decimal.Decimal, error) {
	v, err := decimal.NewFromString(c.Threshold)
	if err != nil {
		return decimal.Decimal{}, errors.Wrapf(err, "insurance threshold %q", c.Threshold)
	}
	if v.IsNegative() {
		return decimal.Decimal{}, errors.Errorf("negative insurance threshold %s", v)
	}
	return v, nil
}

func (c SimulationConfig) factor() (decimal.Decimal, error) {
	v, err := decimal.NewFromString(c.BoostFactor)
	if err != nil {
		return decimal.Decimal{}, errors.Wrapf(err, "boost factor %q", c.BoostFactor)
	}
	return v, nil
}

// applyPlatformDefaults maps the conventional DATABASE_URL variable to the
// FULFILL_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.DatabaseURL = v
		}
	}
}
