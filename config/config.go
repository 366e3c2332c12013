package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Modos de operación del agente. En modos no-live la ejecución nunca toca
// el exchange: sintetiza BetRecords localmente.
const (
	ModeTest       = "test"
	ModeSimulation = "simulation"
	ModeLive       = "live"
)

// Config es la configuración completa del agente.
type Config struct {
	Agent   AgentConfig   `yaml:"agent"`
	Betting BettingConfig `yaml:"betting"`
	Risk    RiskConfig    `yaml:"risk"`
	API     APIConfig     `yaml:"api"`
	Storage StorageConfig `yaml:"storage"`
	Log     LogConfig     `yaml:"log"`
}

// AgentConfig controla el ciclo del agente.
type AgentConfig struct {
	Mode                    string `yaml:"mode"` // test | simulation | live
	LoopIntervalSeconds     int    `yaml:"loop_interval_seconds"`
	ResearchIntervalSeconds int    `yaml:"research_interval_seconds"`
	PhaseTimeoutSeconds     int    `yaml:"phase_timeout_seconds"`
}

// BettingConfig contiene los parámetros de sizing.
type BettingConfig struct {
	Bankroll         float64 `yaml:"bankroll"`
	MinBet           float64 `yaml:"min_bet"`
	MaxBet           float64 `yaml:"max_bet"`
	MinEdgeThreshold float64 `yaml:"min_edge_threshold"`
	MaxKellyFraction float64 `yaml:"max_kelly_fraction"` // fracción parcial de Kelly
}

// RiskConfig contiene los límites duros diarios.
type RiskConfig struct {
	DailyLossLimit float64 `yaml:"daily_loss_limit"`
	DailyBetLimit  int     `yaml:"daily_bet_limit"`
}

// APIConfig contiene los base URLs de los colaboradores externos.
// Las API keys vienen solo del entorno, nunca del YAML.
type APIConfig struct {
	FeedBase     string `yaml:"feed_base"`
	ModelBase    string `yaml:"model_base"`
	ExchangeBase string `yaml:"exchange_base"`

	ModelAPIKey    string `yaml:"-"`
	ExchangeAPIKey string `yaml:"-"`
}

// StorageConfig controla dónde se persisten los datos.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // ruta al archivo SQLite, o ":memory:"
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el archivo .env si
// existe. Las variables de entorno sobreescriben el YAML.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}

// LoopInterval devuelve el intervalo del reconciler como time.Duration.
func (c *Config) LoopInterval() time.Duration {
	return time.Duration(c.Agent.LoopIntervalSeconds) * time.Second
}

// ResearchInterval devuelve el intervalo entre ciclos como time.Duration.
func (c *Config) ResearchInterval() time.Duration {
	return time.Duration(c.Agent.ResearchIntervalSeconds) * time.Second
}

// PhaseTimeout devuelve el timeout por fase como time.Duration.
func (c *Config) PhaseTimeout() time.Duration {
	return time.Duration(c.Agent.PhaseTimeoutSeconds) * time.Second
}

// IsLive devuelve true si el agente opera contra el exchange real.
func (c *Config) IsLive() bool {
	return c.Agent.Mode == ModeLive
}

// applyEnvOverrides sobreescribe valores con variables de entorno.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("BETBOT_MODE"); v != "" {
		cfg.Agent.Mode = v
	}
	if v := os.Getenv("MODEL_API_KEY"); v != "" {
		cfg.API.ModelAPIKey = v
	}
	if v := os.Getenv("EXCHANGE_API_KEY"); v != "" {
		cfg.API.ExchangeAPIKey = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	if cfg.Agent.Mode == "" {
		cfg.Agent.Mode = ModeTest
	}
	if cfg.Agent.LoopIntervalSeconds <= 0 {
		cfg.Agent.LoopIntervalSeconds = 60
	}
	if cfg.Agent.ResearchIntervalSeconds <= 0 {
		cfg.Agent.ResearchIntervalSeconds = 3600
	}
	if cfg.Agent.PhaseTimeoutSeconds <= 0 {
		cfg.Agent.PhaseTimeoutSeconds = 120
	}
	if cfg.Betting.Bankroll <= 0 {
		cfg.Betting.Bankroll = 1000
	}
	if cfg.Betting.MinBet <= 0 {
		cfg.Betting.MinBet = 10
	}
	if cfg.Betting.MaxBet <= 0 {
		cfg.Betting.MaxBet = 100
	}
	if cfg.Betting.MinEdgeThreshold <= 0 {
		cfg.Betting.MinEdgeThreshold = 0.05
	}
	if cfg.Betting.MaxKellyFraction <= 0 {
		cfg.Betting.MaxKellyFraction = 0.25
	}
	if cfg.Risk.DailyLossLimit <= 0 {
		cfg.Risk.DailyLossLimit = 100
	}
	if cfg.Risk.DailyBetLimit <= 0 {
		cfg.Risk.DailyBetLimit = 5
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "betbot.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}

// validate rechaza combinaciones que no tienen interpretación segura.
func (c *Config) validate() error {
	switch c.Agent.Mode {
	case ModeTest, ModeSimulation, ModeLive:
	default:
		return fmt.Errorf("unknown mode %q", c.Agent.Mode)
	}
	if c.Betting.MinBet > c.Betting.MaxBet {
		return fmt.Errorf("min_bet %.2f > max_bet %.2f", c.Betting.MinBet, c.Betting.MaxBet)
	}
	if c.Betting.MaxKellyFraction > 1 {
		return fmt.Errorf("max_kelly_fraction %.2f > 1", c.Betting.MaxKellyFraction)
	}
	if c.IsLive() && c.API.ExchangeAPIKey == "" {
		return fmt.Errorf("live mode requires EXCHANGE_API_KEY")
	}
	return nil
}
