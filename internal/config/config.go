package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/gosimple/slug"
	"gopkg.in/yaml.v3"

	"github.com/derekprior/pooldraw/internal/balance"
	"github.com/derekprior/pooldraw/internal/draw"
)

// SeedEnv overrides the configured seed when set.
const SeedEnv = "POOLDRAW_SEED"

// PlayerEntry is a player listed under a pool. In YAML it is either a bare
// name or a mapping with name and an optional id.
type PlayerEntry struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

func (p *PlayerEntry) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		p.Name = value.Value
		return nil
	case yaml.MappingNode:
		type plain PlayerEntry
		var v plain
		if err := value.Decode(&v); err != nil {
			return err
		}
		*p = PlayerEntry(v)
		return nil
	default:
		return fmt.Errorf("line %d: player must be a name or a mapping with name and id", value.Line)
	}
}

type Pool struct {
	Name    string        `yaml:"name"`
	Players []PlayerEntry `yaml:"players"`
}

type Balance struct {
	Strategies []string `yaml:"strategies"`
}

type Config struct {
	Tournament       string        `yaml:"tournament"`
	MatchesPerPlayer int           `yaml:"matches_per_player"`
	Seed             *int64        `yaml:"seed"`
	AllowOverQuota   bool          `yaml:"allow_over_quota"`
	Pools            []Pool        `yaml:"pools"`
	Unassigned       []PlayerEntry `yaml:"unassigned"`
	Balance          Balance       `yaml:"balance"`
}

// Players returns every player, pool by pool, followed by unassigned players.
func (c *Config) Players() []draw.Player {
	var players []draw.Player
	for _, pool := range c.Pools {
		for _, e := range pool.Players {
			players = append(players, draw.Player{ID: e.ID, Name: e.Name, Pool: pool.Name})
		}
	}
	for _, e := range c.Unassigned {
		players = append(players, draw.Player{ID: e.ID, Name: e.Name})
	}
	return players
}

// LoadFromBytes parses YAML bytes into a Config and validates it.
func LoadFromBytes(data []byte) (*Config, error) {
	cfg := Config{MatchesPerPlayer: draw.DefaultMatchesPerPlayer}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.assignIDs()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFromFile reads and parses a YAML config file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return LoadFromBytes(data)
}

// ApplyEnv applies environment overrides.
func (c *Config) ApplyEnv() error {
	v := os.Getenv(SeedEnv)
	if v == "" {
		return nil
	}
	seed, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", SeedEnv, v, err)
	}
	c.Seed = &seed
	return nil
}

// assignIDs gives players without an explicit id one derived from their name.
func (c *Config) assignIDs() {
	for i := range c.Pools {
		for j := range c.Pools[i].Players {
			e := &c.Pools[i].Players[j]
			if e.ID == "" {
				e.ID = slug.Make(e.Name)
			}
		}
	}
	for i := range c.Unassigned {
		if c.Unassigned[i].ID == "" {
			c.Unassigned[i].ID = slug.Make(c.Unassigned[i].Name)
		}
	}
}

func (c *Config) validate() error {
	if c.MatchesPerPlayer < 1 {
		return fmt.Errorf("matches_per_player must be at least 1, got %d", c.MatchesPerPlayer)
	}

	if len(c.Pools) == 0 && len(c.Unassigned) == 0 {
		return fmt.Errorf("at least one pool or unassigned player is required")
	}

	pools := make(map[string]bool)
	for _, pool := range c.Pools {
		if pool.Name == "" {
			return fmt.Errorf("every pool needs a name")
		}
		if pools[pool.Name] {
			return fmt.Errorf("pool %q is listed twice", pool.Name)
		}
		pools[pool.Name] = true
		if len(pool.Players) < 2 {
			return fmt.Errorf("pool %q needs at least two players", pool.Name)
		}
	}

	// Check for duplicate player ids
	seen := make(map[string]string)
	for _, p := range c.Players() {
		where := p.Pool
		if where == "" {
			where = "unassigned"
		}
		if p.Name == "" {
			return fmt.Errorf("%s: player without a name", where)
		}
		if p.ID == "" {
			return fmt.Errorf("%s: player %q needs an explicit id", where, p.Name)
		}
		if prev, ok := seen[p.ID]; ok {
			return fmt.Errorf("player id %q appears in both %q and %q", p.ID, prev, where)
		}
		seen[p.ID] = where
	}

	for _, name := range c.Balance.Strategies {
		if _, err := balance.Get(name); err != nil {
			return err
		}
	}

	return nil
}
