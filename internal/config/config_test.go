package config

import (
	"testing"
)

const testConfigYAML = `
tournament: Spring Open
matches_per_player: 4
seed: 42

pools:
  - name: A
    players:
      - Ann Lee
      - Bob Marsh
      - name: Chris Ito
        id: cito
      - Dana Kray
      - Eli Moss
  - name: B
    players: [Fay Orr, Gus Pike, Hal Quinn]

unassigned:
  - Ida Ruiz
  - Jon Sato

balance:
  strategies: [single_swap, force_balance]
`

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadFromBytes([]byte(testConfigYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	t.Run("settings", func(t *testing.T) {
		if cfg.Tournament != "Spring Open" {
			t.Errorf("tournament = %q, want %q", cfg.Tournament, "Spring Open")
		}
		if cfg.MatchesPerPlayer != 4 {
			t.Errorf("matches per player = %d, want 4", cfg.MatchesPerPlayer)
		}
		if cfg.Seed == nil || *cfg.Seed != 42 {
			t.Errorf("seed = %v, want 42", cfg.Seed)
		}
		if cfg.AllowOverQuota {
			t.Error("allow_over_quota should default to false")
		}
	})

	t.Run("pools", func(t *testing.T) {
		if len(cfg.Pools) != 2 {
			t.Fatalf("pools = %d, want 2", len(cfg.Pools))
		}
		if len(cfg.Pools[0].Players) != 5 {
			t.Errorf("pool A players = %d, want 5", len(cfg.Pools[0].Players))
		}
		if len(cfg.Unassigned) != 2 {
			t.Errorf("unassigned = %d, want 2", len(cfg.Unassigned))
		}
	})

	t.Run("player ids", func(t *testing.T) {
		a := cfg.Pools[0].Players
		if a[0].ID != "ann-lee" {
			t.Errorf("id = %q, want %q", a[0].ID, "ann-lee")
		}
		if a[2].ID != "cito" || a[2].Name != "Chris Ito" {
			t.Errorf("player = %+v, want cito/Chris Ito", a[2])
		}
	})

	t.Run("strategies", func(t *testing.T) {
		s := cfg.Balance.Strategies
		if len(s) != 2 || s[0] != "single_swap" || s[1] != "force_balance" {
			t.Errorf("strategies = %v, want [single_swap force_balance]", s)
		}
	})
}

func TestPlayers(t *testing.T) {
	cfg, err := LoadFromBytes([]byte(testConfigYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	players := cfg.Players()
	if len(players) != 10 {
		t.Fatalf("Players() = %d players, want 10", len(players))
	}
	if players[5].Pool != "B" || players[5].ID != "fay-orr" {
		t.Errorf("players[5] = %+v, want fay-orr in B", players[5])
	}
	if last := players[9]; last.Pool != "" || last.Name != "Jon Sato" {
		t.Errorf("players[9] = %+v, want unassigned Jon Sato", last)
	}
}

func TestDefaults(t *testing.T) {
	cfg, err := LoadFromBytes([]byte(`
pools:
  - name: A
    players: [One, Two, Three]
`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.MatchesPerPlayer != 6 {
		t.Errorf("matches per player = %d, want 6", cfg.MatchesPerPlayer)
	}
	if cfg.Seed != nil {
		t.Errorf("seed = %d, want unset", *cfg.Seed)
	}
}

func TestLoadConfigValidation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"zero matches", `
matches_per_player: 0
pools:
  - name: A
    players: [One, Two]
`},
		{"no players", `
matches_per_player: 2
`},
		{"unnamed pool", `
pools:
  - players: [One, Two]
`},
		{"duplicate pool", `
pools:
  - name: A
    players: [One, Two]
  - name: A
    players: [Three, Four]
`},
		{"pool of one", `
pools:
  - name: A
    players: [One]
`},
		{"duplicate player", `
pools:
  - name: A
    players: [Ann Lee, Bob]
  - name: B
    players: [ann lee, Cal]
`},
		{"duplicate explicit id", `
pools:
  - name: A
    players:
      - {name: Ann, id: x}
      - {name: Bob, id: x}
`},
		{"unknown strategy", `
pools:
  - name: A
    players: [One, Two]
balance:
  strategies: [coin_toss]
`},
		{"player as list", `
pools:
  - name: A
    players:
      - [One, Two]
`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadFromBytes([]byte(tt.yaml)); err == nil {
				t.Errorf("expected error for %s", tt.name)
			}
		})
	}
}

func TestApplyEnv(t *testing.T) {
	cfg, err := LoadFromBytes([]byte(testConfigYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	t.Setenv(SeedEnv, "7")
	if err := cfg.ApplyEnv(); err != nil {
		t.Fatalf("ApplyEnv() error: %v", err)
	}
	if *cfg.Seed != 7 {
		t.Errorf("seed = %d, want 7", *cfg.Seed)
	}

	t.Setenv(SeedEnv, "soon")
	if err := cfg.ApplyEnv(); err == nil {
		t.Error("expected error for non-numeric seed")
	}
}
