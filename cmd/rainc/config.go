// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

package main

import (
	"os"

	"github.com/naoina/toml"

	"github.com/rouzwelt/rainlang/compiler"
)

// fileConfig is the optional TOML configuration file accepted via
// `rainc -config file.toml ...`: registry overrides applied to a fresh
// Compiler before any subcommand runs (SPEC_FULL §2.3).
type fileConfig struct {
	Placeholder string              `toml:"placeholder"`
	Aliases     map[string][]string `toml:"aliases"` // canonical opcode name -> extra aliases
}

// loadConfig reads and parses path, returning a zero-value fileConfig
// (all defaults) if path is empty.
func loadConfig(path string) (*fileConfig, error) {
	if path == "" {
		return &fileConfig{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg fileConfig
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// apply installs cfg's overrides onto a fresh Compiler.
func (cfg *fileConfig) apply(c *compiler.Compiler) error {
	if cfg.Placeholder != "" {
		c.Placeholder = cfg.Placeholder
	}
	for canonical, extra := range cfg.Aliases {
		meta, ok := c.Registry.Lookup(canonical)
		if !ok || !meta.HasID {
			continue // pseudo-opcode aliases go through SetGteMeta/SetLteMeta/SetIneqMeta instead
		}
		for _, a := range extra {
			meta.Aliases.Add(a)
		}
		if err := c.Registry.Set(meta); err != nil {
			return err
		}
	}
	return nil
}
