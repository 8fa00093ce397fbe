package config

import (
	_ "embed"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed commands.yaml
var commandsYAML []byte

// CommandEffect is the ledger transition a board command implies.
type CommandEffect struct {
	Device string `yaml:"device"`
	State  string `yaml:"state"`
}

type commandsFile struct {
	Commands map[string]CommandEffect `yaml:"commands"`
}

// Commands returns the fixed command table, keyed by the command string.
func Commands() (map[string]CommandEffect, error) {
	var f commandsFile
	if err := yaml.Unmarshal(commandsYAML, &f); err != nil {
		return nil, fmt.Errorf("parse embedded commands.yaml: %w", err)
	}
	for cmd, eff := range f.Commands {
		if eff.Device == "" {
			return nil, fmt.Errorf("command %q: device is required", cmd)
		}
		if eff.State != "on" && eff.State != "off" {
			return nil, fmt.Errorf("command %q: state must be on or off, got %q", cmd, eff.State)
		}
	}
	return f.Commands, nil
}

// Devices lists the distinct devices named by the command table, sorted.
func Devices(cmds map[string]CommandEffect) []string {
	seen := make(map[string]struct{}, len(cmds))
	var out []string
	for _, eff := range cmds {
		if _, ok := seen[eff.Device]; ok {
			continue
		}
		seen[eff.Device] = struct{}{}
		out = append(out, eff.Device)
	}
	sort.Strings(out)
	return out
}
