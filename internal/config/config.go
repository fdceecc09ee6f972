// Package config defines the CLI surface. Kong populates it from flags,
// environment and the layered config files.
package config

import (
	"github.com/openpulsar/pulsarctl/internal/cmd"
)

type CLI struct {
	cmd.Globals `embed:""`

	Config string `help:"Path to a config file" type:"path" env:"PULSARCTL_CONFIG"`

	Info       cmd.Info    `cmd:"" help:"Query device information"`
	Set        cmd.Set     `cmd:"" help:"Apply a single setting"`
	Profile    cmd.Profile `cmd:"" help:"Manage and apply named profiles"`
	Capture    cmd.Capture `cmd:"" help:"Record device traffic to a capture log"`
	Analyze    cmd.Analyze `cmd:"" help:"Correlate and infer protocol fields from captures"`
	ConfigFile cmd.Config  `cmd:"" name:"config" help:"Configuration file helpers"`
}
