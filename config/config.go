package config

import (
	_ "embed"
)

// client config
//
//go:embed default.config.yml
var DefaultConfigYml string

// goblin_stake interface definition, used when no idl file is configured
//
//go:embed goblin_stake.idl.json
var GoblinStakeIdlJson []byte
