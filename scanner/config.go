package scanner

import (
	"github.com/mayanlabs/swap-watcher/config/types"
)

// Config is the scanner configuration.
type Config struct {
	// ScanInterval is the pause between rounds over the watched programs.
	ScanInterval types.Duration `mapstructure:"ScanInterval"`

	// SignatureBatchLimit caps one signature listing request.
	SignatureBatchLimit int `mapstructure:"SignatureBatchLimit"`

	// NumberOfParallelTxs is how many transactions of one batch are
	// fetched and handled concurrently.
	NumberOfParallelTxs uint `mapstructure:"NumberOfParallelTxs"`

	// Targets are the programs to watch.
	Targets []TargetConfig `mapstructure:"Targets"`
}

// TargetConfig is one watched program.
type TargetConfig struct {
	Name     string `mapstructure:"Name"`
	Protocol string `mapstructure:"Protocol"`
	Program  string `mapstructure:"Program"`

	// PayloadWriter is the companion program holding custom payloads the
	// ledger registrations of this target point at. Optional.
	PayloadWriter string `mapstructure:"PayloadWriter"`
}
