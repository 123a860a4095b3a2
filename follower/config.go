package follower

import (
	"github.com/mayanlabs/swap-watcher/config/types"
)

// Config is configuration for the order followers
type Config struct {
	// FrequencyToMonitorOrders frequency of the in-flight order scan
	FrequencyToMonitorOrders types.Duration `mapstructure:"FrequencyToMonitorOrders"`
	// RetryInterval is time between each poll of a pending step
	RetryInterval types.Duration `mapstructure:"RetryInterval"`
	// RetryNumber is the number of polls of a single step before giving up
	RetryNumber int `mapstructure:"RetryNumber"`
	// DeadlineGrace is how long after the order deadline a follower keeps
	// watching before it parks the order
	DeadlineGrace types.Duration `mapstructure:"DeadlineGrace"`
	// NumberOfParallelOrders caps the orders followed at once
	NumberOfParallelOrders int `mapstructure:"NumberOfParallelOrders"`
}
