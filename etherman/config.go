package etherman

// ChainConfig is the per-chain evm connection configuration.
type ChainConfig struct {
	// Name is the chain name, e.g. "ethereum" or "base".
	Name string `mapstructure:"Name"`

	// URL is the rpc endpoint.
	URL string `mapstructure:"URL"`

	// MessageTransmitter is the circle message transmitter contract.
	MessageTransmitter string `mapstructure:"MessageTransmitter"`

	// CoreBridge is the wormhole core contract.
	CoreBridge string `mapstructure:"CoreBridge"`

	// TokenBridge is the wormhole token bridge contract.
	TokenBridge string `mapstructure:"TokenBridge"`

	// WhSwap is the mayan contract publishing wormhole-settled swap
	// instructions on this chain.
	WhSwap string `mapstructure:"WhSwap"`
}

// Config represents the configuration of the etherman
type Config struct {
	Chains []ChainConfig `mapstructure:"Chains"`
}
