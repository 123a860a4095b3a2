package config

// DefaultValues is the default configuration
const DefaultValues = `
[Log]
Environment = "development"
Level = "debug"
Outputs = ["stdout"]

[Database]
Database = "postgres"
User = "test_user"
Password = "test_password"
Name = "test_db"
Host = "swap-watcher-db"
Port = "5432"
MaxConns = 20

[Solana]
URL = "https://api.mainnet-beta.solana.com"

[Attester]
URL = "https://api.wormholescan.io"

[TokenCache]
Addr = "localhost:6379"
Username = ""
Password = ""
DB = 0

[Scanner]
ScanInterval = "5s"
SignatureBatchLimit = 100
NumberOfParallelTxs = 8

[[Scanner.Targets]]
Name = "wh-swap"
Protocol = "WH_SWAP"
Program = "FC4eXxkyrMPTjiYUpp4EAnkmwMbQyZ6NDCh1kfLn6vsf"

[[Scanner.Targets]]
Name = "wh-swap-legacy"
Protocol = "WH_SWAP"
Program = "8LPjGDbxhW4G2Q8S6FvdvUdfGWssgtqmvsc63bwNFA7E"

[Follower]
FrequencyToMonitorOrders = "10s"
RetryInterval = "5s"
RetryNumber = 60
DeadlineGrace = "90s"
NumberOfParallelOrders = 20

[Metrics]
Enabled = false
Port = "9091"
Endpoint = "/metrics"

[[Etherman.Chains]]
Name = "ethereum"
URL = "http://localhost:8545"
MessageTransmitter = "0x0a992d191deec32afe36203ad87d7d289a738f81"
CoreBridge = "0x98f3c9e6e3face36baad05fe09d375ef1464288b"
TokenBridge = "0x3ee18b2214aff97000d974cf647e7c347e8fa585"
WhSwap = "0xf3f04555f8fda510bfc77820fd6eb8446f59e72d"
`
