package config

// Solana network endpoints
const (
	SolanaMainnetRPC = "https://api.mainnet-beta.solana.com"
	SolanaDevnetRPC  = "https://api.devnet.solana.com"

	SolanaMainnetWS = "wss://api.mainnet-beta.solana.com"
	SolanaDevnetWS  = "wss://api.devnet.solana.com"

	// Jito block engine JSON-RPC endpoints
	JitoMainnetRPC = "https://mainnet.block-engine.jito.wtf/api/v1"
	JitoDevnetRPC  = "https://devnet.block-engine.jito.wtf/api/v1"

	// PumpPortal new token feed
	PumpPortalWS = "wss://pumpportal.fun/api/data"
)

// Listener transport names
const (
	TransportLogs   = "logs"
	TransportBlocks = "blocks"
	TransportGeyser = "geyser"
	TransportPortal = "pump_portal"
)

// Fee modes
const (
	FeeModeFixed   = "fixed"
	FeeModeDynamic = "dynamic"
)

// Retry backoff modes
const (
	BackoffFixed  = "fixed"
	BackoffLinear = "linear"
)
