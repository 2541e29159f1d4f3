package nakama

const (
	// RpcCreateMatch is the Nakama RPC id clients call to find or create an open relay match.
	RpcCreateMatch = "create_match"

	// MatchNameRelay is the authoritative match handler name registered with Nakama.
	MatchNameRelay = "hw_relay"

	// GameLabel identifies herowiz matches in match listings.
	GameLabel = "herowiz"
)

// Runtime environment keys read from the Nakama config.
const (
	EnvGameConfigPath = "herowiz_game_config"
	EnvIdleTicks      = "herowiz_idle_ticks"
)

const (
	tickRate         = 5
	defaultIdleTicks = 30 * tickRate
)
