package consts

// Base58 程序 ID 常量（可读性高，适合配置与日志使用）
const (
	TokenProgramStr     = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"
	TokenMetaProgramStr = "metaqbxxUerdq28cj1RbAWkYQm3ybzjb6a8bt518x1s"

	// Wormhole Core Bridge
	WormholeDevnetProgramStr  = "3u8hJhpWcB8GfnpnLCuRztPD6qgqbtT6NBKMLVMqYc6N"
	WormholeMainnetProgramStr = "worm2ZoG2kUd4vFXhvjh93UUH596ayRfgQ2MgjNMTth"

	// 默认桥接程序使用 devnet 部署
	WormholeProgramStr = WormholeDevnetProgramStr
)
