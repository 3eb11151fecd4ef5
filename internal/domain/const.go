package domain

const (
	// MaxBasisPoints is 100% expressed in basis points
	MaxBasisPoints = 10000

	// ETHEREUM_ZERO_ADDRESS is never a valid owner, recipient or caller
	ETHEREUM_ZERO_ADDRESS = "0x0000000000000000000000000000000000000000"

	// DEFAULT_CHAIN_ID is the chain id used when none is configured
	DEFAULT_CHAIN_ID = "nft-registry:devnet"
)
