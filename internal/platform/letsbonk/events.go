package letsbonk

import (
	"time"

	"launch-sniper-go/internal/platform"

	"github.com/gagliardetto/solana-go"
)

// Parser extracts launchpad pool creations from initialize instructions
type Parser struct {
	addrs Addresses
	now   func() time.Time
}

func (p *Parser) clock() time.Time {
	if p.now != nil {
		return p.now()
	}
	return time.Now()
}

// ParseLogs always reports false: PoolCreateEvent carries the pool and the
// mint parameters but not the base mint address, so a launchpad creation can
// only be recovered from the initialize instruction itself.
func (p *Parser) ParseLogs(logs []string, signature string) (platform.TokenInfo, bool) {
	return platform.TokenInfo{}, false
}

// ParseInstruction decodes an initialize instruction with its account list.
// Pools quoted in anything but WSOL are ignored.
func (p *Parser) ParseInstruction(data []byte, accounts []solana.PublicKey, signature string) (platform.TokenInfo, bool) {
	name, args, err := IDL.DecodeInstruction(data)
	if err != nil || name != "initialize" {
		return platform.TokenInfo{}, false
	}

	ix, _ := IDL.GetInstruction("initialize")
	account := func(role string) (solana.PublicKey, bool) {
		i := ix.AccountIndex(role)
		if i < 0 || i >= len(accounts) {
			return solana.PublicKey{}, false
		}
		return accounts[i], true
	}

	mint, ok1 := account("base_mint")
	pool, ok2 := account("pool_state")
	vault, ok3 := account("base_vault")
	creator, ok4 := account("creator")
	quote, ok5 := account("quote_mint")
	if !ok1 || !ok2 || !ok3 || !ok4 || !ok5 || !quote.Equals(QuoteMint) {
		return platform.TokenInfo{}, false
	}

	params, ok := args["base_mint_param"].(map[string]interface{})
	if !ok {
		return platform.TokenInfo{}, false
	}
	tokenName, _ := params["name"].(string)
	symbol, _ := params["symbol"].(string)
	uri, _ := params["uri"].(string)

	return platform.TokenInfo{
		Mint:      mint,
		Name:      tokenName,
		Symbol:    symbol,
		URI:       uri,
		Creator:   creator,
		Platform:  platform.LetsBonk,
		Curve:     pool,
		Vault:     vault,
		CreatedAt: p.clock(),
		Signature: signature,
	}, true
}
