package pumpfun

import (
	"time"

	"launch-sniper-go/internal/platform"

	"github.com/gagliardetto/solana-go"
)

const createLog = "Program log: Instruction: Create"

// Parser extracts pump.fun token creations from logs and instructions
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

// ParseLogs decodes the CreateEvent emitted by a create transaction
func (p *Parser) ParseLogs(logs []string, signature string) (platform.TokenInfo, bool) {
	if !platform.ContainsLog(logs, createLog) {
		return platform.TokenInfo{}, false
	}

	for _, payload := range platform.ProgramData(logs) {
		name, fields, err := IDL.DecodeEvent(payload)
		if err != nil || name != "CreateEvent" {
			continue
		}

		mint := fields["mint"].(solana.PublicKey)
		curve := fields["bonding_curve"].(solana.PublicKey)
		creator := fields["creator"].(solana.PublicKey)
		if creator.IsZero() {
			creator = fields["user"].(solana.PublicKey)
		}
		vault, err := p.addrs.vaultOf(curve, mint)
		if err != nil {
			continue
		}

		return platform.TokenInfo{
			Mint:      mint,
			Name:      fields["name"].(string),
			Symbol:    fields["symbol"].(string),
			URI:       fields["uri"].(string),
			Creator:   creator,
			Platform:  platform.PumpFun,
			Curve:     curve,
			Vault:     vault,
			CreatedAt: p.clock(),
			Signature: signature,
		}, true
	}
	return platform.TokenInfo{}, false
}

// ParseInstruction decodes a create instruction with its account list
func (p *Parser) ParseInstruction(data []byte, accounts []solana.PublicKey, signature string) (platform.TokenInfo, bool) {
	name, args, err := IDL.DecodeInstruction(data)
	if err != nil || name != "create" {
		return platform.TokenInfo{}, false
	}

	ix, _ := IDL.GetInstruction("create")
	account := func(role string) (solana.PublicKey, bool) {
		i := ix.AccountIndex(role)
		if i < 0 || i >= len(accounts) {
			return solana.PublicKey{}, false
		}
		return accounts[i], true
	}

	mint, ok1 := account("mint")
	curve, ok2 := account("bonding_curve")
	vault, ok3 := account("associated_bonding_curve")
	user, ok4 := account("user")
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return platform.TokenInfo{}, false
	}

	creator := args["creator"].(solana.PublicKey)
	if creator.IsZero() {
		creator = user
	}

	return platform.TokenInfo{
		Mint:      mint,
		Name:      args["name"].(string),
		Symbol:    args["symbol"].(string),
		URI:       args["uri"].(string),
		Creator:   creator,
		Platform:  platform.PumpFun,
		Curve:     curve,
		Vault:     vault,
		CreatedAt: p.clock(),
		Signature: signature,
	}, true
}
