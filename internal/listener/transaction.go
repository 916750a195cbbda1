package listener

import (
	"encoding/json"
	"fmt"

	"launch-sniper-go/internal/platform"
	"launch-sniper-go/pkg/utils"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// encodedTransaction is a transaction with meta as delivered by
// blockSubscribe and transactionSubscribe with base64 encoding
type encodedTransaction struct {
	Transaction []string         `json:"transaction"`
	Meta        *transactionMeta `json:"meta"`
}

type transactionMeta struct {
	Err             json.RawMessage `json:"err"`
	LoadedAddresses struct {
		Writable []string `json:"writable"`
		Readonly []string `json:"readonly"`
	} `json:"loadedAddresses"`
	InnerInstructions []struct {
		Index        int                  `json:"index"`
		Instructions []compiledInstruction `json:"instructions"`
	} `json:"innerInstructions"`
}

type compiledInstruction struct {
	ProgramIDIndex uint16   `json:"programIdIndex"`
	Accounts       []uint16 `json:"accounts"`
	Data           string   `json:"data"`
}

func (m *transactionMeta) failed() bool {
	return m != nil && len(m.Err) > 0 && string(m.Err) != "null"
}

// decodedTransaction is a wire transaction with its full account key list,
// static keys first then loaded writable and readonly addresses
type decodedTransaction struct {
	tx   *solana.Transaction
	keys []solana.PublicKey
	meta *transactionMeta
}

func (d *decodedTransaction) signature() string {
	if len(d.tx.Signatures) == 0 {
		return ""
	}
	return d.tx.Signatures[0].String()
}

func decodeTransaction(et encodedTransaction) (*decodedTransaction, error) {
	raw, err := utils.DecodeDataField(et.Transaction)
	if err != nil {
		return nil, fmt.Errorf("failed to decode transaction payload: %w", err)
	}
	tx, err := solana.TransactionFromDecoder(bin.NewBinDecoder(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to decode transaction: %w", err)
	}

	keys := append([]solana.PublicKey(nil), tx.Message.AccountKeys...)
	if et.Meta != nil {
		for _, group := range [][]string{et.Meta.LoadedAddresses.Writable, et.Meta.LoadedAddresses.Readonly} {
			for _, s := range group {
				key, err := solana.PublicKeyFromBase58(s)
				if err != nil {
					return nil, fmt.Errorf("bad loaded address %q: %w", s, err)
				}
				keys = append(keys, key)
			}
		}
	}
	return &decodedTransaction{tx: tx, keys: keys, meta: et.Meta}, nil
}

func (d *decodedTransaction) resolve(indexes []uint16) ([]solana.PublicKey, bool) {
	out := make([]solana.PublicKey, len(indexes))
	for i, idx := range indexes {
		if int(idx) >= len(d.keys) {
			return nil, false
		}
		out[i] = d.keys[idx]
	}
	return out, true
}

// scan offers every top level and inner instruction that targets a known
// program to that program's event parser. The first creation wins.
func (d *decodedTransaction) scan(programs Programs) (platform.TokenInfo, bool) {
	sig := d.signature()

	try := func(programIdx uint16, accountIdx []uint16, data []byte) (platform.TokenInfo, bool) {
		if int(programIdx) >= len(d.keys) {
			return platform.TokenInfo{}, false
		}
		adapter, ok := programs.ForProgram(d.keys[programIdx])
		if !ok {
			return platform.TokenInfo{}, false
		}
		accounts, ok := d.resolve(accountIdx)
		if !ok {
			return platform.TokenInfo{}, false
		}
		return adapter.Events.ParseInstruction(data, accounts, sig)
	}

	for _, ix := range d.tx.Message.Instructions {
		if info, ok := try(ix.ProgramIDIndex, ix.Accounts, ix.Data); ok {
			return info, true
		}
	}

	if d.meta == nil {
		return platform.TokenInfo{}, false
	}
	for _, group := range d.meta.InnerInstructions {
		for _, ix := range group.Instructions {
			data, err := utils.DecodeData(ix.Data, "base58")
			if err != nil {
				continue
			}
			if info, ok := try(ix.ProgramIDIndex, ix.Accounts, data); ok {
				return info, true
			}
		}
	}
	return platform.TokenInfo{}, false
}
