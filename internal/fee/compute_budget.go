package fee

import (
	"encoding/binary"

	"github.com/gagliardetto/solana-go"
)

// ComputeBudgetProgramID is the native compute budget program
var ComputeBudgetProgramID = solana.MustPublicKeyFromBase58("ComputeBudget111111111111111111111111111111")

// Compute budget instruction tags
const (
	setComputeUnitLimit uint8 = 2
	setComputeUnitPrice uint8 = 3
)

// SetComputeUnitLimit caps the compute units a transaction may consume
func SetComputeUnitLimit(units uint32) solana.Instruction {
	data := make([]byte, 5)
	data[0] = setComputeUnitLimit
	binary.LittleEndian.PutUint32(data[1:], units)
	return solana.NewInstruction(ComputeBudgetProgramID, solana.AccountMetaSlice{}, data)
}

// SetComputeUnitPrice sets the priority fee in micro-lamports per compute unit
func SetComputeUnitPrice(microLamports uint64) solana.Instruction {
	data := make([]byte, 9)
	data[0] = setComputeUnitPrice
	binary.LittleEndian.PutUint64(data[1:], microLamports)
	return solana.NewInstruction(ComputeBudgetProgramID, solana.AccountMetaSlice{}, data)
}

// BudgetInstructions returns the limit and price instructions for a fee
// quote. Nothing is attached when the quote is none.
func BudgetInstructions(unitLimit uint32, price uint64, ok bool) []solana.Instruction {
	if !ok || price == 0 {
		return nil
	}
	ixs := make([]solana.Instruction, 0, 2)
	if unitLimit > 0 {
		ixs = append(ixs, SetComputeUnitLimit(unitLimit))
	}
	return append(ixs, SetComputeUnitPrice(price))
}
