package platform

import (
	"encoding/base64"
	"strings"

	"launch-sniper-go/pkg/anchor"

	"github.com/gagliardetto/solana-go"
)

const programDataPrefix = "Program data: "

// ProgramData returns the decoded payloads of every "Program data:" log line.
func ProgramData(logs []string) [][]byte {
	var out [][]byte
	for _, line := range logs {
		if !strings.HasPrefix(line, programDataPrefix) {
			continue
		}
		raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(line[len(programDataPrefix):]))
		if err != nil {
			continue
		}
		out = append(out, raw)
	}
	return out
}

// ContainsLog reports whether any log line contains s.
func ContainsLog(logs []string, s string) bool {
	for _, line := range logs {
		if strings.Contains(line, s) {
			return true
		}
	}
	return false
}

// CreateIdempotentATA creates owner's associated token account for mint if it
// does not exist yet.
func CreateIdempotentATA(payer, owner, mint solana.PublicKey) (solana.Instruction, solana.PublicKey, error) {
	ata, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		return nil, solana.PublicKey{}, err
	}

	accounts := solana.AccountMetaSlice{
		solana.NewAccountMeta(payer, true, true),
		solana.NewAccountMeta(ata, true, false),
		solana.NewAccountMeta(owner, false, false),
		solana.NewAccountMeta(mint, false, false),
		solana.NewAccountMeta(solana.SystemProgramID, false, false),
		solana.NewAccountMeta(solana.TokenProgramID, false, false),
	}
	// instruction 1 = CreateIdempotent
	return solana.NewInstruction(solana.SPLAssociatedTokenAccountProgramID, accounts, []byte{1}), ata, nil
}

// AccountMetas orders addrs by the instruction's IDL account roles.
func AccountMetas(ix *anchor.Instruction, addrs map[string]solana.PublicKey) (solana.AccountMetaSlice, error) {
	out := make(solana.AccountMetaSlice, 0, len(ix.Accounts))
	for _, role := range ix.Accounts {
		key, ok := addrs[role.Name]
		if !ok {
			return nil, &MissingAccountError{Instruction: ix.Name, Role: role.Name}
		}
		out = append(out, solana.NewAccountMeta(key, role.IsMut, role.IsSigner))
	}
	return out, nil
}

// BuildInstruction encodes args and orders accounts for the named IDL instruction.
func BuildInstruction(idl *anchor.IDL, programID solana.PublicKey, name string,
	addrs map[string]solana.PublicKey, args map[string]interface{}) (*solana.GenericInstruction, error) {
	ix, err := idl.GetInstruction(name)
	if err != nil {
		return nil, err
	}
	accounts, err := AccountMetas(ix, addrs)
	if err != nil {
		return nil, err
	}
	data, err := idl.EncodeInstructionArgs(name, args)
	if err != nil {
		return nil, err
	}
	return solana.NewInstruction(programID, accounts, data), nil
}

// MissingAccountError reports an IDL account role with no address supplied.
type MissingAccountError struct {
	Instruction string
	Role        string
}

func (e *MissingAccountError) Error() string {
	return "no address for account role " + e.Role + " of " + e.Instruction
}
