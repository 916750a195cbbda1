package utils

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/mr-tron/base58"
)

// DecodeData decodes an RPC data field in the given encoding ("base64",
// "base58" or "" which tries base64 then base58).
func DecodeData(data, encoding string) ([]byte, error) {
	data = strings.TrimSpace(data)
	switch encoding {
	case "base64":
		return base64.StdEncoding.DecodeString(data)
	case "base58":
		return base58.Decode(data)
	case "":
		if raw, err := base64.StdEncoding.DecodeString(data); err == nil {
			return raw, nil
		}
		if raw, err := base58.Decode(data); err == nil {
			return raw, nil
		}
		return nil, fmt.Errorf("unknown encoding (not base64 or base58)")
	}
	return nil, fmt.Errorf("unsupported encoding %q", encoding)
}

// DecodeDataField decodes the ["<data>", "<encoding>"] pair returned by the
// RPC for account and transaction payloads.
func DecodeDataField(field []string) ([]byte, error) {
	switch len(field) {
	case 1:
		return DecodeData(field[0], "")
	case 2:
		return DecodeData(field[0], field[1])
	}
	return nil, fmt.Errorf("malformed data field with %d elements", len(field))
}

// IsValidSolanaAddress reports whether s is a base58 encoded 32 byte key
func IsValidSolanaAddress(s string) bool {
	raw, err := base58.Decode(s)
	return err == nil && len(raw) == 32
}
