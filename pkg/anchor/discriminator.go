package anchor

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// DiscriminatorSize is the width of the tag that prefixes instruction, account and event data.
const DiscriminatorSize = 8

// Namespaces used when hashing discriminators.
const (
	NamespaceGlobal  = "global"
	NamespaceAccount = "account"
	NamespaceEvent   = "event"
)

// Discriminator represents an 8-byte instruction/account/event tag
type Discriminator [DiscriminatorSize]byte

// String returns hex representation of discriminator
func (d Discriminator) String() string {
	return hex.EncodeToString(d[:])
}

// Bytes returns discriminator as byte slice
func (d Discriminator) Bytes() []byte {
	out := make([]byte, DiscriminatorSize)
	copy(out, d[:])
	return out
}

// ComputeDiscriminator computes sha256("namespace:name")[0:8]
func ComputeDiscriminator(namespace, name string) Discriminator {
	hash := sha256.Sum256([]byte(namespace + ":" + name))

	var discriminator Discriminator
	copy(discriminator[:], hash[:DiscriminatorSize])
	return discriminator
}

// InstructionDiscriminator computes discriminator for instruction
func InstructionDiscriminator(name string) Discriminator {
	return ComputeDiscriminator(NamespaceGlobal, name)
}

// AccountDiscriminator computes discriminator for account
func AccountDiscriminator(name string) Discriminator {
	return ComputeDiscriminator(NamespaceAccount, name)
}

// EventDiscriminator computes discriminator for an emitted event
func EventDiscriminator(name string) Discriminator {
	return ComputeDiscriminator(NamespaceEvent, name)
}

// DiscriminatorFromBytes reads the leading tag of data
func DiscriminatorFromBytes(data []byte) (Discriminator, error) {
	if len(data) < DiscriminatorSize {
		return Discriminator{}, fmt.Errorf("data too short for discriminator: need %d bytes, got %d", DiscriminatorSize, len(data))
	}

	var discriminator Discriminator
	copy(discriminator[:], data[:DiscriminatorSize])
	return discriminator, nil
}

// HasDiscriminator reports whether data starts with d
func HasDiscriminator(data []byte, d Discriminator) bool {
	return len(data) >= DiscriminatorSize && bytes.Equal(data[:DiscriminatorSize], d[:])
}
