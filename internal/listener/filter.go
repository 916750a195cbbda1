package listener

import (
	"fmt"
	"strings"

	"launch-sniper-go/internal/platform"

	"github.com/gagliardetto/solana-go"
)

// Filter decides which detected tokens are handed to the trader.
// A zero Filter accepts everything.
type Filter struct {
	allowCreators map[solana.PublicKey]struct{}
	denyCreators  map[solana.PublicKey]struct{}
	platforms     map[platform.Platform]struct{}
	match         string
}

// NewFilter parses the creator lists, platform tags and name/symbol match string
func NewFilter(allowCreators, denyCreators, platforms []string, match string) (Filter, error) {
	var f Filter
	var err error

	if f.allowCreators, err = keySet(allowCreators); err != nil {
		return Filter{}, fmt.Errorf("allow list: %w", err)
	}
	if f.denyCreators, err = keySet(denyCreators); err != nil {
		return Filter{}, fmt.Errorf("deny list: %w", err)
	}
	for _, s := range platforms {
		p, err := platform.ParsePlatform(s)
		if err != nil {
			return Filter{}, err
		}
		if f.platforms == nil {
			f.platforms = make(map[platform.Platform]struct{})
		}
		f.platforms[p] = struct{}{}
	}
	f.match = strings.ToLower(strings.TrimSpace(match))
	return f, nil
}

func keySet(keys []string) (map[solana.PublicKey]struct{}, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	out := make(map[solana.PublicKey]struct{}, len(keys))
	for _, s := range keys {
		k, err := solana.PublicKeyFromBase58(strings.TrimSpace(s))
		if err != nil {
			return nil, fmt.Errorf("bad creator %q: %w", s, err)
		}
		out[k] = struct{}{}
	}
	return out, nil
}

// Check returns whether info passes, and the reason when it does not
func (f Filter) Check(info platform.TokenInfo) (bool, string) {
	if _, denied := f.denyCreators[info.Creator]; denied {
		return false, "creator denied"
	}
	if f.allowCreators != nil {
		if _, ok := f.allowCreators[info.Creator]; !ok {
			return false, "creator not allowed"
		}
	}
	if f.platforms != nil {
		if _, ok := f.platforms[info.Platform]; !ok {
			return false, "platform not allowed"
		}
	}
	if f.match != "" &&
		!strings.Contains(strings.ToLower(info.Name), f.match) &&
		!strings.Contains(strings.ToLower(info.Symbol), f.match) {
		return false, "name does not match"
	}
	return true, ""
}
