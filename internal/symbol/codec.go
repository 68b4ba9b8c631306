package symbol

import (
	"fmt"
	"strings"

	"github.com/coinstream/price-data/internal/model"
)

// Wire symbol layout: EXCHANGE_SPOT_BASE_QUOTE.
const (
	separator  = "_"
	spotMarker = "SPOT"
)

// Codec converts between canonical pair-exchange identifiers and the
// provider's wire symbols. Decoding only accepts spot instruments whose
// base and quote assets are both in the supported set.
type Codec struct {
	assets map[string]struct{}
}

// NewCodec creates a codec that accepts the given assets.
func NewCodec(assets []string) *Codec {
	set := make(map[string]struct{}, len(assets))
	for _, a := range assets {
		set[a] = struct{}{}
	}
	return &Codec{assets: set}
}

// Encode renders a pair as a provider wire symbol. It fails when any
// field is empty or contains the separator, since such a symbol could
// not be split back into its segments.
func (c *Codec) Encode(p model.PairExchange) (string, error) {
	for _, field := range []string{p.Exchange, p.Base, p.Quote} {
		if field == "" {
			return "", fmt.Errorf("encode %v: empty field", p)
		}
		if strings.Contains(field, separator) {
			return "", fmt.Errorf("encode %v: field %q contains separator %q", p, field, separator)
		}
	}
	return strings.Join([]string{p.Exchange, spotMarker, p.Base, p.Quote}, separator), nil
}

// Decode parses a wire symbol into a canonical pair. The second return
// value is false, not an error, when the symbol is not a spot instrument
// or references an asset outside the supported set.
func (c *Codec) Decode(sym string) (model.PairExchange, bool) {
	parts := strings.Split(sym, separator)
	if len(parts) != 4 {
		return model.PairExchange{}, false
	}
	if parts[1] != spotMarker {
		return model.PairExchange{}, false
	}
	if !c.supported(parts[2]) || !c.supported(parts[3]) {
		return model.PairExchange{}, false
	}
	return model.PairExchange{
		Exchange: parts[0],
		Base:     parts[2],
		Quote:    parts[3],
	}, true
}

// Assets returns the supported asset identifiers in no particular order.
func (c *Codec) Assets() []string {
	out := make([]string, 0, len(c.assets))
	for a := range c.assets {
		out = append(out, a)
	}
	return out
}

func (c *Codec) supported(asset string) bool {
	_, ok := c.assets[asset]
	return ok
}
