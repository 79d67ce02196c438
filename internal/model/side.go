package model

import (
	"fmt"
	"strings"
)

// Side is the price side of a bar or book level. Its numeric value is the
// side index used by the binary layouts (bid=0, ask=1).
type Side int

const (
	SideBid Side = 0
	SideAsk Side = 1
)

// Sides lists both sides in layout order.
var Sides = []Side{SideBid, SideAsk}

func (s Side) String() string {
	if s == SideAsk {
		return "Ask"
	}
	return "Bid"
}

// ParseSide accepts bid/ask and the console request names bids/asks.
func ParseSide(s string) (Side, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "bid", "bids":
		return SideBid, nil
	case "ask", "asks":
		return SideAsk, nil
	default:
		return SideBid, fmt.Errorf("unknown price side %q (use bid or ask)", s)
	}
}
