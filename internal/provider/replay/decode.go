package replay

import (
	"fmt"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"quotes-export/internal/model"
)

// Recorded quote line:
//
//	{"t":1528434000123,"b":[[1.10012,100000]],"a":[[1.10025,250000]],"i":"bid"}
//
// "t" is milliseconds since epoch, "b"/"a" are [price, volume] levels best
// to worst and the optional "i" marks indicative sides (bid, ask, both).
func decodeQuote(line []byte) (model.Quote, error) {
	if !gjson.ValidBytes(line) {
		return model.Quote{}, fmt.Errorf("invalid quote record: %.64s", line)
	}
	r := gjson.ParseBytes(line)
	t := r.Get("t")
	if !t.Exists() {
		return model.Quote{}, fmt.Errorf("quote record without timestamp: %.64s", line)
	}
	q := model.Quote{
		Time: time.UnixMilli(t.Int()).UTC(),
		Bids: decodeLevels(r.Get("b")),
		Asks: decodeLevels(r.Get("a")),
	}
	switch strings.ToLower(r.Get("i").String()) {
	case "bid":
		q.Indicative = model.IndicativeBid
	case "ask":
		q.Indicative = model.IndicativeAsk
	case "both":
		q.Indicative = model.IndicativeBoth
	}
	return q, nil
}

func decodeLevels(r gjson.Result) []model.QuoteEntry {
	levels := r.Array()
	if len(levels) == 0 {
		return nil
	}
	out := make([]model.QuoteEntry, 0, len(levels))
	for _, l := range levels {
		pair := l.Array()
		if len(pair) < 2 {
			continue
		}
		out = append(out, model.QuoteEntry{Price: pair[0].Float(), Volume: pair[1].Float()})
	}
	return out
}

// Recorded bar line:
//
//	{"t":1529038800000,"o":1.1551,"h":1.1562,"l":1.1549,"c":1.1560,"v":1250}
func decodeBar(line []byte, side model.Side) (model.Bar, error) {
	if !gjson.ValidBytes(line) {
		return model.Bar{}, fmt.Errorf("invalid bar record: %.64s", line)
	}
	r := gjson.ParseBytes(line)
	if !r.Get("t").Exists() {
		return model.Bar{}, fmt.Errorf("bar record without timestamp: %.64s", line)
	}
	return model.Bar{
		From:   time.UnixMilli(r.Get("t").Int()).UTC(),
		Side:   side,
		Open:   r.Get("o").Float(),
		High:   r.Get("h").Float(),
		Low:    r.Get("l").Float(),
		Close:  r.Get("c").Float(),
		Volume: r.Get("v").Float(),
	}, nil
}
