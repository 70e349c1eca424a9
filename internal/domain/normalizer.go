package domain

import (
	"fmt"
	"math"
	"strings"
	"time"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// EntryIssue describes an upstream record that produced no Quote.
type EntryIssue struct {
	Index  int
	Symbol string
	Err    error
}

func (e EntryIssue) Error() string {
	return fmt.Sprintf("entry %d (%s): %v", e.Index, e.Symbol, e.Err)
}

func (e EntryIssue) Unwrap() error { return e.Err }

// Normalizer turns raw upstream entries into Quotes, carrying the last close
// forward when the feed omits it.
type Normalizer struct {
	cache *LastCloseCache
}

func NewNormalizer(cache *LastCloseCache) *Normalizer {
	if cache == nil {
		cache = NewLastCloseCache()
	}
	return &Normalizer{cache: cache}
}

func (n *Normalizer) Cache() *LastCloseCache { return n.cache }

// Normalize returns one Quote per symbol in first-seen order. A later
// occurrence of a symbol replaces the earlier Quote in place. Entries that
// yield no Quote are reported as issues; they never abort the batch.
func (n *Normalizer) Normalize(entries []RawQuoteEntry, names NameIndex) ([]Quote, []EntryIssue) {
	batch := orderedmap.New[string, Quote]()
	var issues []EntryIssue

	for i, e := range entries {
		q, err := n.quote(e, names)
		if err != nil {
			issues = append(issues, EntryIssue{Index: i, Symbol: e.Symbol, Err: err})
			continue
		}
		n.cache.Set(q.Symbol, q.Price)
		batch.Set(q.Symbol, q)
	}

	out := make([]Quote, 0, batch.Len())
	for pair := batch.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Value)
	}
	return out, issues
}

func (n *Normalizer) quote(e RawQuoteEntry, names NameIndex) (Quote, error) {
	symbol := strings.TrimSpace(e.Symbol)
	if symbol == "" {
		return Quote{}, fmt.Errorf("%w: missing code", ErrEntryMalformed)
	}

	var price float64
	switch {
	case e.Close.OK():
		price = e.Close.Value
	case e.Close.Invalid:
		return Quote{}, fmt.Errorf("%w: close", ErrEntryMalformed)
	default:
		cached, ok := n.cache.Get(symbol)
		if !ok {
			return Quote{}, ErrNoPrice
		}
		price = cached
	}

	if e.Volume.Invalid {
		return Quote{}, fmt.Errorf("%w: volume", ErrEntryMalformed)
	}
	if !e.Volume.Present {
		return Quote{}, ErrNoVolume
	}
	// Traded volume is whole shares; a fraction below one is no volume.
	volume := int64(e.Volume.Value)
	if volume == 0 {
		return Quote{}, ErrNoVolume
	}

	for _, f := range []struct {
		name string
		v    Number
	}{{"open", e.Open}, {"high", e.High}, {"low", e.Low}, {"timestamp", e.Timestamp}} {
		if !f.v.OK() {
			return Quote{}, fmt.Errorf("%w: %s", ErrEntryMalformed, f.name)
		}
	}
	if e.Change.Invalid || e.ChangePercent.Invalid {
		return Quote{}, fmt.Errorf("%w: change", ErrEntryMalformed)
	}

	raw := ((e.Open.Value + e.High.Value + e.Low.Value + price) / 4) / float64(volume)
	if math.IsInf(raw, 0) || math.IsNaN(raw) {
		return Quote{}, fmt.Errorf("%w: vwap", ErrEntryMalformed)
	}
	vwap := Round(raw, 5)

	return Quote{
		Date:          time.Unix(int64(e.Timestamp.Value), 0).UTC().Format(DateLayout),
		Symbol:        symbol,
		Name:          names[symbol],
		Price:         price,
		Change:        Round(e.Change.Value, 2),
		PercentChange: Round(e.ChangePercent.Value, 2),
		Volume:        volume,
		VWAP:          vwap,
		Turnover:      Round(vwap*float64(volume), 5),
	}, nil
}
