package domain

// DateLayout is the wire format of Quote.Date, always UTC.
const DateLayout = "2006-01-02 15:04:05"

// EventWarrantUpdate is the push event name carried by every broadcast batch.
const EventWarrantUpdate = "warrant_update"

type Instrument struct {
	Symbol string
	Name   string
}

// RawQuoteEntry is one record of the upstream real-time response.
type RawQuoteEntry struct {
	Symbol        string `json:"code"`
	Close         Number `json:"close"`
	Open          Number `json:"open"`
	High          Number `json:"high"`
	Low           Number `json:"low"`
	Volume        Number `json:"volume"`
	Change        Number `json:"change"`
	ChangePercent Number `json:"change_p"`
	Timestamp     Number `json:"timestamp"`
}

// Quote is the broadcast unit. JSON keys follow the dashboard contract.
type Quote struct {
	Date          string  `json:"date"`
	Symbol        string  `json:"symbol"`
	Name          string  `json:"name"`
	Price         float64 `json:"price"`
	Change        float64 `json:"change"`
	PercentChange float64 `json:"percent_change"`
	Volume        int64   `json:"volume"`
	VWAP          float64 `json:"VWAP"`
	Turnover      float64 `json:"TO"`
}

// Update is the envelope pushed to clients once per cycle.
type Update struct {
	Event string  `json:"event"`
	Data  []Quote `json:"data"`
}

func NewUpdate(quotes []Quote) Update {
	if quotes == nil {
		quotes = []Quote{}
	}
	return Update{Event: EventWarrantUpdate, Data: quotes}
}

// NameIndex resolves display names by symbol.
type NameIndex map[string]string

func NewNameIndex(instruments []Instrument) NameIndex {
	idx := make(NameIndex, len(instruments))
	for _, in := range instruments {
		if _, ok := idx[in.Symbol]; ok {
			continue
		}
		idx[in.Symbol] = in.Name
	}
	return idx
}

func Symbols(instruments []Instrument) []string {
	out := make([]string, 0, len(instruments))
	for _, in := range instruments {
		out = append(out, in.Symbol)
	}
	return out
}
