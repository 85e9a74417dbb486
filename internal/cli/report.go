package cli

import (
	"github.com/hupe1980/dbow"
	"github.com/hupe1980/dbow/codec"
)

// Match is one query result.
type Match struct {
	ID    uint32  `json:"id"`
	Image string  `json:"image"`
	Score float64 `json:"score"`
}

// QueryReport is the outcome of querying one image.
type QueryReport struct {
	Query   string  `json:"query"`
	Matches []Match `json:"matches"`
}

// NewQueryReport names the results of query using m.
func NewQueryReport(query string, results dbow.QueryResults, m *Manifest) QueryReport {
	r := QueryReport{Query: query, Matches: make([]Match, len(results))}
	for i, res := range results {
		r.Matches[i] = Match{ID: uint32(res.ID), Image: m.Image(uint32(res.ID)), Score: res.Score}
	}
	return r
}

// PrintReport writes r as text. n is the position of the query image.
func (e *Env) PrintReport(n int, r QueryReport) {
	for _, m := range r.Matches {
		e.Printf("Searching for Image %d: %s... Found: %s with score %g\n", n, r.Query, m.Image, m.Score)
	}
	e.Println()
}

// WriteReport writes r as one JSON line with the configured codec.
func (e *Env) WriteReport(r QueryReport) error {
	c, err := e.Config.Codec()
	if err != nil {
		return err
	}
	return codec.Write(e.Out, c, r)
}
