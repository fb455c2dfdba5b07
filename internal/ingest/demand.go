package ingest

import (
	"github.com/bits-and-blooms/bloom/v3"
)

const bloomFPR = 0.001

// Demand screens records of other sources against the products a transaction
// feed references. A negative answer is exact; a positive one may be a false
// positive at a rate of about bloomFPR.
type Demand struct {
	filter *bloom.BloomFilter
}

// NewDemand builds the screen from a feed.
func NewDemand(txs []Transaction) *Demand {
	filter := bloom.NewWithEstimates(uint(max(len(txs), 1)), bloomFPR)
	for _, tx := range txs {
		filter.AddString(tx.Product)
	}
	return &Demand{filter: filter}
}

// Wants reports whether the feed may reference product. A nil Demand wants
// everything.
func (d *Demand) Wants(product string) bool {
	if d == nil {
		return true
	}
	return d.filter.TestString(product)
}
