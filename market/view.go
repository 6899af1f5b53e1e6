// Copyright 2025 The go-aigent Authors
// This file is part of the go-aigent library.
//
// The go-aigent library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-aigent library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-aigent library. If not, see <http://www.gnu.org/licenses/>.

// Package market provides the read-side aggregation of all tokenized agents
// for listing and filtering. It never mutates ledger state.
package market

import (
	"context"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	lru "github.com/hashicorp/golang-lru"

	"github.com/aigentchain/go-aigent/agent"
	"github.com/aigentchain/go-aigent/settle"
)

const cacheSize = 512

// Listing is the public state of one tokenized agent.
type Listing struct {
	TokenID   uint64         `json:"tokenId"`
	Owner     common.Address `json:"owner"`
	Metadata  agent.Metadata `json:"metadata"`
	ForSale   bool           `json:"forSale"`
	SalePrice *big.Int       `json:"salePrice,omitempty"`
}

// Filter narrows a listing query. Zero value matches everything.
type Filter struct {
	ForRent bool   // only agents listed for rent
	ForSale bool   // only agents listed for sale
	Owner   *common.Address
	Model   string // case-insensitive substring on the model identifier
}

// View aggregates agent listings from the ledger with a small metadata
// cache. Sale and ownership state is always read fresh; cached metadata is
// dropped through Evict when a settlement event touches the token.
type View struct {
	ledger settle.Ledger
	cache  *lru.Cache // tokenID -> agent.Metadata
}

// NewView creates a marketplace view over the ledger read surface.
func NewView(l settle.Ledger) *View {
	cache, _ := lru.New(cacheSize)
	return &View{ledger: l, cache: cache}
}

// Evict drops a cached token after a settlement changed its records.
func (v *View) Evict(tokenID uint64) {
	v.cache.Remove(tokenID)
}

// Get returns the listing of one token.
func (v *View) Get(ctx context.Context, tokenID uint64) (*Listing, error) {
	meta, err := v.metadata(ctx, tokenID)
	if err != nil {
		return nil, err
	}
	owner, err := v.ledger.OwnerOf(ctx, tokenID)
	if err != nil {
		return nil, err
	}
	forSale, price, err := v.ledger.SaleInfo(ctx, tokenID)
	if err != nil {
		return nil, err
	}
	return &Listing{TokenID: tokenID, Owner: owner, Metadata: meta, ForSale: forSale, SalePrice: price}, nil
}

// All returns every minted agent matching the filter, in token-id order.
func (v *View) All(ctx context.Context, filter Filter) ([]*Listing, error) {
	total, err := v.ledger.TotalAgents(ctx)
	if err != nil {
		return nil, err
	}
	var out []*Listing
	for id := uint64(1); id <= total; id++ {
		listing, err := v.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if filter.matches(listing) {
			out = append(out, listing)
		}
	}
	return out, nil
}

func (v *View) metadata(ctx context.Context, tokenID uint64) (agent.Metadata, error) {
	if cached, ok := v.cache.Get(tokenID); ok {
		return cached.(agent.Metadata), nil
	}
	ag, err := v.ledger.LoadAgent(ctx, tokenID)
	if err != nil {
		return agent.Metadata{}, err
	}
	v.cache.Add(tokenID, ag.Metadata)
	return ag.Metadata, nil
}

func (f Filter) matches(l *Listing) bool {
	if f.ForRent && !l.Metadata.IsForRent {
		return false
	}
	if f.ForSale && !l.ForSale {
		return false
	}
	if f.Owner != nil && *f.Owner != l.Owner {
		return false
	}
	if f.Model != "" && !strings.Contains(strings.ToLower(l.Metadata.Model), strings.ToLower(f.Model)) {
		return false
	}
	return true
}
