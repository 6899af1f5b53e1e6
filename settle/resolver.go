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

// Package settle implements the usage-rights settlement engine: pathway
// resolution, fee-escalated transaction submission, rental prepayment, and
// the advisory balance mirror. The ledger is the sole source of truth; this
// package's job is calling it correctly and recovering from its failure
// modes.
package settle

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/aigentchain/go-aigent/agent"
)

// Ledger is the read surface of the agent ledger the engine consumes.
// *ledger.Client satisfies it.
type Ledger interface {
	OwnerOf(ctx context.Context, tokenID uint64) (common.Address, error)
	CanUseAgent(ctx context.Context, tokenID uint64, user common.Address) (bool, error)
	RentalBalance(ctx context.Context, tokenID uint64, user common.Address) (*big.Int, error)
	PrepaidInferenceBalance(ctx context.Context, tokenID uint64, user common.Address) (*big.Int, error)
	LoadAgent(ctx context.Context, tokenID uint64) (*agent.Agent, error)
	SaleInfo(ctx context.Context, tokenID uint64) (bool, *big.Int, error)
	TotalAgents(ctx context.Context) (uint64, error)
}

// Pathway identifies the usage-rights variant selected for one invocation.
type Pathway int

const (
	// PathwayOwner: the caller owns the token. Free, no settlement.
	PathwayOwner Pathway = iota

	// PathwayPrepaid: a prepaid inference balance covers the use; the
	// consumption call carries no payment.
	PathwayPrepaid

	// PathwayRental: a rental balance covers the use; the ledger decrements
	// it on the consumption call.
	PathwayRental

	// PathwayPayPerUse: every invocation requires a payment transaction.
	PathwayPayPerUse
)

func (p Pathway) String() string {
	switch p {
	case PathwayOwner:
		return "owner"
	case PathwayPrepaid:
		return "prepaid-inference"
	case PathwayRental:
		return "rental-balance"
	case PathwayPayPerUse:
		return "pay-per-use"
	}
	return "unknown"
}

// UsageRight is the resolved eligibility of one (agent, user) pair at
// invocation time. It is computed fresh per invocation and never stored:
// an ownership transfer invalidates anything resolved earlier.
type UsageRight struct {
	Pathway Pathway
	Balance *big.Int // remaining uses for prepaid/rental pathways
	Cost    *big.Int // per-use cost in wei for pay-per-use
}

// Resolver decides the usage pathway for an invocation. It always reads the
// ledger directly, never the mirror: the mirror may overstate a balance and
// must not grant access the ledger would refuse.
type Resolver struct {
	ledger Ledger
}

// NewResolver creates a resolver over the given ledger read surface.
func NewResolver(l Ledger) *Resolver {
	return &Resolver{ledger: l}
}

// Resolve selects exactly one pathway for (ag, user), in fixed priority
// order: owner, then prepaid inference, then rental, then pay-per-use. A
// caller with no pathway the ledger would admit is refused here, before any
// transaction is built or submitted.
func (r *Resolver) Resolve(ctx context.Context, ag *agent.Agent, user common.Address) (*UsageRight, error) {
	if user == (common.Address{}) {
		return nil, ErrInvalidAddress
	}
	owner, err := r.ledger.OwnerOf(ctx, ag.TokenID)
	if err != nil {
		return nil, classify(err)
	}
	if owner == user {
		return &UsageRight{Pathway: PathwayOwner}, nil
	}
	prepaid, err := r.ledger.PrepaidInferenceBalance(ctx, ag.TokenID, user)
	if err != nil {
		return nil, classify(err)
	}
	if prepaid.Sign() > 0 {
		return &UsageRight{Pathway: PathwayPrepaid, Balance: prepaid}, nil
	}
	rental, err := r.ledger.RentalBalance(ctx, ag.TokenID, user)
	if err != nil {
		return nil, classify(err)
	}
	if rental.Sign() > 0 && ag.Metadata.IsForRent {
		return &UsageRight{Pathway: PathwayRental, Balance: rental}, nil
	}
	// No balance remains; pay-per-use is the last pathway, gated by the
	// ledger's own admission view so we never submit a payment the
	// contract would refuse.
	ok, err := r.ledger.CanUseAgent(ctx, ag.TokenID, user)
	if err != nil {
		return nil, classify(err)
	}
	if !ok {
		return nil, ErrNoUsageRights
	}
	return &UsageRight{Pathway: PathwayPayPerUse, Cost: new(big.Int).Set(ag.Metadata.UsageCost)}, nil
}
