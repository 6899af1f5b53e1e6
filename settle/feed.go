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

package settle

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/event"
)

// SettlementKind tags the balance-affecting operation an event reports.
type SettlementKind int

const (
	SettlementRent SettlementKind = iota
	SettlementUse
	SettlementBuy
	SettlementList
	SettlementDelist
	SettlementMint
)

// SettlementEvent is published after any confirmed balance-affecting
// settlement so dependent surfaces can refresh. Subscription replaces the
// globally reachable callback of earlier designs: observers register
// explicitly and own their channel lifecycle.
type SettlementEvent struct {
	Kind    SettlementKind
	TokenID uint64
	User    common.Address
	TxHash  common.Hash
}

// SubscribeSettlements registers ch for settlement events on the engine's
// feed. The returned subscription must be unsubscribed when done.
func (e *Engine) SubscribeSettlements(ch chan<- SettlementEvent) event.Subscription {
	return e.feed.Subscribe(ch)
}
