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

package params

// These are the multipliers for ledger currency denominations. All prices
// recorded on the agent ledger (usage cost, rent per use, sale price) are
// minor units (wei).
//
// Example: to get the wei value of an amount in gwei, use
//
//	new(big.Int).Mul(value, big.NewInt(params.GWei))
const (
	Wei   = 1
	GWei  = 1_000_000_000
	Ether = 1_000_000_000_000_000_000
)

// ParamScale is the fixed-point scale factor for real-valued tool parameters
// stored on the ledger (temperature, top-p, penalties). A ledger value of
// 700 denotes 0.7. The scaled integers are the source of truth; floating
// point conversion happens only at the consumer boundary.
const ParamScale = 1000
