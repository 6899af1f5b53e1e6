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

import "time"

// Settlement submission parameters. These drive the three-rung fee escalation
// ladder: legacy pricing with an estimated limit, then dynamic-fee pricing,
// then a legacy floor configuration that trades inclusion speed for
// predictability on misbehaving RPC endpoints.
const (
	// GasEstimateNumerator/Denominator add a 20% buffer on top of the
	// simulated gas use before submission.
	GasEstimateNumerator   = 120
	GasEstimateDenominator = 100

	// FallbackGasLimit is used when gas estimation itself fails on the
	// first two rungs.
	FallbackGasLimit uint64 = 400_000

	// FloorGasLimit is the conservative fixed limit of the final rung.
	// Deliberately below FallbackGasLimit.
	FloorGasLimit uint64 = 250_000

	// FloorGasPrice is the fixed legacy gas price of the final rung, in wei.
	FloorGasPrice = 5 * GWei

	// MinGasTipCap is the lower bound applied to the suggested priority fee
	// on the dynamic-fee rung, in wei.
	MinGasTipCap = 1 * GWei
)

// Confirmation polling.
const (
	ReceiptPollInterval = 2 * time.Second
)
