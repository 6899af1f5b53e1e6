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

package agent

import (
	"math/big"
	"testing"
)

func TestToolConfigScaling(t *testing.T) {
	cfg := &ToolConfig{
		ScaledTemperature:      700,
		ScaledTopP:             950,
		ScaledFrequencyPenalty: -1500,
		ScaledPresencePenalty:  0,
	}
	if got := cfg.Temperature(); got != 0.7 {
		t.Fatalf("temperature: want 0.7, got %v", got)
	}
	if got := cfg.TopP(); got != 0.95 {
		t.Fatalf("topP: want 0.95, got %v", got)
	}
	if got := cfg.FrequencyPenalty(); got != -1.5 {
		t.Fatalf("frequencyPenalty: want -1.5, got %v", got)
	}
	if got := cfg.PresencePenalty(); got != 0 {
		t.Fatalf("presencePenalty: want 0, got %v", got)
	}
}

func TestCostHelpers(t *testing.T) {
	ag := &Agent{
		TokenID: 1,
		Metadata: Metadata{
			UsageCost:       big.NewInt(10_000_000_000_000_000), // 0.01 ether
			RentPricePerUse: big.NewInt(5_000_000_000_000_000),  // 0.005 ether
		},
	}
	if want := big.NewInt(25_000_000_000_000_000); ag.RentalCost(5).Cmp(want) != 0 {
		t.Fatalf("rental cost: want %s, got %s", want, ag.RentalCost(5))
	}
	if want := big.NewInt(30_000_000_000_000_000); ag.InferenceCost(3).Cmp(want) != 0 {
		t.Fatalf("inference cost: want %s, got %s", want, ag.InferenceCost(3))
	}
}
