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
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aigentchain/go-aigent/ledger"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		err   error
		kind  Kind
		fatal bool
	}{
		{errors.New("user denied transaction signature"), KindUserRejected, true},
		{errors.New("insufficient funds for gas * price + value"), KindInsufficientFunds, true},
		{errors.New("execution reverted: daily cap reached"), KindContractRevert, true},
		{errors.New("replacement transaction underpriced"), KindNetworkCongestion, false},
		{errors.New("txpool is full"), KindNetworkCongestion, false},
		{errors.New("already known"), KindNetworkCongestion, false},
		{errors.New("nonce too low"), KindStaleNonce, false},
		{errors.New("connection refused"), KindRPCTransient, false},
		{errors.New("context deadline exceeded"), KindRPCTransient, false},
		{errors.New("429 too many requests"), KindRPCTransient, false},
		{errors.New("unknown account"), KindNoAccountAccess, true},
		{fmt.Errorf("dial: %w", ledger.ErrWrongNetwork), KindWrongNetwork, true},
		{fmt.Errorf("mint: %w", ledger.ErrEventNotFound), KindEventNotFound, true},
		{errors.New("something entirely else"), KindUnknown, true},
	}
	for _, tt := range tests {
		cerr := classify(tt.err)
		require.Equalf(t, tt.kind, cerr.Kind, "classify(%q)", tt.err)
		require.Equalf(t, tt.fatal, cerr.Fatal(), "Fatal(%q)", tt.err)
	}
}

func TestClassifiedErrorsPreserveCause(t *testing.T) {
	cause := errors.New("insufficient funds for transfer")
	cerr := classify(fmt.Errorf("send: %w", cause))
	require.Equal(t, KindInsufficientFunds, cerr.Kind)
	require.ErrorIs(t, cerr, cause)
}

func TestClassifyPassesThroughClassified(t *testing.T) {
	orig := &Error{Kind: KindCostMismatch}
	require.Same(t, orig, classify(fmt.Errorf("wrap: %w", orig)))
}

func TestUserMessagePerKind(t *testing.T) {
	// One human-readable message per kind, not the raw transport error.
	cerr := classify(errors.New("insufficient funds for gas * price + value"))
	require.Equal(t, "account balance cannot cover this settlement", cerr.Error())

	// Unknown errors fall back to the raw text.
	raw := classify(errors.New("weird wire glitch"))
	require.Equal(t, "weird wire glitch", raw.Error())
}
