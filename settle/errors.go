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
	"strings"

	"github.com/aigentchain/go-aigent/ledger"
)

// Kind classifies every failure crossing the settlement boundary. Transport
// and runtime errors are mapped into a Kind at the submitter; only classified
// errors reach callers.
type Kind int

const (
	// KindUnknown is the final fallback when no classification matches.
	KindUnknown Kind = iota

	// KindUserRejected: the signer declined. Fatal, never retried.
	KindUserRejected

	// KindInsufficientFunds: the account cannot cover value plus fees.
	// Fatal, never retried.
	KindInsufficientFunds

	// KindWrongNetwork: endpoint serves a different chain. One automatic
	// switch to the configured fallback endpoint is attempted at dial time.
	KindWrongNetwork

	// KindNoAccountAccess: no unlocked signing account. One unlock request
	// is attempted before failing.
	KindNoAccountAccess

	// KindNetworkCongestion: fee or mempool pressure rejected the
	// submission. Advances the escalation ladder.
	KindNetworkCongestion

	// KindRPCTransient: transport-level failure. Advances the ladder.
	KindRPCTransient

	// KindContractRevert: the transaction confirmed but reverted.
	// Deterministic, so retrying would fail identically.
	KindContractRevert

	// KindNoUsageRights: the caller holds no pathway to use the agent.
	// Raised before any transaction is built.
	KindNoUsageRights

	// KindNotForRent: rental requested on an agent not listed for rent.
	KindNotForRent

	// KindCostMismatch: component costs do not sum to the total the caller
	// is about to spend.
	KindCostMismatch

	// KindEventNotFound: an expected event was absent; a logged heuristic
	// fallback applied. Non-fatal.
	KindEventNotFound

	// KindInvalidAddress: the user address is not a valid account identifier.
	KindInvalidAddress

	// KindNotOwner: operation requires ownership of the token.
	KindNotOwner

	// KindStaleNonce: the settlement's nonce was already consumed on chain,
	// so every resubmission under it fails identically. The submitter
	// refetches the nonce before the next rung.
	KindStaleNonce
)

// Pre-submission sentinel errors.
var (
	ErrNoUsageRights  = &Error{Kind: KindNoUsageRights}
	ErrNotForRent     = &Error{Kind: KindNotForRent}
	ErrInvalidAddress = &Error{Kind: KindInvalidAddress}
	ErrNotOwner       = &Error{Kind: KindNotOwner}
)

// Error is a classified settlement failure. It carries a single
// human-readable message per kind; the raw cause is retained for logs and
// errors.Is/As chains but is not surfaced to users.
type Error struct {
	Kind  Kind
	cause error
}

func (e *Error) Error() string {
	msg := kindMessages[e.Kind]
	if msg == "" {
		if e.cause != nil {
			return e.cause.Error()
		}
		msg = "settlement failed"
	}
	return msg
}

func (e *Error) Unwrap() error { return e.cause }

// Is reports kind equality so sentinel comparisons work.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Fatal reports whether the failure must abort the escalation ladder
// immediately instead of advancing to the next rung.
func (e *Error) Fatal() bool {
	switch e.Kind {
	case KindNetworkCongestion, KindRPCTransient, KindStaleNonce:
		return false
	}
	return true
}

var kindMessages = map[Kind]string{
	KindUserRejected:      "transaction was rejected by the signer",
	KindInsufficientFunds: "account balance cannot cover this settlement",
	KindWrongNetwork:      "connected to the wrong network",
	KindNoAccountAccess:   "no account is available for signing",
	KindNetworkCongestion: "network is congested, settlement not accepted",
	KindRPCTransient:      "ledger endpoint is temporarily unavailable",
	KindContractRevert:    "the ledger contract rejected this settlement",
	KindNoUsageRights:     "no usage rights for this agent",
	KindNotForRent:        "agent is not listed for rent",
	KindCostMismatch:      "settlement cost components do not match the total",
	KindEventNotFound:     "expected ledger event was not found",
	KindInvalidAddress:    "invalid account address",
	KindNotOwner:          "caller does not own this agent",
	KindStaleNonce:        "settlement nonce was already consumed",
}

// classify wraps err into a classified Error. Matching is by substring over
// the transport error text, the only signal JSON-RPC errors carry.
func classify(err error) *Error {
	if err == nil {
		return nil
	}
	var ce *Error
	if errors.As(err, &ce) {
		return ce
	}
	kind := KindUnknown
	switch s := strings.ToLower(err.Error()); {
	case errors.Is(err, ledger.ErrWrongNetwork):
		kind = KindWrongNetwork
	case errors.Is(err, ledger.ErrEventNotFound):
		kind = KindEventNotFound
	case contains(s, "user denied", "user rejected", "request rejected", "signing declined"):
		kind = KindUserRejected
	case contains(s, "insufficient funds", "insufficient balance"):
		kind = KindInsufficientFunds
	case contains(s, "no keys available", "unknown account", "account is locked", "could not decrypt key"):
		kind = KindNoAccountAccess
	case contains(s, "execution reverted", "always failing transaction", "invalid opcode", "out of gas"):
		kind = KindContractRevert
	case contains(s, "nonce too low"):
		kind = KindStaleNonce
	case contains(s, "underpriced", "txpool is full", "max fee per gas less than block base fee",
		"fee cap less than", "already known"):
		// "already known" stays here: the escalated rung reuses the nonce
		// with different fees, a valid replacement of the pool copy.
		kind = KindNetworkCongestion
	case contains(s, "connection refused", "connection reset", "timeout", "timed out",
		"eof", "deadline exceeded", "502", "503", "too many requests", "no such host"):
		kind = KindRPCTransient
	}
	return &Error{Kind: kind, cause: err}
}

func contains(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
