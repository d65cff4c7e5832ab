// Copyright 2026 The hafindexer Authors
// This file is part of the hafindexer library.
//
// The hafindexer library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The hafindexer library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the hafindexer library. If not, see <http://www.gnu.org/licenses/>.

package chain

import (
	"encoding/json"
	"fmt"
)

// DecodeOperation turns a raw {type, value} record into the typed
// Operation sum. Unknown types decode successfully with every typed field
// left nil, so they can still be counted; only a malformed value for a
// known type is an error.
func DecodeOperation(raw RawOperation, txIndex int) (Operation, error) {
	op := Operation{Type: raw.Type, Tx: txIndex}

	var err error
	switch raw.Type {
	case OpPow:
		op.Pow = new(PowOp)
		err = json.Unmarshal(raw.Value, op.Pow)
	case OpPow2:
		op.Pow2 = new(Pow2Op)
		err = json.Unmarshal(raw.Value, op.Pow2)
	case OpAccountCreate:
		op.AccountCreate = new(AccountCreateOp)
		err = json.Unmarshal(raw.Value, op.AccountCreate)
	case OpAccountCreateWithDelegation:
		op.AccountCreateWithDelegation = new(AccountCreateWithDelegationOp)
		err = json.Unmarshal(raw.Value, op.AccountCreateWithDelegation)
	case OpCreateClaimedAccount:
		op.CreateClaimedAccount = new(CreateClaimedAccountOp)
		err = json.Unmarshal(raw.Value, op.CreateClaimedAccount)
	case OpAccountUpdate:
		op.AccountUpdate = new(AccountUpdateOp)
		err = json.Unmarshal(raw.Value, op.AccountUpdate)
	case OpAccountUpdate2:
		op.AccountUpdate2 = new(AccountUpdate2Op)
		err = json.Unmarshal(raw.Value, op.AccountUpdate2)
	case OpComment:
		op.Comment = new(CommentOp)
		err = json.Unmarshal(raw.Value, op.Comment)
	case OpDeleteComment:
		op.DeleteComment = new(DeleteCommentOp)
		err = json.Unmarshal(raw.Value, op.DeleteComment)
	case OpCommentOptions:
		op.CommentOptions = new(CommentOptionsOp)
		err = json.Unmarshal(raw.Value, op.CommentOptions)
	case OpVote:
		op.Vote = new(VoteOp)
		err = json.Unmarshal(raw.Value, op.Vote)
	case OpTransfer:
		op.Transfer = new(TransferOp)
		err = json.Unmarshal(raw.Value, op.Transfer)
	case OpCustomJSON:
		op.CustomJSON = new(CustomJSONOp)
		err = json.Unmarshal(raw.Value, op.CustomJSON)
	default:
		// "other": counted but not decoded further.
	}
	if err != nil {
		return Operation{}, fmt.Errorf("chain: decoding %s operation: %w", raw.Type, err)
	}
	return op, nil
}

// DecodeTransactions decodes every operation of every transaction in
// block order, tagging each with its transaction index.
func DecodeTransactions(txs []Transaction) ([]Operation, error) {
	ops := make([]Operation, 0, len(txs))
	for txIdx, tx := range txs {
		for _, raw := range tx.Operations {
			op, err := DecodeOperation(raw, txIdx)
			if err != nil {
				return nil, err
			}
			ops = append(ops, op)
		}
	}
	return ops, nil
}
