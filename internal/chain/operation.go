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

// Operation tags as they appear on the wire, exactly as the upstream
// node emits them.
const (
	OpPow                         = "pow_operation"
	OpPow2                        = "pow2_operation"
	OpAccountCreate               = "account_create_operation"
	OpAccountCreateWithDelegation = "account_create_with_delegation_operation"
	OpCreateClaimedAccount        = "create_claimed_account_operation"
	OpAccountUpdate               = "account_update_operation"
	OpAccountUpdate2              = "account_update2_operation"
	OpComment                     = "comment_operation"
	OpDeleteComment               = "delete_comment_operation"
	OpCommentOptions              = "comment_options_operation"
	OpVote                        = "vote_operation"
	OpTransfer                    = "transfer_operation"
	OpCustomJSON                  = "custom_json_operation"
)

// Operation is the sum type produced by decoding a RawOperation. For the
// tags above exactly one of the typed fields is non-nil; for any other
// tag none is. Type always holds the wire tag so callers that only need
// a count need not type-switch.
type Operation struct {
	Type string
	Tx   int

	Pow                         *PowOp
	Pow2                        *Pow2Op
	AccountCreate               *AccountCreateOp
	AccountCreateWithDelegation *AccountCreateWithDelegationOp
	CreateClaimedAccount        *CreateClaimedAccountOp
	AccountUpdate               *AccountUpdateOp
	AccountUpdate2              *AccountUpdate2Op
	Comment                     *CommentOp
	DeleteComment               *DeleteCommentOp
	CommentOptions              *CommentOptionsOp
	Vote                        *VoteOp
	Transfer                    *TransferOp
	CustomJSON                  *CustomJSONOp
}

// IsAccountCreating reports whether this operation introduces a new
// account name; the router's discovery pass scans for these.
func (op Operation) IsAccountCreating() bool {
	switch op.Type {
	case OpPow, OpPow2, OpAccountCreate, OpAccountCreateWithDelegation, OpCreateClaimedAccount:
		return true
	default:
		return false
	}
}

// NewAccountName returns the account name introduced by an
// account-creating operation, or "" for any other operation.
func (op Operation) NewAccountName() string {
	switch {
	case op.Pow != nil:
		return op.Pow.WorkerAccount
	case op.Pow2 != nil:
		return op.Pow2.Work.Value.Input.WorkerAccount
	case op.AccountCreate != nil:
		return op.AccountCreate.NewAccountName
	case op.AccountCreateWithDelegation != nil:
		return op.AccountCreateWithDelegation.NewAccountName
	case op.CreateClaimedAccount != nil:
		return op.CreateClaimedAccount.NewAccountName
	default:
		return ""
	}
}

// PowOp is the payload of a pow_operation.
type PowOp struct {
	WorkerAccount string `json:"worker_account"`
}

// Pow2Op is the payload of a pow2_operation. The worker account name is
// buried inside a nested work envelope on the real wire format.
type Pow2Op struct {
	Work struct {
		Value struct {
			Input struct {
				WorkerAccount string `json:"worker_account"`
			} `json:"input"`
		} `json:"value"`
	} `json:"work"`
}

// AccountCreateOp is the payload of an account_create_operation.
type AccountCreateOp struct {
	NewAccountName string `json:"new_account_name"`
	Creator        string `json:"creator"`
}

// AccountCreateWithDelegationOp is the payload of an
// account_create_with_delegation_operation.
type AccountCreateWithDelegationOp struct {
	NewAccountName string `json:"new_account_name"`
	Creator        string `json:"creator"`
}

// CreateClaimedAccountOp is the payload of a
// create_claimed_account_operation.
type CreateClaimedAccountOp struct {
	NewAccountName string `json:"new_account_name"`
	Creator        string `json:"creator"`
}

// AccountUpdateOp is the payload of an account_update_operation.
type AccountUpdateOp struct {
	Account string `json:"account"`
}

// AccountUpdate2Op is the payload of an account_update2_operation.
type AccountUpdate2Op struct {
	Account string `json:"account"`
}

// CommentOp is the payload of a comment_operation (covers both posts and
// comments, as the wire protocol does not distinguish them).
type CommentOp struct {
	Author       string `json:"author"`
	Permlink     string `json:"permlink"`
	ParentAuthor string `json:"parent_author"`
	Body         string `json:"body"`
	JSONMetadata string `json:"json_metadata"`
}

// DeleteCommentOp is the payload of a delete_comment_operation.
type DeleteCommentOp struct {
	Author   string `json:"author"`
	Permlink string `json:"permlink"`
}

// CommentOptionsOp is the payload of a comment_options_operation.
type CommentOptionsOp struct {
	Author               string `json:"author"`
	Permlink             string `json:"permlink"`
	MaxAcceptedPayout    string `json:"max_accepted_payout"`
	AllowVotes           bool   `json:"allow_votes"`
	AllowCurationRewards bool   `json:"allow_curation_rewards"`
}

// VoteOp is the payload of a vote_operation.
type VoteOp struct {
	Voter    string `json:"voter"`
	Author   string `json:"author"`
	Permlink string `json:"permlink"`
	Weight   int32  `json:"weight"`
}

// TransferOp is the payload of a transfer_operation.
type TransferOp struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount string `json:"amount"`
	Memo   string `json:"memo"`
}

// CustomJSONOp is the payload of a custom_json_operation.
type CustomJSONOp struct {
	RequiredAuths        []string `json:"required_auths"`
	RequiredPostingAuths []string `json:"required_posting_auths"`
	ID                   string   `json:"id"`
	JSON                 string   `json:"json"`
}
