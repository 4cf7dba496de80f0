// AngelaMos | 2026
// state.go

package reaction

import (
	"fmt"

	"github.com/carterperez-dev/articles-api/internal/core"
)

// State is a user's standing on one article. NEUTRAL has no Like row.
type State string

const (
	StateNeutral  State = "NEUTRAL"
	StateLiked    State = "LIKED"
	StateDisliked State = "DISLIKED"
)

type Action string

const (
	ActionLike    Action = "like"
	ActionDislike Action = "dislike"
)

type RowOp int

const (
	OpCreate RowOp = iota + 1
	OpUpdate
	OpDelete
)

const (
	MsgChangedToLike    = "Changed to like"
	MsgLikeRemoved      = "Like removed"
	MsgChangedToDislike = "Changed to dislike"
	MsgDislikeRemoved   = "Dislike removed"
)

// Step is the full outcome of applying an action to a state: the next state,
// what happens to the Like row, and how both counters move.
type Step struct {
	Next          State
	Op            RowOp
	LikesDelta    int
	DislikesDelta int
	Message       string
}

type transitionKey struct {
	from   State
	action Action
}

var transitions = map[transitionKey]Step{
	{StateNeutral, ActionLike}: {
		Next: StateLiked, Op: OpCreate, LikesDelta: 1, Message: MsgChangedToLike,
	},
	{StateLiked, ActionLike}: {
		Next: StateNeutral, Op: OpDelete, LikesDelta: -1, Message: MsgLikeRemoved,
	},
	{StateDisliked, ActionLike}: {
		Next: StateLiked, Op: OpUpdate, LikesDelta: 1, DislikesDelta: -1, Message: MsgChangedToLike,
	},
	{StateNeutral, ActionDislike}: {
		Next: StateDisliked, Op: OpCreate, DislikesDelta: 1, Message: MsgChangedToDislike,
	},
	{StateDisliked, ActionDislike}: {
		Next: StateNeutral, Op: OpDelete, DislikesDelta: -1, Message: MsgDislikeRemoved,
	},
	{StateLiked, ActionDislike}: {
		Next: StateDisliked, Op: OpUpdate, LikesDelta: -1, DislikesDelta: 1, Message: MsgChangedToDislike,
	},
}

func Transition(current State, action Action) (Step, error) {
	step, ok := transitions[transitionKey{current, action}]
	if !ok {
		return Step{}, fmt.Errorf(
			"transition %s on %s: %w", action, current, core.ErrInvalidInput,
		)
	}
	return step, nil
}

// StateOf maps an optional Like row onto a State.
func StateOf(like *Like) State {
	switch {
	case like == nil:
		return StateNeutral
	case like.Liked:
		return StateLiked
	default:
		return StateDisliked
	}
}

// UserLike renders a state the way clients see it: null, true or false.
func (s State) UserLike() *bool {
	var v bool
	switch s {
	case StateLiked:
		v = true
	case StateDisliked:
		v = false
	default:
		return nil
	}
	return &v
}
