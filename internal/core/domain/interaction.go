package domain

import "time"

// Action est l'une des six interactions toggle reconnues.
type Action string

const (
	ActionLike       Action = "like"
	ActionUnlike     Action = "unlike"
	ActionInterest   Action = "interest"
	ActionUninterest Action = "uninterest"
	ActionChoice     Action = "choice"
	ActionUnchoice   Action = "unchoice"
)

// Champs miroir côté document utilisateur.
const (
	MirrorLikedPosts = "liked_posts"
	MirrorInterests  = "interests"
	MirrorChoices    = "choices"
)

// Valid rejette tout ce qui n'est pas une des six actions.
func (a Action) Valid() bool {
	switch a {
	case ActionLike, ActionUnlike, ActionInterest, ActionUninterest, ActionChoice, ActionUnchoice:
		return true
	}
	return false
}

// IsRemoval distingue les inverses (unlike/uninterest/unchoice).
func (a Action) IsRemoval() bool {
	return a == ActionUnlike || a == ActionUninterest || a == ActionUnchoice
}

// TargetSet donne l'ensemble côté document visé par l'action.
func (a Action) TargetSet() InteractionSet {
	switch a {
	case ActionLike, ActionUnlike:
		return SetLikes
	case ActionInterest, ActionUninterest:
		return SetInterests
	case ActionChoice, ActionUnchoice:
		return SetChoices
	}
	return ""
}

// MirrorField donne la liste miroir côté document utilisateur.
func (a Action) MirrorField() string {
	switch a.TargetSet() {
	case SetLikes:
		return MirrorLikedPosts
	case SetInterests:
		return MirrorInterests
	case SetChoices:
		return MirrorChoices
	}
	return ""
}

// InteractionCounts est l'état des compteurs après application.
type InteractionCounts struct {
	Likes     int `json:"likes"`
	Interests int `json:"interests"`
	Choices   int `json:"choices"`
}

// InteractionResult est ce que le moteur rend à la couche routes.
type InteractionResult struct {
	EntityID      string
	Kind          Kind
	UpdatedCounts InteractionCounts
	IsActiveAfter bool
}

// InteractionEvent est publié (best-effort) après chaque application.
type InteractionEvent struct {
	EntityID string            `json:"entity_id"`
	Kind     Kind              `json:"kind"`
	UserID   string            `json:"user_id"`
	Action   Action            `json:"action"`
	Counts   InteractionCounts `json:"counts"`
	At       time.Time         `json:"at"`
}

// MirrorOp : sens de la réparation d'une liste miroir.
type MirrorOp string

const (
	MirrorOpAdd    MirrorOp = "add"
	MirrorOpRemove MirrorOp = "remove"
)

// MirrorRepair est une écriture miroir utilisateur qui a échoué après le
// succès de l'écriture primaire côté document. Elle est mise en file et
// rejouée par le balayage de réconciliation.
type MirrorRepair struct {
	ID       string    `json:"id"`
	UserID   string    `json:"user_id"`
	Field    string    `json:"field"`
	EntityID string    `json:"entity_id"`
	Op       MirrorOp  `json:"op"`
	FailedAt time.Time `json:"failed_at"`
}
