package app

import (
	"herowiz/internal/domain"
)

// ActionType names one entry of the action union sent over the wire.
type ActionType string

const (
	ActionDraw                      ActionType = "draw"
	ActionPassTurn                  ActionType = "pass_turn"
	ActionPlayCard                  ActionType = "play_card"
	ActionDeclarePlay               ActionType = "declare_play"
	ActionConfirmDeclaration        ActionType = "confirm_declaration"
	ActionDumpCard                  ActionType = "dump_card"
	ActionDrawFromPile              ActionType = "draw_from_pile"
	ActionDismissDrew               ActionType = "dismiss_drew"
	ActionDismissDumped             ActionType = "dismiss_dumped"
	ActionDismissDrewFromPile       ActionType = "dismiss_drew_from_pile"
	ActionDismissEffectNotice       ActionType = "dismiss_effect_notice"
	ActionDismissDeclarationPreview ActionType = "dismiss_declaration_preview"
)

// Action is a request to change the game. Card is required by the card
// actions; Target only by effects that need a choice.
type Action struct {
	Type   ActionType     `json:"type"`
	Card   *domain.CardID `json:"cardId,omitempty"`
	Target *domain.Target `json:"target,omitempty"`
}

// AlwaysAllowed reports whether any seat may send t regardless of whose turn it is.
func AlwaysAllowed(t ActionType) bool {
	switch t {
	case ActionDismissDrew, ActionDismissDumped, ActionDismissDrewFromPile,
		ActionDismissEffectNotice, ActionDismissDeclarationPreview:
		return true
	}
	return false
}

func cardAction(t ActionType, id domain.CardID, target *domain.Target) Action {
	return Action{Type: t, Card: &id, Target: target}
}

// Draw builds a draw action.
func Draw() Action { return Action{Type: ActionDraw} }

// PassTurn builds a pass action.
func PassTurn() Action { return Action{Type: ActionPassTurn} }

// PlayCard builds a play that applies immediately and previews to others.
func PlayCard(id domain.CardID, target *domain.Target) Action {
	return cardAction(ActionPlayCard, id, target)
}

// DeclarePlay builds a declaration that waits for confirmation.
func DeclarePlay(id domain.CardID, target *domain.Target) Action {
	return cardAction(ActionDeclarePlay, id, target)
}

// ConfirmDeclaration confirms the pending declaration; target may be nil.
func ConfirmDeclaration(target *domain.Target) Action {
	return Action{Type: ActionConfirmDeclaration, Target: target}
}

// DumpCard discards a non-event card.
func DumpCard(id domain.CardID) Action { return cardAction(ActionDumpCard, id, nil) }

// DrawFromPile takes a card from the discard pile.
func DrawFromPile(id domain.CardID) Action { return cardAction(ActionDrawFromPile, id, nil) }

// Dismiss builds one of the dismiss actions.
func Dismiss(t ActionType) Action { return Action{Type: t} }
