package domain

// Phase represents the lifecycle stage of a game.
type Phase string

const (
	// PhaseChoosingAction means the mover may act.
	PhaseChoosingAction Phase = "choosing_action"
	// PhaseGameOver is terminal.
	PhaseGameOver Phase = "game_over"
)

// Slot indexes a Party.
type Slot int

const (
	SlotWizard Slot = iota
	SlotKnight
	SlotArcher
	SlotBarbarian
	SlotThief
)

// String returns the slot label used in player-facing messages.
func (s Slot) String() string {
	switch s {
	case SlotWizard:
		return "Wizard"
	case SlotKnight:
		return string(Knight)
	case SlotArcher:
		return string(Archer)
	case SlotBarbarian:
		return string(Barbarian)
	case SlotThief:
		return string(Thief)
	}
	return "Unknown"
}

// FactionSlot maps a hero faction to its party slot.
func FactionSlot(f Faction) Slot {
	switch f {
	case Knight:
		return SlotKnight
	case Archer:
		return SlotArcher
	case Barbarian:
		return SlotBarbarian
	case Thief:
		return SlotThief
	}
	return -1
}

// Party is a player's board: one wizard slot and one slot per hero faction.
// Empty slots hold NoCard, so build parties with EmptyParty.
type Party [5]CardID

// EmptyParty returns a party with every slot empty.
func EmptyParty() Party {
	return Party{NoCard, NoCard, NoCard, NoCard, NoCard}
}

// Heroes returns the occupied hero slots in slot order.
func (p Party) Heroes() []CardID {
	var out []CardID
	for s := SlotKnight; s <= SlotThief; s++ {
		if p[s] != NoCard {
			out = append(out, p[s])
		}
	}
	return out
}

// Player is one seat's identity, hand and party.
type Player struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Hand  []CardID `json:"hand"`
	Party Party    `json:"party"`
}

// Turn holds the flags that reset whenever the mover changes.
type Turn struct {
	HasDrawn       bool `json:"hasDrawn"`
	Acted          bool `json:"acted"`
	DoublePlayUsed bool `json:"doublePlayUsed"`
}

// Target is a player choice, optionally with a card from that player's hand.
type Target struct {
	Player int     `json:"player"`
	Card   *CardID `json:"card,omitempty"`
}

// PlayerTarget targets a seat.
func PlayerTarget(seat int) *Target {
	return &Target{Player: seat}
}

// CardTarget targets a card held by a seat.
func CardTarget(seat int, card CardID) *Target {
	return &Target{Player: seat, Card: &card}
}

// Declaration is a play recorded but not yet applied.
type Declaration struct {
	Seat   int     `json:"seat"`
	Card   CardID  `json:"card"`
	Target *Target `json:"target,omitempty"`
}

// Preview is a catch-up notice for a play that was already applied.
type Preview struct {
	Seat    int     `json:"seat"`
	Card    CardID  `json:"card"`
	Target  *Target `json:"target,omitempty"`
	Message string  `json:"message"`
}

// CardNotice tells other seats that Seat moved Card.
type CardNotice struct {
	Seat int    `json:"seat"`
	Card CardID `json:"card"`
}

// SeatNotice tells other seats that Seat drew.
type SeatNotice struct {
	Seat int `json:"seat"`
}

// EffectNoticeKind distinguishes effect displays.
type EffectNoticeKind string

const (
	NoticeFortuneReading EffectNoticeKind = "fortune_reading"
	NoticeBlocked        EffectNoticeKind = "blocked"
)

// EffectNotice is shown after an effect that needs acknowledging.
type EffectNotice struct {
	Seat       int              `json:"seat"`
	Kind       EffectNoticeKind `json:"kind"`
	TargetSeat int              `json:"targetSeat"`
	Message    string           `json:"message"`
}

// GameState is one snapshot of a game. Transitions never modify a
// GameState in place: they return a fresh value, or the same pointer when
// the action was rejected.
type GameState struct {
	Players      []Player `json:"players"`
	DrawPile     []CardID `json:"drawPile"`
	DiscardPile  []CardID `json:"discardPile"`
	Mover        int      `json:"mover"`
	FirstPlayer  int      `json:"firstPlayer"`
	Phase        Phase    `json:"phase"`
	Winner       string   `json:"winner,omitempty"`
	Left         []int    `json:"left"`
	Disconnected []int    `json:"disconnected"`
	Turn         Turn     `json:"turn"`

	Declaration  *Declaration  `json:"declaration,omitempty"`
	Preview      *Preview      `json:"preview,omitempty"`
	DrawNotice   *SeatNotice   `json:"drawNotice,omitempty"`
	DumpNotice   *CardNotice   `json:"dumpNotice,omitempty"`
	SummonNotice *CardNotice   `json:"summonNotice,omitempty"`
	EffectNotice *EffectNotice `json:"effectNotice,omitempty"`
}

// Over reports whether the game has ended.
func (s *GameState) Over() bool {
	return s.Phase == PhaseGameOver || s.Winner != ""
}

// Current returns the mover's player record.
func (s *GameState) Current() *Player {
	return &s.Players[s.Mover]
}

// WinnerSeat returns the seat index of the winner or -1.
func (s *GameState) WinnerSeat() int {
	if s.Winner == "" {
		return -1
	}
	for i, p := range s.Players {
		if p.ID == s.Winner {
			return i
		}
	}
	return -1
}

// clone returns a deep copy. Sub-state pointers are shared because they are
// replaced, never edited.
func (s *GameState) clone() *GameState {
	next := *s
	next.Players = make([]Player, len(s.Players))
	for i, p := range s.Players {
		p.Hand = cloneIDs(p.Hand)
		next.Players[i] = p
	}
	next.DrawPile = cloneIDs(s.DrawPile)
	next.DiscardPile = cloneIDs(s.DiscardPile)
	next.Left = cloneInts(s.Left)
	next.Disconnected = cloneInts(s.Disconnected)
	return &next
}
