package domain

// Rules binds a card catalog to the table limits. All transitions are
// methods on Rules so the same engine can run alternate decks.
type Rules struct {
	Catalog              *Catalog
	MinPlayers           int
	MaxPlayers           int
	HandSizeDealt        int
	MaxHandSize          int
	QuestThreshold       int
	SpellcasterThreshold int
}

// DefaultRules returns the standard deck and limits.
func DefaultRules() *Rules {
	return &Rules{
		Catalog:              StandardCatalog(),
		MinPlayers:           2,
		MaxPlayers:           5,
		HandSizeDealt:        3,
		MaxHandSize:          5,
		QuestThreshold:       6,
		SpellcasterThreshold: 5,
	}
}

// LegalActions is what the mover may currently do.
type LegalActions struct {
	CanDraw         bool     `json:"canDraw"`
	CanDump         bool     `json:"canDump"`
	CanDrawFromPile bool     `json:"canDrawFromPile"`
	Playable        []CardID `json:"playable"`
	CanPlayAutoWin  bool     `json:"canPlayAutoWin"`
	CanPass         bool     `json:"canPass"`
	CanConfirm      bool     `json:"canConfirm"`
}

// Any reports whether at least one action is offered.
func (l LegalActions) Any() bool {
	return l.CanDraw || l.CanDump || l.CanDrawFromPile || len(l.Playable) > 0 || l.CanPass || l.CanConfirm
}

// CanPlay reports whether id is among the playable cards.
func (l LegalActions) CanPlay(id CardID) bool {
	for _, c := range l.Playable {
		if c == id {
			return true
		}
	}
	return false
}

// Ability returns the wizard ability held in a party, if any.
func (r *Rules) Ability(p Party) (Ability, bool) {
	if p[SlotWizard] == NoCard {
		return "", false
	}
	c, ok := r.Catalog.Card(p[SlotWizard])
	if !ok || c.Kind != KindWizard {
		return "", false
	}
	return c.Ability, true
}

func (r *Rules) hasAbility(p Party, a Ability) bool {
	got, ok := r.Ability(p)
	return ok && got == a
}

// SkillTally counts skill tags across a party's heroes.
func (r *Rules) SkillTally(p Party) map[Skill]int {
	tally := make(map[Skill]int, len(Skills))
	for _, id := range p.Heroes() {
		c, ok := r.Catalog.Card(id)
		if !ok {
			continue
		}
		for _, s := range c.Skills {
			tally[s]++
		}
	}
	return tally
}

// QuestThresholdFor returns the matching-skill count a party needs.
func (r *Rules) QuestThresholdFor(p Party) int {
	if r.hasAbility(p, Spellcaster) {
		return r.SpellcasterThreshold
	}
	return r.QuestThreshold
}

// CanPlayQuest reports whether seat meets the quest threshold for any tag.
func (r *Rules) CanPlayQuest(s *GameState, seat int) bool {
	if seat < 0 || seat >= len(s.Players) {
		return false
	}
	party := s.Players[seat].Party
	threshold := r.QuestThresholdFor(party)
	for _, n := range r.SkillTally(party) {
		if n >= threshold {
			return true
		}
	}
	return false
}

// moverMayAct is the common gate for draw, play, dump and draw-from-pile.
func moverMayAct(s *GameState) bool {
	return !s.Over() && s.Declaration == nil && !s.Turn.Acted
}

// cardPlayable checks whether the mover may play id right now.
func (r *Rules) cardPlayable(s *GameState, id CardID) bool {
	if !moverMayAct(s) || indexOf(s.Current().Hand, id) < 0 {
		return false
	}
	c, ok := r.Catalog.Card(id)
	if !ok {
		return false
	}
	switch c.Kind {
	case KindHero, KindWizard:
		return true
	case KindQuest:
		return r.CanPlayQuest(s, s.Mover)
	case KindEvent:
		if c.Effect == EffectEagles {
			return len(s.DrawPile) == 0
		}
		return s.EffectNotice == nil
	}
	return false
}

// LegalActions computes the offerable actions for the mover.
func (r *Rules) LegalActions(s *GameState) LegalActions {
	var la LegalActions
	if s.Over() {
		return la
	}
	if s.Declaration != nil {
		la.CanConfirm = true
		return la
	}
	cur := s.Current()
	la.CanPass = s.Turn.HasDrawn || s.Turn.Acted || s.Turn.DoublePlayUsed ||
		(len(cur.Hand) == 0 && len(s.DrawPile) == 0)
	if s.Turn.Acted {
		return la
	}

	la.CanDraw = len(cur.Hand) < r.MaxHandSize &&
		!s.Turn.HasDrawn &&
		!s.Turn.DoublePlayUsed &&
		len(s.DrawPile) > 0 &&
		s.DrawNotice == nil

	for _, id := range cur.Hand {
		if !r.cardPlayable(s, id) {
			continue
		}
		la.Playable = append(la.Playable, id)
		if c, _ := r.Catalog.Card(id); c.Effect == EffectEagles {
			la.CanPlayAutoWin = true
		}
	}

	if s.DumpNotice == nil {
		for _, id := range cur.Hand {
			if c, ok := r.Catalog.Card(id); ok && c.Kind != KindEvent {
				la.CanDump = true
				break
			}
		}
	}

	la.CanDrawFromPile = r.hasAbility(cur.Party, Summoner) &&
		len(s.DiscardPile) > 0 &&
		s.SummonNotice == nil
	return la
}
