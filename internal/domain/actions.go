package domain

// Every transition below returns s itself when the action is not legal.

// Draw moves the front of the draw pile into the mover's hand.
func (r *Rules) Draw(s *GameState) *GameState {
	if !r.LegalActions(s).CanDraw {
		return s
	}
	next := s.clone()
	cur := next.Current()
	cur.Hand = append(cur.Hand, next.DrawPile[0])
	next.DrawPile = next.DrawPile[1:]
	next.Turn.HasDrawn = true
	next.DrawNotice = &SeatNotice{Seat: next.Mover}
	return next
}

// Play plays a card from the mover's hand. target is only read by effects.
func (r *Rules) Play(s *GameState, id CardID, target *Target) *GameState {
	if !r.cardPlayable(s, id) {
		return s
	}
	card, _ := r.Catalog.Card(id)
	next := s.clone()
	cur := next.Current()
	cur.Hand = removeAt(cur.Hand, indexOf(cur.Hand, id))

	switch card.Kind {
	case KindHero:
		placeInSlot(cur, FactionSlot(card.Faction), id)
	case KindWizard:
		placeInSlot(cur, SlotWizard, id)
	case KindQuest:
		// The quest leaves the game.
		next.Phase = PhaseGameOver
		next.Winner = cur.ID
		return next
	case KindEvent:
		next.DiscardPile = append(next.DiscardPile, id)
		r.resolveEffect(next, card.Effect, target)
		if next.Over() {
			return next
		}
	}
	r.afterPlay(next)
	return next
}

// placeInSlot puts id into slot, returning any occupant to hand.
func placeInSlot(p *Player, slot Slot, id CardID) {
	if old := p.Party[slot]; old != NoCard {
		p.Hand = append(p.Hand, old)
	}
	p.Party[slot] = id
}

// afterPlay consumes the Stargazer grant once per turn, otherwise ends the mover's actions.
func (r *Rules) afterPlay(s *GameState) {
	if r.hasAbility(s.Current().Party, Stargazer) && !s.Turn.DoublePlayUsed {
		s.Turn.DoublePlayUsed = true
		return
	}
	s.Turn.Acted = true
}

// PlayWithPreview plays immediately and leaves a catch-up preview for the
// other seats. An already pending preview is left in place.
func (r *Rules) PlayWithPreview(s *GameState, id CardID, target *Target) *GameState {
	msg := r.DeclarationMessage(s, s.Mover, id, target)
	seat := s.Mover
	next := r.Play(s, id, target)
	if next == s || next.Preview != nil {
		return next
	}
	next.Preview = &Preview{Seat: seat, Card: id, Target: target, Message: msg}
	return next
}

// DeclarePlay records an intended play without applying it.
func (r *Rules) DeclarePlay(s *GameState, id CardID, target *Target) *GameState {
	if !r.cardPlayable(s, id) {
		return s
	}
	next := s.clone()
	next.Declaration = &Declaration{Seat: s.Mover, Card: id, Target: target}
	return next
}

// ConfirmDeclaration applies the pending declaration. A non-nil target
// replaces the declared one, which is how two-step effects supply their card.
func (r *Rules) ConfirmDeclaration(s *GameState, target *Target) *GameState {
	d := s.Declaration
	if d == nil {
		return s
	}
	base := s.clone()
	base.Declaration = nil
	if d.Seat != base.Mover {
		return base
	}
	if target == nil {
		target = d.Target
	}
	return r.Play(base, d.Card, target)
}

// Dump discards a non-event card from the mover's hand.
func (r *Rules) Dump(s *GameState, id CardID) *GameState {
	if !moverMayAct(s) || s.DumpNotice != nil {
		return s
	}
	i := indexOf(s.Current().Hand, id)
	if i < 0 {
		return s
	}
	if c, ok := r.Catalog.Card(id); !ok || c.Kind == KindEvent {
		return s
	}
	next := s.clone()
	cur := next.Current()
	cur.Hand = removeAt(cur.Hand, i)
	next.DiscardPile = append(next.DiscardPile, id)
	next.Turn.Acted = true
	next.DumpNotice = &CardNotice{Seat: next.Mover, Card: id}
	return next
}

// DrawFromPile takes a chosen card from the discard pile. Requires a Summoner.
func (r *Rules) DrawFromPile(s *GameState, id CardID) *GameState {
	if !r.LegalActions(s).CanDrawFromPile {
		return s
	}
	i := indexOf(s.DiscardPile, id)
	if i < 0 {
		return s
	}
	next := s.clone()
	next.DiscardPile = removeAt(next.DiscardPile, i)
	cur := next.Current()
	cur.Hand = append(cur.Hand, id)
	next.Turn.Acted = true
	next.SummonNotice = &CardNotice{Seat: next.Mover, Card: id}
	return next
}

// Pass hands the turn to the next active seat.
func (r *Rules) Pass(s *GameState) *GameState {
	if !r.LegalActions(s).CanPass {
		return s
	}
	next := s.clone()
	advanceTurn(next)
	return next
}

// advanceTurn moves to the next active seat after the mover and resets the
// turn flags. With one or no active seat left the game ends.
func advanceTurn(s *GameState) {
	s.Turn = Turn{}
	active := ActiveSeats(s)
	if len(active) <= 1 {
		endWithSoleSurvivor(s, active)
		return
	}
	n := len(s.Players)
	for step := 1; step <= n; step++ {
		seat := (s.Mover + step) % n
		if isActive(s, seat) {
			s.Mover = seat
			return
		}
	}
}

func endWithSoleSurvivor(s *GameState, active []int) {
	s.Phase = PhaseGameOver
	if len(active) == 1 {
		s.Winner = s.Players[active[0]].ID
	}
}

// DismissDraw clears the drew-a-card notice.
func (r *Rules) DismissDraw(s *GameState) *GameState {
	if s.DrawNotice == nil {
		return s
	}
	next := s.clone()
	next.DrawNotice = nil
	return next
}

// DismissDump clears the dumped-a-card notice.
func (r *Rules) DismissDump(s *GameState) *GameState {
	if s.DumpNotice == nil {
		return s
	}
	next := s.clone()
	next.DumpNotice = nil
	return next
}

// DismissSummon clears the drew-from-pile notice.
func (r *Rules) DismissSummon(s *GameState) *GameState {
	if s.SummonNotice == nil {
		return s
	}
	next := s.clone()
	next.SummonNotice = nil
	return next
}

// DismissEffect clears the effect notice.
func (r *Rules) DismissEffect(s *GameState) *GameState {
	if s.EffectNotice == nil {
		return s
	}
	next := s.clone()
	next.EffectNotice = nil
	return next
}

// CancelDeclaration drops a pending declaration without playing it. The card
// stays in hand and the turn is not spent.
func (r *Rules) CancelDeclaration(s *GameState) *GameState {
	if s.Declaration == nil {
		return s
	}
	next := s.clone()
	next.Declaration = nil
	return next
}

// DismissPreview clears the catch-up preview.
func (r *Rules) DismissPreview(s *GameState) *GameState {
	if s.Preview == nil {
		return s
	}
	next := s.clone()
	next.Preview = nil
	return next
}
