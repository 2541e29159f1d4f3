package domain

import (
	"encoding/json"
	"fmt"
	"os"
)

// CardID identifies a card in a Catalog. The standard deck uses 0..71.
type CardID int

// NoCard marks an empty party slot.
const NoCard CardID = -1

// Kind is the card variant.
type Kind string

const (
	KindHero   Kind = "hero"
	KindWizard Kind = "wizard"
	KindEvent  Kind = "event"
	KindQuest  Kind = "quest"
)

// Faction is the party slot a hero occupies.
type Faction string

const (
	Knight    Faction = "Knight"
	Archer    Faction = "Archer"
	Barbarian Faction = "Barbarian"
	Thief     Faction = "Thief"
)

// Factions lists the hero factions in party slot order.
var Factions = [...]Faction{Knight, Archer, Barbarian, Thief}

// Ability is the wizard power held in the party's wizard slot.
type Ability string

const (
	Healer      Ability = "Healer"
	Spellcaster Ability = "Spellcaster"
	Stargazer   Ability = "Stargazer"
	Summoner    Ability = "Summoner"
)

// Skill is a tag counted across a party's heroes for quest eligibility.
type Skill string

const (
	Strong Skill = "Strong"
	Fast   Skill = "Fast"
	Magic  Skill = "Magic"
	Sturdy Skill = "Sturdy"
)

// Skills lists every skill tag.
var Skills = [...]Skill{Strong, Fast, Magic, Sturdy}

// EffectID keys the event resolution table.
type EffectID string

const (
	EffectArcheryContest     EffectID = "archery_contest"
	EffectRoyalInvitation    EffectID = "royal_invitation"
	EffectTavernBrawl        EffectID = "tavern_brawl"
	EffectUnguardedTreasure  EffectID = "unguarded_treasure"
	EffectSpellOfSummoning   EffectID = "spell_of_summoning"
	EffectFeastEast          EffectID = "feast_east"
	EffectFeastWest          EffectID = "feast_west"
	EffectFortuneReading     EffectID = "fortune_reading"
	EffectHuntingExpedition  EffectID = "hunting_expedition"
	EffectWizardTowerRepairs EffectID = "wizard_tower_repairs"
	EffectEagles             EffectID = "eagles"
)

// TargetArity describes what an effect needs chosen before it resolves.
type TargetArity int

const (
	TargetNone TargetArity = iota
	TargetPlayer
	TargetPlayerAndHandCard
)

var effectArity = map[EffectID]TargetArity{
	EffectArcheryContest:     TargetPlayer,
	EffectRoyalInvitation:    TargetPlayer,
	EffectTavernBrawl:        TargetPlayer,
	EffectUnguardedTreasure:  TargetPlayer,
	EffectSpellOfSummoning:   TargetPlayer,
	EffectWizardTowerRepairs: TargetPlayer,
	EffectHuntingExpedition:  TargetPlayerAndHandCard,
}

// Arity returns the target shape the effect expects.
func (e EffectID) Arity() TargetArity {
	return effectArity[e]
}

// StealsFaction returns the hero faction an effect steals, if it is a hero steal.
func (e EffectID) StealsFaction() (Faction, bool) {
	switch e {
	case EffectRoyalInvitation:
		return Knight, true
	case EffectArcheryContest:
		return Archer, true
	case EffectTavernBrawl:
		return Barbarian, true
	case EffectUnguardedTreasure:
		return Thief, true
	}
	return "", false
}

// Card is an immutable card definition.
type Card struct {
	ID      CardID   `json:"id"`
	Name    string   `json:"name"`
	Kind    Kind     `json:"kind"`
	Faction Faction  `json:"faction,omitempty"`
	Skills  []Skill  `json:"skills,omitempty"`
	Ability Ability  `json:"ability,omitempty"`
	Effect  EffectID `json:"effect,omitempty"`
	Text    string   `json:"text,omitempty"`
}

// Catalog is a read-only lookup from card id to definition.
type Catalog struct {
	cards []Card
}

// NewCatalog builds a catalog. Card ids must equal their index.
func NewCatalog(cards []Card) (*Catalog, error) {
	for i, c := range cards {
		if int(c.ID) != i {
			return nil, fmt.Errorf("card at index %d has id %d", i, c.ID)
		}
		switch c.Kind {
		case KindHero:
			if c.Faction == "" || len(c.Skills) == 0 {
				return nil, fmt.Errorf("hero %d missing faction or skills", c.ID)
			}
		case KindWizard:
			if c.Ability == "" {
				return nil, fmt.Errorf("wizard %d missing ability", c.ID)
			}
		case KindEvent:
			if c.Effect == "" {
				return nil, fmt.Errorf("event %d missing effect", c.ID)
			}
		case KindQuest:
		default:
			return nil, fmt.Errorf("card %d has unknown kind %q", c.ID, c.Kind)
		}
	}
	out := make([]Card, len(cards))
	copy(out, cards)
	return &Catalog{cards: out}, nil
}

// LoadCatalog reads a JSON array of cards from path.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	var cards []Card
	if err := json.Unmarshal(data, &cards); err != nil {
		return nil, fmt.Errorf("failed to unmarshal catalog: %w", err)
	}
	return NewCatalog(cards)
}

// Card looks up a definition.
func (c *Catalog) Card(id CardID) (Card, bool) {
	if id < 0 || int(id) >= len(c.cards) {
		return Card{}, false
	}
	return c.cards[id], true
}

// Len is the number of cards in the deck.
func (c *Catalog) Len() int {
	return len(c.cards)
}
