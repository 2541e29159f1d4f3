package bot

const winBonus = 1000.0

// Tuning weighs the features the smart bot scores a position by.
type Tuning struct {
	// SkillWeight scales the party's best skill tally as a share of its quest threshold.
	SkillWeight float64
	// OpponentSkillWeight is subtracted per opponent the same way.
	OpponentSkillWeight float64
	HandCardWeight      float64
	QuestHeldBonus      float64
	WizardBonus         float64
	HealerBonus         float64
	SpellcasterBonus    float64
	// DrawValue is the expected gain of drawing a card.
	DrawValue float64
	// PassThreshold is the gain a move needs over passing once passing is allowed.
	PassThreshold float64
	WinBonus      float64
}

// DefaultTuning races to a quest while keeping opponents off theirs.
var DefaultTuning = Tuning{
	SkillWeight:         10.0,
	OpponentSkillWeight: 4.0,
	HandCardWeight:      0.5,
	QuestHeldBonus:      2.0,
	WizardBonus:         1.0,
	HealerBonus:         2.0,
	SpellcasterBonus:    3.0,
	DrawValue:           1.5,
	PassThreshold:       0.25,
	WinBonus:            winBonus,
}
