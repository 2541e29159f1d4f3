package domain

func hero(id CardID, name string, faction Faction, skills ...Skill) Card {
	return Card{ID: id, Name: name, Kind: KindHero, Faction: faction, Skills: skills}
}

func wizard(id CardID, name string, ability Ability, text string) Card {
	return Card{ID: id, Name: name, Kind: KindWizard, Ability: ability, Text: text}
}

func event(id CardID, name string, effect EffectID, text string) Card {
	return Card{ID: id, Name: name, Kind: KindEvent, Effect: effect, Text: text}
}

func quest(id CardID, text string) Card {
	return Card{ID: id, Name: "Quest", Kind: KindQuest, Text: text}
}

// standardCards is the 72-card base deck: 4 quests, 12 wizards, 28 events, 28 heroes.
var standardCards = []Card{
	quest(0, "Win the Game! Requires 6 matching skills"),
	quest(1, "Win the Game! Requires 6 matching skills"),
	quest(2, "Win the Game! Requires 6 matching skills"),
	quest(3, "Win the Game! Requires 6 matching skills"),
	wizard(4, "Wizard Healer", Healer, "No player can steal a hero from your party"),
	wizard(5, "Wizard Healer", Healer, "No player can steal a hero from your party"),
	wizard(6, "Wizard Healer", Healer, "No player can steal a hero from your party"),
	wizard(7, "Wizard Spellcaster", Spellcaster, "You only need 5 matching skills to play a Quest Card"),
	wizard(8, "Wizard Spellcaster", Spellcaster, "You only need 5 matching skills to play a Quest Card"),
	wizard(9, "Wizard Spellcaster", Spellcaster, "You only need 5 matching skills to play a Quest Card"),
	wizard(10, "Wizard Stargazer", Stargazer, "You can play 2 cards in one turn"),
	wizard(11, "Wizard Stargazer", Stargazer, "You can play 2 cards in one turn"),
	wizard(12, "Wizard Stargazer", Stargazer, "You can play 2 cards in one turn"),
	wizard(13, "Wizard Summoner", Summoner, "As a turn, you can draw any one card from the event pile"),
	wizard(14, "Wizard Summoner", Summoner, "As a turn, you can draw any one card from the event pile"),
	wizard(15, "Wizard Summoner", Summoner, "As a turn, you can draw any one card from the event pile"),
	event(16, "Archery Contest", EffectArcheryContest, "Steal an Archer from any player's party (swap it with your own if you have one)"),
	event(17, "Archery Contest", EffectArcheryContest, "Steal an Archer from any player's party (swap it with your own if you have one)"),
	event(18, "Archery Contest", EffectArcheryContest, "Steal an Archer from any player's party (swap it with your own if you have one)"),
	event(19, "Feast in the East Hall", EffectFeastEast, "All players give their entire hand to the player on their right"),
	event(20, "Feast in the West Hall", EffectFeastWest, "All players give their entire hand to the player on their left"),
	event(21, "Fortune Reading", EffectFortuneReading, "Have a private peek at all other players' hands"),
	event(22, "Fortune Reading", EffectFortuneReading, "Have a private peek at all other players' hands"),
	event(23, "Hunting Expedition", EffectHuntingExpedition, "Look at a selected player's hand and choose one card to steal"),
	event(24, "Hunting Expedition", EffectHuntingExpedition, "Look at a selected player's hand and choose one card to steal"),
	event(25, "Hunting Expedition", EffectHuntingExpedition, "Look at a selected player's hand and choose one card to steal"),
	event(26, "Hunting Expedition", EffectHuntingExpedition, "Look at a selected player's hand and choose one card to steal"),
	event(27, "Hunting Expedition", EffectHuntingExpedition, "Look at a selected player's hand and choose one card to steal"),
	event(28, "Royal Invitation", EffectRoyalInvitation, "Steal a Knight from any player's party (swap it with your own if you have one)"),
	event(29, "Royal Invitation", EffectRoyalInvitation, "Steal a Knight from any player's party (swap it with your own if you have one)"),
	event(30, "Royal Invitation", EffectRoyalInvitation, "Steal a Knight from any player's party (swap it with your own if you have one)"),
	event(31, "Spell of Summoning", EffectSpellOfSummoning, "Steal a Wizard from any player's party (swap it with your own if you have one)"),
	event(32, "Spell of Summoning", EffectSpellOfSummoning, "Steal a Wizard from any player's party (swap it with your own if you have one)"),
	event(33, "Spell of Summoning", EffectSpellOfSummoning, "Steal a Wizard from any player's party (swap it with your own if you have one)"),
	event(34, "Spell of Summoning", EffectSpellOfSummoning, "Steal a Wizard from any player's party (swap it with your own if you have one)"),
	event(35, "Tavern Brawl", EffectTavernBrawl, "Steal a Barbarian from any player's party (swap it with your own if you have one)"),
	event(36, "Tavern Brawl", EffectTavernBrawl, "Steal a Barbarian from any player's party (swap it with your own if you have one)"),
	event(37, "Tavern Brawl", EffectTavernBrawl, "Steal a Barbarian from any player's party (swap it with your own if you have one)"),
	event(38, "The Giant Eagles Arrive!", EffectEagles, "Win the Game! You can only play this card if all cards in the deck are drawn"),
	event(39, "Unguarded Treasure", EffectUnguardedTreasure, "Steal a Thief from any player's party (swap it with your own if you have one)"),
	event(40, "Unguarded Treasure", EffectUnguardedTreasure, "Steal a Thief from any player's party (swap it with your own if you have one)"),
	event(41, "Unguarded Treasure", EffectUnguardedTreasure, "Steal a Thief from any player's party (swap it with your own if you have one)"),
	event(42, "Wizard Tower Repairs", EffectWizardTowerRepairs, "Send a wizard from any one party to the event pile"),
	event(43, "Wizard Tower Repairs", EffectWizardTowerRepairs, "Send a wizard from any one party to the event pile"),
	hero(44, "Lord Vlobnik", Barbarian, Strong, Strong, Magic),
	hero(45, "Jaspar the Jester", Thief, Fast, Magic),
	hero(46, "Wulfric Duskaxe", Barbarian, Fast, Magic, Magic),
	hero(47, "Robbin' Rob", Archer, Strong, Fast, Fast),
	hero(48, "Furui Ninjin", Knight, Strong, Fast),
	hero(49, "Cleoparcher", Archer, Fast, Magic),
	hero(50, "Stefan Swifthand", Thief, Fast, Fast),
	hero(51, "Lady O'Faun", Thief, Strong, Magic, Magic),
	hero(52, "Kara Karslashian", Knight, Strong, Strong),
	hero(53, "Morvin the Mugger", Thief, Strong, Strong, Fast),
	hero(54, "Prince Daphric II", Knight, Sturdy, Fast),
	hero(55, "Sir Brutus Bigblade", Knight, Strong, Sturdy, Sturdy),
	hero(56, "Ugrog Moglog", Archer, Strong, Magic),
	hero(57, "Skullsberg", Barbarian, Sturdy, Magic),
	hero(58, "Sir Leo of the Light", Knight, Sturdy, Magic),
	hero(59, "Choppy von Chop", Barbarian, Strong, Sturdy),
	hero(60, "Silviel Gilderleaf", Archer, Sturdy, Sturdy, Magic),
	hero(61, "Princess Pinecone", Knight, Fast, Fast, Magic),
	hero(62, "Raziz of Aza", Knight, Strong, Magic, Magic),
	hero(63, "Orgnar Ironbeard", Barbarian, Sturdy, Sturdy),
	hero(64, "Brobo Pockpickins", Thief, Sturdy, Sturdy, Fast),
	hero(65, "Siania Sand", Archer, Sturdy, Fast),
	hero(66, "The Forest Shaman", Archer, Magic, Magic),
	hero(67, "Dougie MacLobber", Archer, Strong, Strong, Sturdy),
	hero(68, "Sneaky Sam", Thief, Strong, Sturdy),
	hero(69, "The Shadow Guard", Barbarian, Sturdy, Fast, Fast),
	hero(70, "Lola Lullabard", Thief, Sturdy, Magic),
	hero(71, "Ragna the Reckless", Barbarian, Strong, Fast),
}

var standardCatalog = &Catalog{cards: standardCards}

// StandardCatalog returns the base deck.
func StandardCatalog() *Catalog {
	return standardCatalog
}
