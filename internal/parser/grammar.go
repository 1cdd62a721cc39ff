package parser

// Combat log grammar. Lines are split on single spaces and fields are
// addressed by position:
//
//	[ts] npc_dota_hero_<actor> casts ability <ability> (lvl <n>) on <target>
//	[ts] npc_dota_hero_<actor> hits npc_dota_hero_<target> with <source> for <n> damage ...
//	[ts] npc_dota_hero_<actor> is killed by npc_dota_hero_<killer>
//	[ts] npc_dota_hero_<actor> uses item_<item>
//
// Every positional offset used by the classifier and extractor lives here.
const (
	heroPrefix = "npc_dota_hero_"
	itemPrefix = "item_"

	idxTimestamp  = 0
	idxActor      = 1
	idxVerb       = 2
	idxObject     = 3 // damage and kill target, purchased item
	idxAbility    = 4
	idxLevelStart = 6

	minTokens = 2

	verbCasts = "casts"
	verbHits  = "hits"
	verbIs    = "is"
	verbUses  = "uses"

	markerKilled = "killed"
	markerFor    = "for"
)
