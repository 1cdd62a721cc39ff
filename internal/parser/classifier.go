package parser

import (
	"strings"

	"github.com/gyaneshwarpardhi/combatlog/internal/event"
)

// Classify decides which event kind a tokenized line describes.
// ok is false for lines that are not one of the four recognised events.
func Classify(tokens []string) (kind event.Kind, actor string, ok bool) {
	if len(tokens) <= idxVerb {
		return "", "", false
	}
	actor, isHero := heroName(tokens[idxActor])
	if !isHero {
		return "", "", false
	}

	switch tokens[idxVerb] {
	case verbCasts:
		return event.KindSpellCast, actor, true
	case verbHits:
		return event.KindDamageDone, actor, true
	case verbIs:
		if tokenAt(tokens, idxObject) == markerKilled {
			return event.KindHeroKilled, actor, true
		}
	case verbUses:
		if strings.HasPrefix(tokenAt(tokens, idxObject), itemPrefix) {
			return event.KindItemPurchased, actor, true
		}
	}
	return "", "", false
}

// heroName strips the hero marker. A bare marker is not a hero reference.
func heroName(token string) (string, bool) {
	name, found := strings.CutPrefix(token, heroPrefix)
	if !found || name == "" {
		return "", false
	}
	return name, true
}

func tokenAt(tokens []string, i int) string {
	if i < len(tokens) {
		return tokens[i]
	}
	return ""
}
