package parser

import (
	"strconv"
	"strings"

	"github.com/gyaneshwarpardhi/combatlog/internal/event"
)

// Extract builds the payload for an already classified line.
// Missing or unparsable optional fields are left absent rather than
// reported; ok is false only when the line lacks a field the kind cannot
// exist without: a cast without an ability, or a purchase whose token is
// the bare "item_" prefix. Such lines are skipped, not stored empty.
func Extract(kind event.Kind, tokens []string) (event.Payload, bool) {
	switch kind {
	case event.KindSpellCast:
		return extractSpellCast(tokens)
	case event.KindDamageDone:
		return extractDamageDone(tokens), true
	case event.KindHeroKilled:
		return extractHeroKilled(tokens), true
	case event.KindItemPurchased:
		return extractItemPurchased(tokens)
	}
	return nil, false
}

func extractSpellCast(tokens []string) (event.Payload, bool) {
	ability := tokenAt(tokens, idxAbility)
	if ability == "" {
		return nil, false
	}
	sc := event.SpellCast{Ability: ability}
	// Only the first candidate is considered, e.g. "1)" in "(lvl 1)".
	if idxLevelStart < len(tokens) {
		tok := tokens[idxLevelStart]
		if len(tok) > 1 {
			if lvl, err := strconv.Atoi(tok[:len(tok)-1]); err == nil && lvl >= 0 {
				sc.Level = event.Ptr(lvl)
			}
		}
	}
	return sc, true
}

func extractDamageDone(tokens []string) event.Payload {
	var dd event.DamageDone
	if target, ok := heroName(tokenAt(tokens, idxObject)); ok {
		dd.Target = event.Ptr(target)
	}
	// The first "for" anywhere on the line wins, even inside a longer
	// description; the target position is never read as the marker.
	for i, tok := range tokens {
		if i == idxObject || tok != markerFor {
			continue
		}
		if i+1 < len(tokens) {
			if dmg, err := strconv.Atoi(tokens[i+1]); err == nil && dmg >= 0 {
				dd.Damage = event.Ptr(dmg)
			}
		}
		break
	}
	return dd
}

// extractHeroKilled reads the target from the object position, like a hit.
// On a well-formed line that token is the "killed" marker, so the target is
// absent; the killer named after "by" is not recorded.
func extractHeroKilled(tokens []string) event.Payload {
	var hk event.HeroKilled
	if target, ok := heroName(tokenAt(tokens, idxObject)); ok {
		hk.Target = event.Ptr(target)
	}
	return hk
}

func extractItemPurchased(tokens []string) (event.Payload, bool) {
	item := strings.TrimPrefix(tokenAt(tokens, idxObject), itemPrefix)
	if item == "" {
		return nil, false
	}
	return event.ItemPurchased{Item: item}, true
}
