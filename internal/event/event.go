package event

import (
	"encoding/json"
	"fmt"
)

// MatchID identifies the match an event belongs to. It is opaque to the core.
type MatchID string

// Kind is the closed set of event kinds recognised in a combat log.
type Kind string

const (
	KindSpellCast     Kind = "SPELL_CAST"
	KindDamageDone    Kind = "DAMAGE_DONE"
	KindHeroKilled    Kind = "HERO_KILLED"
	KindItemPurchased Kind = "ITEM_PURCHASED"
)

// Kinds lists every recognised kind.
var Kinds = []Kind{KindSpellCast, KindDamageDone, KindHeroKilled, KindItemPurchased}

// ParseKind converts a stored kind string back into a Kind.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown event kind %q", s)
}

// Payload is the kind-specific part of an event. Exactly four types
// implement it; each carries only the fields that exist for its kind.
type Payload interface {
	Kind() Kind
	isPayload()
}

// SpellCast is an ability cast. Level is nil when the line had no level token.
type SpellCast struct {
	Ability string `json:"ability"`
	Level   *int   `json:"ability_level,omitempty"`
}

// DamageDone is one hit. Target is nil when the hit landed on a non-hero,
// Damage is nil when the line had no "for <amount>" clause.
type DamageDone struct {
	Target *string `json:"target,omitempty"`
	Damage *int    `json:"damage,omitempty"`
}

// HeroKilled records a hero death.
type HeroKilled struct {
	Target *string `json:"target,omitempty"`
}

// ItemPurchased records an item bought by the actor.
type ItemPurchased struct {
	Item string `json:"item"`
}

func (SpellCast) Kind() Kind     { return KindSpellCast }
func (DamageDone) Kind() Kind    { return KindDamageDone }
func (HeroKilled) Kind() Kind    { return KindHeroKilled }
func (ItemPurchased) Kind() Kind { return KindItemPurchased }

func (SpellCast) isPayload()     {}
func (DamageDone) isPayload()    {}
func (HeroKilled) isPayload()    {}
func (ItemPurchased) isPayload() {}

// Event is one parsed combat log occurrence.
type Event struct {
	MatchID   MatchID `json:"match_id,omitempty"`
	Timestamp int64   `json:"timestamp"` // millis since the start of the log's day
	Actor     string  `json:"actor"`
	Payload   Payload `json:"payload"`
}

// Kind returns the kind of the event's payload.
func (e Event) Kind() Kind {
	if e.Payload == nil {
		return ""
	}
	return e.Payload.Kind()
}

// MarshalJSON adds the derived kind so encoded events are self-describing.
func (e Event) MarshalJSON() ([]byte, error) {
	type plain Event
	return json.Marshal(struct {
		plain
		Kind Kind `json:"kind"`
	}{plain(e), e.Kind()})
}

// Ptr returns a pointer to v. Used to populate optional payload fields.
func Ptr[T any](v T) *T {
	return &v
}
