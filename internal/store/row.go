package store

import (
	"fmt"

	"github.com/gyaneshwarpardhi/combatlog/internal/event"
)

// eventRow is the flattened, nullable column layout shared by the SQL
// backends. Columns that do not apply to a kind are stored as NULL.
type eventRow struct {
	MatchID      string
	Kind         string
	Timestamp    int64
	Actor        string
	Target       *string
	Ability      *string
	AbilityLevel *int64
	Item         *string
	Damage       *int64
}

func toRow(ev event.Event) (eventRow, error) {
	r := eventRow{
		MatchID:   string(ev.MatchID),
		Kind:      string(ev.Kind()),
		Timestamp: ev.Timestamp,
		Actor:     ev.Actor,
	}
	switch p := ev.Payload.(type) {
	case event.SpellCast:
		r.Ability = event.Ptr(p.Ability)
		r.AbilityLevel = widen(p.Level)
	case event.DamageDone:
		r.Target = p.Target
		r.Damage = widen(p.Damage)
	case event.HeroKilled:
		r.Target = p.Target
	case event.ItemPurchased:
		r.Item = event.Ptr(p.Item)
	default:
		return eventRow{}, fmt.Errorf("unsupported payload %T", ev.Payload)
	}
	return r, nil
}

func (r eventRow) toEvent() (event.Event, error) {
	kind, err := event.ParseKind(r.Kind)
	if err != nil {
		return event.Event{}, err
	}
	ev := event.Event{
		MatchID:   event.MatchID(r.MatchID),
		Timestamp: r.Timestamp,
		Actor:     r.Actor,
	}
	switch kind {
	case event.KindSpellCast:
		ev.Payload = event.SpellCast{Ability: deref(r.Ability), Level: narrow(r.AbilityLevel)}
	case event.KindDamageDone:
		ev.Payload = event.DamageDone{Target: r.Target, Damage: narrow(r.Damage)}
	case event.KindHeroKilled:
		ev.Payload = event.HeroKilled{Target: r.Target}
	case event.KindItemPurchased:
		ev.Payload = event.ItemPurchased{Item: deref(r.Item)}
	}
	return ev, nil
}

func widen(v *int) *int64 {
	if v == nil {
		return nil
	}
	return event.Ptr(int64(*v))
}

func narrow(v *int64) *int {
	if v == nil {
		return nil
	}
	return event.Ptr(int(*v))
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
