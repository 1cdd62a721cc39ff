package stats

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/gyaneshwarpardhi/combatlog/internal/event"
	"github.com/gyaneshwarpardhi/combatlog/internal/metrics"
	"github.com/gyaneshwarpardhi/combatlog/internal/store"
)

// HeroKills is the number of HeroKilled events recorded for one actor.
type HeroKills struct {
	Hero  string `json:"hero"`
	Kills int    `json:"kills"`
}

// HeroItem is one purchase, in log order.
type HeroItem struct {
	Item      string `json:"item"`
	Timestamp int64  `json:"timestamp"`
}

// HeroSpells is the number of casts of one ability.
type HeroSpells struct {
	Spell string `json:"spell"`
	Casts int    `json:"casts"`
}

// HeroDamage sums one hero's hits on one target.
type HeroDamage struct {
	Target          string `json:"target"`
	DamageInstances int    `json:"damage_instances"`
	TotalDamage     int    `json:"total_damage"`
}

// Aggregator answers summary queries over stored events. It never writes.
type Aggregator struct {
	events store.EventSource
}

// New creates an Aggregator reading from src.
func New(src store.EventSource) *Aggregator {
	return &Aggregator{events: src}
}

// HeroKills groups HeroKilled events by actor. Sorted by hero name.
func (a *Aggregator) HeroKills(ctx context.Context, match event.MatchID) ([]HeroKills, error) {
	metrics.Queries.WithLabelValues("kills").Inc()
	evs, err := a.events.FindByMatchAndKind(ctx, match, event.KindHeroKilled)
	if err != nil {
		return nil, fmt.Errorf("hero kills: %w", err)
	}
	counts := make(map[string]int)
	for _, ev := range evs {
		counts[ev.Actor]++
	}
	out := make([]HeroKills, 0, len(counts))
	for hero, n := range counts {
		out = append(out, HeroKills{Hero: hero, Kills: n})
	}
	slices.SortFunc(out, func(x, y HeroKills) int { return cmp.Compare(x.Hero, y.Hero) })
	return out, nil
}

// HeroItems lists the hero's purchases in the order they were logged.
func (a *Aggregator) HeroItems(ctx context.Context, match event.MatchID, hero string) ([]HeroItem, error) {
	metrics.Queries.WithLabelValues("items").Inc()
	evs, err := a.events.FindByMatchActorAndKind(ctx, match, hero, event.KindItemPurchased)
	if err != nil {
		return nil, fmt.Errorf("hero items: %w", err)
	}
	out := make([]HeroItem, 0, len(evs))
	for _, ev := range evs {
		p, ok := ev.Payload.(event.ItemPurchased)
		if !ok {
			continue
		}
		out = append(out, HeroItem{Item: p.Item, Timestamp: ev.Timestamp})
	}
	return out, nil
}

// HeroSpells counts the hero's casts per ability. Sorted by ability.
func (a *Aggregator) HeroSpells(ctx context.Context, match event.MatchID, hero string) ([]HeroSpells, error) {
	metrics.Queries.WithLabelValues("spells").Inc()
	evs, err := a.events.FindByMatchActorAndKind(ctx, match, hero, event.KindSpellCast)
	if err != nil {
		return nil, fmt.Errorf("hero spells: %w", err)
	}
	counts := make(map[string]int)
	for _, ev := range evs {
		if p, ok := ev.Payload.(event.SpellCast); ok {
			counts[p.Ability]++
		}
	}
	out := make([]HeroSpells, 0, len(counts))
	for spell, n := range counts {
		out = append(out, HeroSpells{Spell: spell, Casts: n})
	}
	slices.SortFunc(out, func(x, y HeroSpells) int { return cmp.Compare(x.Spell, y.Spell) })
	return out, nil
}

// HeroDamage groups the hero's hits by target in a single pass, so the hit
// count and the total always describe the same events. Hits on non-heroes
// are left out; a hit without an amount counts but adds nothing.
// Sorted by target.
func (a *Aggregator) HeroDamage(ctx context.Context, match event.MatchID, hero string) ([]HeroDamage, error) {
	metrics.Queries.WithLabelValues("damage").Inc()
	evs, err := a.events.FindByMatchActorAndKind(ctx, match, hero, event.KindDamageDone)
	if err != nil {
		return nil, fmt.Errorf("hero damage: %w", err)
	}
	byTarget := make(map[string]*HeroDamage)
	for _, ev := range evs {
		p, ok := ev.Payload.(event.DamageDone)
		if !ok || p.Target == nil {
			continue
		}
		hd := byTarget[*p.Target]
		if hd == nil {
			hd = &HeroDamage{Target: *p.Target}
			byTarget[*p.Target] = hd
		}
		hd.DamageInstances++
		if p.Damage != nil {
			hd.TotalDamage += *p.Damage
		}
	}
	out := make([]HeroDamage, 0, len(byTarget))
	for _, hd := range byTarget {
		out = append(out, *hd)
	}
	slices.SortFunc(out, func(x, y HeroDamage) int { return cmp.Compare(x.Target, y.Target) })
	return out, nil
}
