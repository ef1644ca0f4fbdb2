package combat

import (
	"context"

	"dustveil/server/logging"
)

const (
	// EventDamageDealt is emitted whenever a shot connects with a target.
	EventDamageDealt logging.EventType = "combat.damage_dealt"
	// EventKill is emitted when a mob's health reaches zero.
	EventKill logging.EventType = "combat.kill"
)

// DamagePayload describes one resolved hit.
type DamagePayload struct {
	Damage float64 `json:"damage"`
	Crit   bool    `json:"crit,omitempty"`
}

// KillPayload names the mob type that died.
type KillPayload struct {
	MobType string `json:"mobType"`
}

// DamageDealt publishes a hit event.
func DamageDealt(ctx context.Context, pub logging.Publisher, tick uint64, actor, target logging.EntityRef, payload DamagePayload) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventDamageDealt,
		Tick:     tick,
		Actor:    actor,
		Targets:  []logging.EntityRef{target},
		Severity: logging.SeverityInfo,
		Category: logging.CategoryCombat,
		Payload:  payload,
	}
	pub.Publish(ctx, event)
}

// Kill publishes a mob death event.
func Kill(ctx context.Context, pub logging.Publisher, tick uint64, killer, mob logging.EntityRef, mobType string) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventKill,
		Tick:     tick,
		Actor:    killer,
		Targets:  []logging.EntityRef{mob},
		Severity: logging.SeverityInfo,
		Category: logging.CategoryCombat,
		Payload:  KillPayload{MobType: mobType},
	}
	pub.Publish(ctx, event)
}
