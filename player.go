package server

import "time"

// PlayerLifecycle is the tri-state session machine. Exactly one state holds
// at any time.
type PlayerLifecycle string

const (
	LifecycleAlive     PlayerLifecycle = "alive"
	LifecycleDead      PlayerLifecycle = "dead"
	LifecycleSpectator PlayerLifecycle = "spectator"
)

// Player is the broadcast-facing view of a player.
type Player struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Pos          Vec3            `json:"pos"`
	Vel          Vec3            `json:"vel"`
	Health       float64         `json:"hp"`
	MaxHealth    float64         `json:"maxHp"`
	Lives        int             `json:"lives"`
	Lifecycle    PlayerLifecycle `json:"state"`
	Invulnerable bool            `json:"invulnerable"`
	Equipped     string          `json:"equipped,omitempty"` // weapon seed
	Inventory    []Weapon        `json:"inventory"`
}

// playerState is the authoritative mutable record. Only the room goroutine
// touches it; inbound messages land here as intent fields first.
type playerState struct {
	Player

	// Input intent, written only from the owning player's own messages.
	intentForward float64
	intentRight   float64
	aim           Vec3
	firing        bool
	jumpQueued    bool
	jumpQueuedAt  time.Time
	jumpHeld      bool

	// Timers.
	lastFire     time.Time
	lastGrounded time.Time
	invulnUntil  time.Time
	onGround     bool

	// Deadlines evaluated lazily each tick, never scheduled as timers.
	respawnAt      time.Time
	spectatorUntil time.Time
	disconnectedAt time.Time // zero while a connection is attached

	equippedIdx int // index into Inventory, -1 when nothing equipped
}

func (p *playerState) snapshot(now time.Time) Player {
	view := p.Player
	view.Invulnerable = p.invulnerableAt(now)
	view.Inventory = append([]Weapon(nil), p.Inventory...)
	return view
}

// equippedWeapon returns the currently equipped weapon, if any. The equipped
// reference is always an element of the inventory.
func (p *playerState) equippedWeapon() (Weapon, bool) {
	if p.equippedIdx < 0 || p.equippedIdx >= len(p.Inventory) {
		return Weapon{}, false
	}
	return p.Inventory[p.equippedIdx], true
}

// equip points the equipped slot at the inventory entry with the given seed.
func (p *playerState) equip(itemID string) bool {
	for i, weapon := range p.Inventory {
		if weapon.Seed == itemID {
			p.equippedIdx = i
			p.Equipped = weapon.Seed
			return true
		}
	}
	return false
}

// addWeapon appends to the inventory preserving acquisition order.
func (p *playerState) addWeapon(weapon Weapon) {
	p.Inventory = append(p.Inventory, weapon)
}

func (p *playerState) invulnerableAt(now time.Time) bool {
	return !p.invulnUntil.IsZero() && now.Before(p.invulnUntil)
}

// applyHealthDelta adjusts hp, clamped to [0, maxHp].
func (p *playerState) applyHealthDelta(delta float64) {
	p.Health = clamp(p.Health+delta, 0, p.MaxHealth)
}

// targetable reports whether combat may select this player as a victim.
func (p *playerState) targetable(now time.Time) bool {
	return p.Lifecycle == LifecycleAlive && !p.invulnerableAt(now)
}
