package server

import "time"

// MobType is the closed enumeration of mob variants. Each type binds base
// stats from mobTypeParams and a behavior from mobBehaviors.
type MobType string

const (
	MobCharger MobType = "charger"
	MobJumper  MobType = "jumper"
	MobSniper  MobType = "sniper"
	MobTank    MobType = "tank"
	MobSwarm   MobType = "swarm"
	MobShooter MobType = "shooter"
)

// MobMode is the coarse AI state reported in snapshots.
type MobMode string

const (
	ModePatrol MobMode = "patrol"
	ModeAlert  MobMode = "alert"
	ModeAttack MobMode = "attack"
)

// Mob is the broadcast-facing view of a mob.
type Mob struct {
	ID        string  `json:"id"`
	Type      MobType `json:"type"`
	Pos       Vec3    `json:"pos"`
	Vel       Vec3    `json:"vel"`
	Health    float64 `json:"hp"`
	MaxHealth float64 `json:"maxHp"`
	Mode      MobMode `json:"mode"`
}

// mobState is the authoritative mutable record, owned by the room goroutine.
type mobState struct {
	Mob

	targetID   string // current target player, empty when none
	lastAttack time.Time
	onGround   bool

	// Type-specific scratch state.
	patrolTarget Vec3
	hasPatrol    bool
	jumpReadyAt  time.Time

	insertSeq uint64 // insertion order, used for difficulty-cap truncation
}

func (m *mobState) snapshot() Mob {
	return m.Mob
}

// mobTypeParams is the immutable per-type stat table. Ranges are base values
// before the difficulty range multiplier; speeds before the speed multiplier.
type mobTypeParams struct {
	MaxHealth    float64
	Speed        float64
	AlertRange   float64
	AttackRange  float64
	AttackDamage float64
	AttackCD     time.Duration
	HitboxRadius float64
	SpawnWeight  int
}

var mobTypeTable = map[MobType]mobTypeParams{
	MobCharger: {MaxHealth: 60, Speed: 6.5, AlertRange: 30, AttackRange: 1.8, AttackDamage: 12, AttackCD: 900 * time.Millisecond, HitboxRadius: 1.0, SpawnWeight: 25},
	MobJumper:  {MaxHealth: 45, Speed: 5.5, AlertRange: 28, AttackRange: 12, AttackDamage: 10, AttackCD: 1200 * time.Millisecond, HitboxRadius: 0.9, SpawnWeight: 18},
	MobSniper:  {MaxHealth: 40, Speed: 4.0, AlertRange: 45, AttackRange: 40, AttackDamage: 35, AttackCD: 2800 * time.Millisecond, HitboxRadius: 0.9, SpawnWeight: 10},
	MobTank:    {MaxHealth: 220, Speed: 2.6, AlertRange: 26, AttackRange: 3.0, AttackDamage: 25, AttackCD: 1800 * time.Millisecond, HitboxRadius: 1.8, SpawnWeight: 8},
	MobSwarm:   {MaxHealth: 25, Speed: 7.5, AlertRange: 34, AttackRange: 1.6, AttackDamage: 4, AttackCD: 500 * time.Millisecond, HitboxRadius: 0.7, SpawnWeight: 24},
	MobShooter: {MaxHealth: 55, Speed: 5.0, AlertRange: 32, AttackRange: 18, AttackDamage: 9, AttackCD: 1100 * time.Millisecond, HitboxRadius: 1.0, SpawnWeight: 15},
}

// Sniper repositioning band. The attack range above (40) is deliberately
// looser than this band; snipers can land hits beyond the distance at which
// they bother to reposition.
const (
	sniperBandNear = 25.0
	sniperBandFar  = 35.0
)

// Tank area burst.
const (
	tankBurstRadius  = 8.0
	tankBurstBase    = 25.0
	tankBurstPerUnit = 3.0
	tankBurstFloor   = 1.0
)

// Swarm flocking.
const (
	swarmSeparation = 3.0
	swarmCohesion   = 10.0
)

// Shooter stand-off band.
const (
	shooterBandNear = 10.0
	shooterBandFar  = 16.0
)

// Jumper leap tuning.
const (
	jumperLeapCooldown = 2500 * time.Millisecond
	jumperLeapVertical = 8.0
	jumperLeapRange    = 14.0
	jumperMeleeRange   = 1.7
	jumperMeleeDamage  = 8.0
)

func mobParams(mobType MobType) mobTypeParams {
	if params, ok := mobTypeTable[mobType]; ok {
		return params
	}
	return mobTypeTable[MobShooter]
}

func (m *mobState) applyHealthDelta(delta float64) {
	m.Health = clamp(m.Health+delta, 0, m.MaxHealth)
}
