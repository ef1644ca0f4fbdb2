package server

import "time"

const (
	ProtocolVersion = 1
	writeWait       = 10 * time.Second

	defaultTickRate = 20 // ticks per second
	minTickInterval = 10 * time.Millisecond
	maxTickDelta    = 200 * time.Millisecond
	subStepNominal  = 1.0 / 60.0 // seconds per physics sub-step

	worldExtent = 100.0 // world spans [-worldExtent, worldExtent] on x and z
)

// Player tuning.
const (
	playerMaxHealth    = 100.0
	playerMaxLives     = 3
	playerMoveSpeed    = 8.0  // units per second
	playerAccel        = 40.0 // units per second squared
	playerAirControl   = 0.35
	playerFriction     = 8.0
	playerAirDrag      = 0.4
	playerJumpPower    = 9.5
	playerGravity      = 25.0
	playerTerminalVel  = 40.0
	playerEyeHeight    = 1.6
	playerHitboxRadius = 0.9

	jumpBufferWindow  = 120 * time.Millisecond
	coyoteWindow      = 150 * time.Millisecond
	respawnDelay      = 3 * time.Second
	spectatorDuration = 45 * time.Second
	invulnWindow      = 5 * time.Second
	retentionWindow   = 60 * time.Second
)

// Mob tuning shared across types; per-type numbers live in mobTypeParams.
const (
	mobGravity          = 18.0
	mobTerminalVel      = 30.0
	mobGroundFriction   = 6.0
	mobAirDrag          = 0.5
	mobPlayerSeparation = 1.8 // mobs are pushed out of this radius around players
	mobContactSlack     = 0.2 // melee reach past the separation radius
	respawnPushRadius   = 12.0
	patrolArriveRadius  = 2.0
	patrolRepickChance  = 0.005 // per sub-step while wandering
)

// Spawn policy.
const (
	spawnRingMin        = 20.0
	spawnRingMax        = 40.0
	spawnClearRadius    = 12.0
	spawnPlacementTries = 4
)

// Combat tuning.
const (
	critChance        = 0.15
	critMultiplier    = 2.0
	damageVarianceMin = 0.9
	damageVarianceMax = 1.1
	falloffFloor      = 0.5
	muzzleForward     = 0.4
	muzzleRight       = 0.25
)

// Loot economy.
const (
	lootDropChance   = 0.30
	lootPickupRadius = 2.5
)

// Corner spawn points used for player respawns; height comes from the terrain.
var playerSpawnCorners = [4][2]float64{
	{-worldExtent * 0.8, -worldExtent * 0.8},
	{-worldExtent * 0.8, worldExtent * 0.8},
	{worldExtent * 0.8, -worldExtent * 0.8},
	{worldExtent * 0.8, worldExtent * 0.8},
}
