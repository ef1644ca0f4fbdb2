package server

import (
	"math"
	"time"
)

// mobIntent is the per-substep output of a behavior: desired horizontal
// velocity, an optional vertical impulse, an optional attack, and the AI mode
// to report in snapshots.
type mobIntent struct {
	velocity    Vec3 // desired horizontal velocity, world units/second
	jumpImpulse float64
	attack      *attackIntent
	mode        MobMode
}

// attackIntent asks the room to apply damage this sub-step. Area attacks hit
// every player in range instead of only the current target.
type attackIntent struct {
	damage float64
	area   bool
}

// mobBehavior computes movement and attack intent for one mob type. The
// target is the nearest targetable player, already confirmed inside the
// type's difficulty-scaled alert range.
type mobBehavior interface {
	computeIntent(r *Room, mob *mobState, target *playerState, dist float64, now time.Time) mobIntent
}

var mobBehaviors = map[MobType]mobBehavior{
	MobCharger: chargerBehavior{},
	MobJumper:  jumperBehavior{},
	MobSniper:  sniperBehavior{},
	MobTank:    tankBehavior{},
	MobSwarm:   swarmBehavior{},
	MobShooter: shooterBehavior{},
}

func behaviorFor(mobType MobType) mobBehavior {
	if behavior, ok := mobBehaviors[mobType]; ok {
		return behavior
	}
	return shooterBehavior{}
}

// towardTarget returns a horizontal unit vector from the mob to the target.
func towardTarget(mob *mobState, target *playerState) Vec3 {
	dir := Vec3{X: target.Pos.X - mob.Pos.X, Z: target.Pos.Z - mob.Pos.Z}
	return dir.Normalized()
}

// attackReady gates attacks on the per-type cooldown.
func attackReady(mob *mobState, params mobTypeParams, now time.Time) bool {
	return mob.lastAttack.IsZero() || now.Sub(mob.lastAttack) >= params.AttackCD
}

// contactRange scales a melee range by the difficulty multiplier and floors
// the result just past the player separation radius. The end-of-substep push
// keeps every mob at least mobPlayerSeparation away, so any contact range
// below that line could never land a hit.
func contactRange(base, rangeMult float64) float64 {
	scaled := base * rangeMult
	if floor := mobPlayerSeparation + mobContactSlack; scaled < floor {
		return floor
	}
	return scaled
}

// chargerBehavior closes straight at the target and bites on contact.
type chargerBehavior struct{}

func (chargerBehavior) computeIntent(r *Room, mob *mobState, target *playerState, dist float64, now time.Time) mobIntent {
	params := mobParams(mob.Type)
	speed := params.Speed * r.difficultyCfg.SpeedMult
	intent := mobIntent{
		velocity: towardTarget(mob, target).Scale(speed),
		mode:     ModeAlert,
	}
	if dist <= contactRange(params.AttackRange, r.difficultyCfg.RangeMult) {
		intent.mode = ModeAttack
		if attackReady(mob, params, now) {
			intent.attack = &attackIntent{damage: params.AttackDamage}
		}
	}
	return intent
}

// jumperBehavior leaps toward the target when grounded and in range, with a
// shorter-range melee bite on a separate cadence.
type jumperBehavior struct{}

func (jumperBehavior) computeIntent(r *Room, mob *mobState, target *playerState, dist float64, now time.Time) mobIntent {
	params := mobParams(mob.Type)
	speed := params.Speed * r.difficultyCfg.SpeedMult
	intent := mobIntent{
		velocity: towardTarget(mob, target).Scale(speed),
		mode:     ModeAlert,
	}

	leapRange := jumperLeapRange * r.difficultyCfg.RangeMult
	if mob.onGround && dist <= leapRange && now.After(mob.jumpReadyAt) {
		intent.jumpImpulse = jumperLeapVertical
		intent.velocity = towardTarget(mob, target).Scale(speed * 1.6)
		mob.jumpReadyAt = now.Add(jumperLeapCooldown)
		intent.mode = ModeAttack
	}

	if dist <= contactRange(jumperMeleeRange, r.difficultyCfg.RangeMult) {
		intent.mode = ModeAttack
		if attackReady(mob, params, now) {
			intent.attack = &attackIntent{damage: jumperMeleeDamage}
		}
	}
	return intent
}

// sniperBehavior holds a 25-35 unit band but shoots out to its full attack
// range, which is intentionally looser than the band.
type sniperBehavior struct{}

func (sniperBehavior) computeIntent(r *Room, mob *mobState, target *playerState, dist float64, now time.Time) mobIntent {
	params := mobParams(mob.Type)
	speed := params.Speed * r.difficultyCfg.SpeedMult
	rangeMult := r.difficultyCfg.RangeMult

	intent := mobIntent{mode: ModeAlert}
	switch {
	case dist < sniperBandNear*rangeMult:
		intent.velocity = towardTarget(mob, target).Scale(-speed)
	case dist > sniperBandFar*rangeMult:
		intent.velocity = towardTarget(mob, target).Scale(speed)
	}

	if dist <= params.AttackRange*rangeMult {
		intent.mode = ModeAttack
		if attackReady(mob, params, now) {
			intent.attack = &attackIntent{damage: params.AttackDamage}
		}
	}
	return intent
}

// tankBehavior advances slowly and detonates a distance-falloff burst that
// hits every player inside tankBurstRadius, not just the target.
type tankBehavior struct{}

func (tankBehavior) computeIntent(r *Room, mob *mobState, target *playerState, dist float64, now time.Time) mobIntent {
	params := mobParams(mob.Type)
	speed := params.Speed * r.difficultyCfg.SpeedMult
	intent := mobIntent{
		velocity: towardTarget(mob, target).Scale(speed),
		mode:     ModeAlert,
	}
	if dist <= contactRange(params.AttackRange, r.difficultyCfg.RangeMult) {
		intent.mode = ModeAttack
		if attackReady(mob, params, now) {
			intent.attack = &attackIntent{damage: params.AttackDamage, area: true}
		}
	}
	return intent
}

// swarmBehavior pursues fast with local flocking: hard separation under 3
// units from same-type mobs, weak cohesion inside 10.
type swarmBehavior struct{}

func (swarmBehavior) computeIntent(r *Room, mob *mobState, target *playerState, dist float64, now time.Time) mobIntent {
	params := mobParams(mob.Type)
	speed := params.Speed * r.difficultyCfg.SpeedMult

	pursuit := towardTarget(mob, target)
	separation := Vec3{}
	cohesion := Vec3{}
	for _, other := range r.mobs {
		if other == mob || other.Type != MobSwarm {
			continue
		}
		gap := horizontalDistance(mob.Pos, other.Pos)
		if gap <= 0 {
			continue
		}
		away := Vec3{X: mob.Pos.X - other.Pos.X, Z: mob.Pos.Z - other.Pos.Z}.Normalized()
		if gap < swarmSeparation {
			separation = separation.Add(away.Scale((swarmSeparation - gap) / swarmSeparation))
		} else if gap < swarmCohesion {
			cohesion = cohesion.Add(away.Scale(-0.15))
		}
	}

	direction := pursuit.Add(separation.Scale(1.5)).Add(cohesion).Normalized()
	intent := mobIntent{
		velocity: direction.Scale(speed),
		mode:     ModeAlert,
	}
	if dist <= contactRange(params.AttackRange, r.difficultyCfg.RangeMult) {
		intent.mode = ModeAttack
		if attackReady(mob, params, now) {
			intent.attack = &attackIntent{damage: params.AttackDamage}
		}
	}
	return intent
}

// shooterBehavior is the default ranged stand-off type.
type shooterBehavior struct{}

func (shooterBehavior) computeIntent(r *Room, mob *mobState, target *playerState, dist float64, now time.Time) mobIntent {
	params := mobParams(mob.Type)
	speed := params.Speed * r.difficultyCfg.SpeedMult
	rangeMult := r.difficultyCfg.RangeMult

	intent := mobIntent{mode: ModeAlert}
	switch {
	case dist < shooterBandNear*rangeMult:
		intent.velocity = towardTarget(mob, target).Scale(-speed)
	case dist > shooterBandFar*rangeMult:
		intent.velocity = towardTarget(mob, target).Scale(speed)
	}

	if dist <= params.AttackRange*rangeMult {
		intent.mode = ModeAttack
		if attackReady(mob, params, now) {
			intent.attack = &attackIntent{damage: params.AttackDamage}
		}
	}
	return intent
}

// nearestTargetablePlayer scans all players for the closest alive,
// non-invulnerable one. Linear scan; rooms are small.
func (r *Room) nearestTargetablePlayer(mob *mobState, now time.Time) (*playerState, float64) {
	var best *playerState
	bestDist := math.MaxFloat64
	for _, player := range r.players {
		if !player.targetable(now) {
			continue
		}
		dist := horizontalDistance(mob.Pos, player.Pos)
		if dist < bestDist {
			bestDist = dist
			best = player
		}
	}
	return best, bestDist
}

// stepMob runs targeting, behavior, and shared physics for one mob.
func (r *Room) stepMob(mob *mobState, now time.Time, dt float64) {
	params := mobParams(mob.Type)
	target, dist := r.nearestTargetablePlayer(mob, now)

	var intent mobIntent
	if target != nil && dist <= params.AlertRange*r.difficultyCfg.RangeMult {
		mob.targetID = target.ID
		intent = behaviorFor(mob.Type).computeIntent(r, mob, target, dist, now)
	} else {
		mob.targetID = ""
		intent = r.patrolIntent(mob)
	}
	mob.Mode = intent.mode

	if intent.attack != nil {
		mob.lastAttack = now
		r.applyMobAttack(mob, target, intent.attack, now)
	}

	r.applyMobPhysics(mob, intent, dt)
}

// patrolIntent wanders toward a random waypoint, re-picked on arrival or
// occasionally at random.
func (r *Room) patrolIntent(mob *mobState) mobIntent {
	if !mob.hasPatrol ||
		horizontalDistance(mob.Pos, mob.patrolTarget) < patrolArriveRadius ||
		r.rng.Float64() < patrolRepickChance {
		mob.patrolTarget = Vec3{
			X: (r.rng.Float64()*2 - 1) * worldExtent,
			Z: (r.rng.Float64()*2 - 1) * worldExtent,
		}
		mob.hasPatrol = true
	}

	params := mobParams(mob.Type)
	direction := Vec3{
		X: mob.patrolTarget.X - mob.Pos.X,
		Z: mob.patrolTarget.Z - mob.Pos.Z,
	}.Normalized()
	return mobIntent{
		velocity: direction.Scale(params.Speed * 0.5 * r.difficultyCfg.SpeedMult),
		mode:     ModePatrol,
	}
}

// applyMobPhysics integrates the intent under shared mob rules: gravity,
// terrain clamp, friction, and a separation push away from nearby players.
func (r *Room) applyMobPhysics(mob *mobState, intent mobIntent, dt float64) {
	mob.Vel.X = intent.velocity.X
	mob.Vel.Z = intent.velocity.Z

	if intent.jumpImpulse > 0 && mob.onGround {
		mob.Vel.Y = intent.jumpImpulse
		mob.onGround = false
	}

	if !mob.onGround {
		mob.Vel.Y -= mobGravity * dt
		if mob.Vel.Y < -mobTerminalVel {
			mob.Vel.Y = -mobTerminalVel
		}
		drag := 1 / (1 + mobAirDrag*dt)
		mob.Vel.X *= drag
		mob.Vel.Z *= drag
	} else if intent.velocity.X == 0 && intent.velocity.Z == 0 {
		friction := 1 / (1 + mobGroundFriction*dt)
		mob.Vel.X *= friction
		mob.Vel.Z *= friction
	}

	mob.Pos = mob.Pos.Add(mob.Vel.Scale(dt))
	mob.Pos.X = clamp(mob.Pos.X, -worldExtent, worldExtent)
	mob.Pos.Z = clamp(mob.Pos.Z, -worldExtent, worldExtent)

	ground := r.terrain.HeightAt(mob.Pos.X, mob.Pos.Z)
	if mob.Pos.Y <= ground {
		mob.Pos.Y = ground
		if mob.Vel.Y < 0 {
			mob.Vel.Y = 0
		}
		mob.onGround = true
	} else {
		mob.onGround = false
	}

	// Mobs may crowd a player but never fully overlap one.
	for _, player := range r.players {
		if player.Lifecycle != LifecycleAlive {
			continue
		}
		gap := horizontalDistance(mob.Pos, player.Pos)
		if gap >= mobPlayerSeparation || gap == 0 {
			continue
		}
		push := Vec3{X: mob.Pos.X - player.Pos.X, Z: mob.Pos.Z - player.Pos.Z}.
			Normalized().Scale(mobPlayerSeparation - gap)
		mob.Pos = mob.Pos.Add(push)
	}
}

// applyMobAttack routes behavior attacks into player damage and events.
func (r *Room) applyMobAttack(mob *mobState, target *playerState, attack *attackIntent, now time.Time) {
	if attack.area {
		for _, player := range r.players {
			if !player.targetable(now) {
				continue
			}
			dist := horizontalDistance(mob.Pos, player.Pos)
			if dist > tankBurstRadius {
				continue
			}
			damage := tankBurstBase - dist*tankBurstPerUnit
			if damage < tankBurstFloor {
				damage = tankBurstFloor
			}
			r.damagePlayer(player, damage*r.difficultyCfg.DamageMult, mob.ID, now)
		}
		return
	}
	if target == nil || !target.targetable(now) {
		return
	}
	r.damagePlayer(target, attack.damage*r.difficultyCfg.DamageMult, mob.ID, now)
}
