package server

import (
	"time"
)

const aimJitterScale = 0.12 // radians-equivalent spread at zero accuracy

// shotHit is one accepted ray candidate.
type shotHit struct {
	mob      *mobState
	player   *playerState
	along    float64 // distance along the ray
}

// resolveShot performs one fire event: jittered ray construction, a
// ray/point-distance test against every mob and every other targetable
// player, closest-hit selection with player priority, and damage plus the
// shot/hit/kill event fan-out. A shot event always goes out, hit or miss.
func (r *Room) resolveShot(shooter *playerState, weapon Weapon, now time.Time) {
	spread := (1 - weapon.Accuracy) * aimJitterScale
	dir := Vec3{
		X: shooter.aim.X + (r.rng.Float64()*2-1)*spread,
		Y: shooter.aim.Y + (r.rng.Float64()*2-1)*spread,
		Z: shooter.aim.Z + (r.rng.Float64()*2-1)*spread,
	}.Normalized()
	if dir.Length() == 0 {
		dir = Vec3{Z: -1}
	}

	eye := shooter.Pos
	eye.Y += playerEyeHeight
	right := Vec3{X: -dir.Z, Z: dir.X}.Normalized()
	origin := eye.Add(dir.Scale(muzzleForward)).Add(right.Scale(muzzleRight))

	var bestMob, bestPlayer *shotHit
	for _, mob := range r.mobs {
		hit := rayPointHit(origin, dir, mob.Pos, mobParams(mob.Type).HitboxRadius, weapon.Range)
		if hit == nil {
			continue
		}
		hit.mob = mob
		if bestMob == nil || hit.along < bestMob.along {
			bestMob = hit
		}
	}
	for _, other := range r.players {
		if other == shooter || !other.targetable(now) {
			continue
		}
		hit := rayPointHit(origin, dir, other.Pos, playerHitboxRadius, weapon.Range)
		if hit == nil {
			continue
		}
		hit.player = other
		if bestPlayer == nil || hit.along < bestPlayer.along {
			bestPlayer = hit
		}
	}

	// Player damage takes priority at equal distance.
	var chosen *shotHit
	switch {
	case bestPlayer != nil && (bestMob == nil || bestPlayer.along <= bestMob.along):
		chosen = bestPlayer
	case bestMob != nil:
		chosen = bestMob
	}

	r.emitShot(shooter, origin, dir)

	if chosen == nil {
		return
	}

	damage := (weapon.DPS / weapon.FireRate) * shotFalloff(chosen.along, weapon.Range)
	damage *= damageVarianceMin + r.rng.Float64()*(damageVarianceMax-damageVarianceMin)
	crit := r.rng.Float64() < critChance
	if crit {
		damage *= critMultiplier
	}

	if chosen.mob != nil {
		r.damageMob(chosen.mob, damage, shooter, crit, now)
	} else {
		r.emitHit(shooter.ID, chosen.player.ID, damage, crit)
		r.damagePlayer(chosen.player, damage, shooter.ID, now)
	}
}

// rayPointHit accepts a candidate when its center lies ahead of the origin,
// within range along the ray, and within radius of the ray line. This is a
// point-vs-ray distance test, not a volumetric raycast.
func rayPointHit(origin, dir, center Vec3, radius, maxRange float64) *shotHit {
	offset := center.Sub(origin)
	along := offset.Dot(dir)
	if along < 0 || along > maxRange {
		return nil
	}
	closest := origin.Add(dir.Scale(along))
	if center.Sub(closest).Length() > radius {
		return nil
	}
	return &shotHit{along: along}
}

// shotFalloff scales damage down with distance, never below half.
func shotFalloff(dist, weaponRange float64) float64 {
	if weaponRange <= 0 {
		return falloffFloor
	}
	falloff := 1 - 0.5*dist/weaponRange
	if falloff < falloffFloor {
		return falloffFloor
	}
	return falloff
}

// damageMob applies weapon damage to a mob and removes it on death.
func (r *Room) damageMob(mob *mobState, damage float64, shooter *playerState, crit bool, now time.Time) {
	mob.applyHealthDelta(-damage)
	r.emitHit(shooter.ID, mob.ID, damage, crit)
	if mob.Health <= 0 {
		r.killMob(mob, shooter.ID, now)
	}
}
