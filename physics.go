package server

import "time"

// stepPlayer advances one player by one physics sub-step. Dead and spectator
// players do not integrate; their transitions are deadline-driven at tick
// start.
func (r *Room) stepPlayer(p *playerState, now time.Time, dt float64) {
	if p.Lifecycle != LifecycleAlive {
		p.firing = false
		return
	}

	r.integrateMovement(p, now, dt)

	if p.firing {
		if weapon, ok := p.equippedWeapon(); ok {
			interval := time.Duration(float64(time.Second) / weapon.FireRate)
			if p.lastFire.IsZero() || now.Sub(p.lastFire) >= interval {
				p.lastFire = now
				r.resolveShot(p, weapon, now)
			}
		}
	}
}

// integrateMovement applies the acceleration model from the player's intent,
// then jumping, gravity, integration, and the terrain/world clamps.
func (r *Room) integrateMovement(p *playerState, now time.Time, dt float64) {
	forward := Vec3{X: p.aim.X, Z: p.aim.Z}.Normalized()
	if forward.X == 0 && forward.Z == 0 {
		forward = Vec3{Z: -1}
	}
	right := Vec3{X: -forward.Z, Z: forward.X}

	desired := forward.Scale(p.intentForward).Add(right.Scale(p.intentRight))
	if length := desired.HorizontalLength(); length > 1 {
		desired = desired.Scale(1 / length)
	}
	desired = desired.Scale(playerMoveSpeed)

	control := playerAirControl
	if p.onGround {
		control = 1.0
	}
	deltaX := desired.X - p.Vel.X
	deltaZ := desired.Z - p.Vel.Z
	maxStep := playerAccel * control * dt
	gap := Vec3{X: deltaX, Z: deltaZ}.HorizontalLength()
	if gap > maxStep && gap > 0 {
		scale := maxStep / gap
		deltaX *= scale
		deltaZ *= scale
	}
	p.Vel.X += deltaX
	p.Vel.Z += deltaZ

	if p.onGround && desired.HorizontalLength() < 0.01 {
		friction := 1 / (1 + playerFriction*dt)
		p.Vel.X *= friction
		p.Vel.Z *= friction
	} else if !p.onGround {
		drag := 1 / (1 + playerAirDrag*dt)
		p.Vel.X *= drag
		p.Vel.Z *= drag
	}

	// Buffered jump: honored the instant the player is groundable, where
	// groundable means on the ground or inside the coyote window.
	if p.jumpQueued {
		if now.Sub(p.jumpQueuedAt) > jumpBufferWindow {
			p.jumpQueued = false
		} else if p.onGround || now.Sub(p.lastGrounded) <= coyoteWindow {
			p.Vel.Y = playerJumpPower
			p.onGround = false
			p.jumpQueued = false
		}
	}

	if !p.onGround {
		p.Vel.Y -= playerGravity * dt
		if p.Vel.Y < -playerTerminalVel {
			p.Vel.Y = -playerTerminalVel
		}
	}

	p.Pos = p.Pos.Add(p.Vel.Scale(dt))

	if p.Pos.X < -worldExtent {
		p.Pos.X = -worldExtent
		p.Vel.X = 0
	} else if p.Pos.X > worldExtent {
		p.Pos.X = worldExtent
		p.Vel.X = 0
	}
	if p.Pos.Z < -worldExtent {
		p.Pos.Z = -worldExtent
		p.Vel.Z = 0
	} else if p.Pos.Z > worldExtent {
		p.Pos.Z = worldExtent
		p.Vel.Z = 0
	}

	ground := r.terrain.HeightAt(p.Pos.X, p.Pos.Z)
	if p.Pos.Y <= ground {
		p.Pos.Y = ground
		if p.Vel.Y < 0 {
			p.Vel.Y = 0
		}
		p.onGround = true
		p.lastGrounded = now
	} else if p.Vel.Y > 0 {
		p.onGround = false
	} else if p.onGround {
		// Walked off an edge; coyote window starts from the stamped
		// lastGrounded time.
		p.onGround = false
	}
}
