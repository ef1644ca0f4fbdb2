package server

import (
	"math"
	"testing"
	"time"
)

func testWeapon(rangeFar float64) Weapon {
	return Weapon{
		Seed:      "combat-test",
		Archetype: WeaponRifle,
		Rarity:    RarityCommon,
		DPS:       70,
		FireRate:  7,
		Magazine:  24,
		Reload:    2,
		Accuracy:  1, // zero spread keeps the ray deterministic
		Range:     rangeFar,
	}
}

// aimingPlayer positions a shooter at the origin firing straight down +X.
func aimingPlayer(r *Room, id string) *playerState {
	shooter := addTestPlayer(r, id, Vec3{})
	shooter.aim = Vec3{X: 1}
	return shooter
}

// onRay returns a position centered on the +X ray fired by aimingPlayer.
func onRay(along float64) Vec3 {
	return Vec3{X: along, Y: playerEyeHeight, Z: muzzleRight}
}

func TestShotFalloffNeverBelowFloor(t *testing.T) {
	cases := []struct {
		dist, rangeFar, want float64
	}{
		{0, 40, 1.0},
		{20, 40, 0.75},
		{40, 40, 0.5},
		{100, 40, falloffFloor},
		{5, 0, falloffFloor},
	}
	for _, tc := range cases {
		if got := shotFalloff(tc.dist, tc.rangeFar); math.Abs(got-tc.want) > 1e-9 {
			t.Fatalf("shotFalloff(%v, %v) = %v, want %v", tc.dist, tc.rangeFar, got, tc.want)
		}
	}
}

func TestRayPointHitGeometry(t *testing.T) {
	origin := Vec3{}
	dir := Vec3{X: 1}

	if hit := rayPointHit(origin, dir, Vec3{X: 5, Z: 0.5}, 0.9, 40); hit == nil {
		t.Fatalf("expected hit inside the radius")
	} else if math.Abs(hit.along-5) > 1e-9 {
		t.Fatalf("expected along=5, got %v", hit.along)
	}
	if hit := rayPointHit(origin, dir, Vec3{X: -3}, 0.9, 40); hit != nil {
		t.Fatalf("expected no hit behind the origin")
	}
	if hit := rayPointHit(origin, dir, Vec3{X: 50}, 0.9, 40); hit != nil {
		t.Fatalf("expected no hit beyond weapon range")
	}
	if hit := rayPointHit(origin, dir, Vec3{X: 5, Y: 2}, 0.9, 40); hit != nil {
		t.Fatalf("expected no hit outside the radius")
	}
}

func TestResolveShotPrefersPlayerAtEqualDistance(t *testing.T) {
	r, sender := newTestRoom("priority-seed")
	now := time.Unix(100, 0)
	shooter := aimingPlayer(r, "shooter")
	victim := addTestPlayer(r, "victim", onRay(10))
	mob := addTestMob(r, "mob-a", MobCharger, onRay(10))

	r.resolveShot(shooter, testWeapon(40), now)

	if victim.Health >= playerMaxHealth {
		t.Fatalf("expected the player to take the hit")
	}
	if mob.Health != mob.MaxHealth {
		t.Fatalf("expected the mob untouched at equal distance")
	}
	var hit *hitEvent
	for _, payload := range sender.payloads {
		if event, ok := payload.(hitEvent); ok {
			hit = &event
		}
	}
	if hit == nil || hit.TargetID != "victim" {
		t.Fatalf("expected a hit event naming the player, got %+v", hit)
	}
}

func TestResolveShotHitsClosestMob(t *testing.T) {
	r, _ := newTestRoom("closest-seed")
	now := time.Unix(100, 0)
	shooter := aimingPlayer(r, "shooter")
	near := addTestMob(r, "near", MobCharger, onRay(6))
	far := addTestMob(r, "far", MobCharger, onRay(16))

	r.resolveShot(shooter, testWeapon(40), now)

	if near.Health >= near.MaxHealth {
		t.Fatalf("expected the closest mob damaged")
	}
	if far.Health != far.MaxHealth {
		t.Fatalf("expected the far mob shielded by the near one")
	}
}

func TestResolveShotMissStillEmitsShot(t *testing.T) {
	r, sender := newTestRoom("miss-seed")
	now := time.Unix(100, 0)
	shooter := aimingPlayer(r, "shooter")

	r.resolveShot(shooter, testWeapon(40), now)

	shots, hits := 0, 0
	for _, payload := range sender.payloads {
		switch payload.(type) {
		case shotEvent:
			shots++
		case hitEvent:
			hits++
		}
	}
	if shots != 1 {
		t.Fatalf("expected exactly one shot event on a miss, got %d", shots)
	}
	if hits != 0 {
		t.Fatalf("expected no hit event on a miss, got %d", hits)
	}
}

func TestResolveShotIgnoresInvulnerablePlayers(t *testing.T) {
	r, _ := newTestRoom("shield-seed")
	now := time.Unix(100, 0)
	shooter := aimingPlayer(r, "shooter")
	shielded := addTestPlayer(r, "shielded", onRay(10))
	shielded.invulnUntil = now.Add(invulnWindow)
	mob := addTestMob(r, "mob-a", MobCharger, onRay(20))

	r.resolveShot(shooter, testWeapon(40), now)

	if shielded.Health != playerMaxHealth {
		t.Fatalf("expected the invulnerable player skipped")
	}
	if mob.Health >= mob.MaxHealth {
		t.Fatalf("expected the ray to pass through to the mob")
	}
}

func TestDamageVarianceStaysInBand(t *testing.T) {
	r, _ := newTestRoom("variance-seed")
	now := time.Unix(100, 0)
	shooter := aimingPlayer(r, "shooter")
	weapon := testWeapon(1000) // keep falloff negligible at close range

	base := weapon.DPS / weapon.FireRate
	for i := 0; i < 100; i++ {
		mob := addTestMob(r, "target", MobTank, onRay(1))
		r.resolveShot(shooter, weapon, now)
		dealt := mob.MaxHealth - mob.Health
		delete(r.mobs, "target")

		falloff := shotFalloff(1-muzzleForward, weapon.Range)
		low := base * falloff * damageVarianceMin
		high := base * falloff * damageVarianceMax * critMultiplier
		if dealt < low-1e-6 || dealt > high+1e-6 {
			t.Fatalf("damage %v outside [%v, %v]", dealt, low, high)
		}
	}
}

func TestLethalShotRemovesMobSameCall(t *testing.T) {
	r, sender := newTestRoom("lethal-seed")
	now := time.Unix(100, 0)
	shooter := aimingPlayer(r, "shooter")
	mob := addTestMob(r, "weakling", MobSwarm, onRay(2))
	mob.Health = 0.5

	r.resolveShot(shooter, testWeapon(40), now)

	if _, ok := r.mobs["weakling"]; ok {
		t.Fatalf("expected a lethal shot to remove the mob immediately")
	}
	killed := false
	for _, payload := range sender.payloads {
		if event, ok := payload.(killEvent); ok && event.MobID == "weakling" {
			killed = true
		}
	}
	if !killed {
		t.Fatalf("expected a kill event for the removed mob")
	}
}

func TestSniperTwoHitsLeavePlayerAtThirty(t *testing.T) {
	r, _ := newTestRoom("sniper-seed")
	now := time.Unix(100, 0)
	sniper := addTestMob(r, "sniper-a", MobSniper, Vec3{X: 30})
	player := addTestPlayer(r, "p1", Vec3{})

	damage := mobParams(MobSniper).AttackDamage
	r.applyMobAttack(sniper, player, &attackIntent{damage: damage}, now)
	if player.Health != 65 {
		t.Fatalf("expected 65 hp after the first sniper hit, got %v", player.Health)
	}
	r.applyMobAttack(sniper, player, &attackIntent{damage: damage}, now.Add(3*time.Second))
	if player.Health != 30 {
		t.Fatalf("expected 30 hp after the second sniper hit, got %v", player.Health)
	}
}
