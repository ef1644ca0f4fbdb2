package server

import (
	"hash/fnv"
	"math/rand"
)

// WeaponArchetype identifies the base stat profile of a rolled gun.
type WeaponArchetype string

const (
	WeaponPistol  WeaponArchetype = "pistol"
	WeaponSMG     WeaponArchetype = "smg"
	WeaponRifle   WeaponArchetype = "rifle"
	WeaponShotgun WeaponArchetype = "shotgun"
	WeaponSniper  WeaponArchetype = "sniper"
)

// WeaponRarity orders loot tiers from common to legendary.
type WeaponRarity string

const (
	RarityCommon    WeaponRarity = "common"
	RarityUncommon  WeaponRarity = "uncommon"
	RarityRare      WeaponRarity = "rare"
	RarityEpic      WeaponRarity = "epic"
	RarityLegendary WeaponRarity = "legendary"
)

// Weapon is an immutable rolled item. Seed doubles as the stable item
// identity inside an inventory.
type Weapon struct {
	Seed      string          `json:"seed"`
	Archetype WeaponArchetype `json:"archetype"`
	Rarity    WeaponRarity    `json:"rarity"`
	DPS       float64         `json:"dps"`
	FireRate  float64         `json:"fireRate"` // shots per second
	Magazine  int             `json:"magazine"`
	Reload    float64         `json:"reload"` // seconds
	Accuracy  float64         `json:"accuracy"`
	Range     float64         `json:"range"`
}

type weaponBase struct {
	archetype WeaponArchetype
	dps       float64
	fireRate  float64
	magazine  int
	reload    float64
	accuracy  float64
	rangeFar  float64
}

var weaponBases = []weaponBase{
	{WeaponPistol, 55, 4.0, 12, 1.2, 0.78, 28},
	{WeaponSMG, 85, 11.0, 30, 1.8, 0.62, 22},
	{WeaponRifle, 95, 7.0, 24, 2.0, 0.80, 42},
	{WeaponShotgun, 120, 1.6, 6, 2.4, 0.45, 14},
	{WeaponSniper, 140, 0.9, 5, 2.8, 0.96, 70},
}

type rarityTier struct {
	rarity     WeaponRarity
	weight     int
	multiplier float64
}

var rarityTiers = []rarityTier{
	{RarityCommon, 50, 1.0},
	{RarityUncommon, 27, 1.12},
	{RarityRare, 14, 1.28},
	{RarityEpic, 7, 1.45},
	{RarityLegendary, 2, 1.7},
}

// RollGun deterministically rolls a weapon from a seed string. The same seed
// always produces identical stats, across calls and process restarts.
func RollGun(seed string) Weapon {
	hasher := fnv.New64a()
	hasher.Write([]byte(seed))
	rng := rand.New(rand.NewSource(int64(hasher.Sum64())))

	base := weaponBases[rng.Intn(len(weaponBases))]
	tier := rollRarity(rng)

	jitter := func(value float64) float64 {
		return value * tier.multiplier * (0.9 + rng.Float64()*0.2)
	}

	weapon := Weapon{
		Seed:      seed,
		Archetype: base.archetype,
		Rarity:    tier.rarity,
		DPS:       jitter(base.dps),
		FireRate:  base.fireRate * (0.9 + rng.Float64()*0.2),
		Magazine:  base.magazine + rng.Intn(base.magazine/2+1),
		Reload:    base.reload * (0.85 + rng.Float64()*0.3),
		Accuracy:  clamp(jitter(base.accuracy), 0.2, 1.0),
		Range:     jitter(base.rangeFar),
	}
	return weapon
}

func rollRarity(rng *rand.Rand) rarityTier {
	total := 0
	for _, tier := range rarityTiers {
		total += tier.weight
	}
	pick := rng.Intn(total)
	for _, tier := range rarityTiers {
		pick -= tier.weight
		if pick < 0 {
			return tier
		}
	}
	return rarityTiers[0]
}
