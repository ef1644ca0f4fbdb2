package server

// Difficulty selects a row of the immutable tuning table below.
type Difficulty string

const (
	DifficultyEasy      Difficulty = "easy"
	DifficultyNormal    Difficulty = "normal"
	DifficultyHard      Difficulty = "hard"
	DifficultyNightmare Difficulty = "nightmare"
)

// difficultyConfig is an immutable per-level tuning row.
type difficultyConfig struct {
	MobCap          int
	SpawnInterval   uint64 // ticks between spawn attempts
	DamageMult      float64
	SpeedMult       float64
	RangeMult       float64 // scales aggro and attack ranges
	EnabledMobTypes []MobType
}

var difficultyTable = map[Difficulty]difficultyConfig{
	DifficultyEasy: {
		MobCap:          6,
		SpawnInterval:   120,
		DamageMult:      0.7,
		SpeedMult:       0.85,
		RangeMult:       0.85,
		EnabledMobTypes: []MobType{MobCharger, MobShooter, MobSwarm},
	},
	DifficultyNormal: {
		MobCap:          10,
		SpawnInterval:   80,
		DamageMult:      1.0,
		SpeedMult:       1.0,
		RangeMult:       1.0,
		EnabledMobTypes: []MobType{MobCharger, MobShooter, MobSwarm, MobJumper, MobSniper},
	},
	DifficultyHard: {
		MobCap:          16,
		SpawnInterval:   50,
		DamageMult:      1.35,
		SpeedMult:       1.15,
		RangeMult:       1.1,
		EnabledMobTypes: []MobType{MobCharger, MobShooter, MobSwarm, MobJumper, MobSniper, MobTank},
	},
	DifficultyNightmare: {
		MobCap:          24,
		SpawnInterval:   30,
		DamageMult:      1.8,
		SpeedMult:       1.3,
		RangeMult:       1.25,
		EnabledMobTypes: []MobType{MobCharger, MobShooter, MobSwarm, MobJumper, MobSniper, MobTank},
	},
}

// difficultyFor resolves a requested level, falling back to normal for
// unknown values so a bad client request can never wedge the room.
func difficultyFor(level Difficulty) (Difficulty, difficultyConfig) {
	if cfg, ok := difficultyTable[level]; ok {
		return level, cfg
	}
	return DifficultyNormal, difficultyTable[DifficultyNormal]
}

func (c difficultyConfig) allowsMobType(mobType MobType) bool {
	for _, enabled := range c.EnabledMobTypes {
		if enabled == mobType {
			return true
		}
	}
	return false
}
