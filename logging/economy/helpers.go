package economy

import (
	"context"

	"dustveil/server/logging"
)

const (
	// EventLootDropped is emitted whenever a mob death rolls a weapon drop.
	EventLootDropped logging.EventType = "economy.loot_dropped"
	// EventLootPickedUp is emitted whenever a player collects a ground drop.
	EventLootPickedUp logging.EventType = "economy.loot_picked_up"
	// EventWeaponEquipped is emitted when a player switches their held weapon.
	EventWeaponEquipped logging.EventType = "economy.weapon_equipped"
)

// LootPayload identifies the rolled weapon by its seed and rarity tier.
type LootPayload struct {
	Seed   string `json:"seed"`
	Rarity string `json:"rarity"`
}

// EquipPayload names the inventory item a player equipped.
type EquipPayload struct {
	ItemID string `json:"itemId"`
}

// LootDropped publishes a ground drop event.
func LootDropped(ctx context.Context, pub logging.Publisher, tick uint64, loot logging.EntityRef, payload LootPayload) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventLootDropped,
		Tick:     tick,
		Actor:    loot,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryEconomy,
		Payload:  payload,
	}
	pub.Publish(ctx, event)
}

// LootPickedUp publishes a successful pickup event.
func LootPickedUp(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, dropID string, payload LootPayload) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventLootPickedUp,
		Tick:     tick,
		Actor:    actor,
		Targets:  []logging.EntityRef{{ID: dropID, Kind: logging.EntityKindLoot}},
		Severity: logging.SeverityInfo,
		Category: logging.CategoryEconomy,
		Payload:  payload,
	}
	pub.Publish(ctx, event)
}

// WeaponEquipped publishes a weapon switch event.
func WeaponEquipped(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, itemID string) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventWeaponEquipped,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryEconomy,
		Payload:  EquipPayload{ItemID: itemID},
	}
	pub.Publish(ctx, event)
}
