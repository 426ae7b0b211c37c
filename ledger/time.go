package ledger

import "time"

// SlotConfig maps POSIX milliseconds to slots.
type SlotConfig struct {
	ZeroTime   int64  // POSIX ms of ZeroSlot
	ZeroSlot   uint64 // first slot of the linear era
	SlotLength int64  // ms per slot
}

// Known network slot configurations.
var SlotConfigs = map[string]SlotConfig{
	"mainnet": {ZeroTime: 1596059091000, ZeroSlot: 4492800, SlotLength: 1000},
	"preprod": {ZeroTime: 1655769600000, ZeroSlot: 86400, SlotLength: 1000},
	"preview": {ZeroTime: 1666656000000, ZeroSlot: 0, SlotLength: 1000},
}

// Slot returns the slot containing ms. Times before ZeroTime map to ZeroSlot.
func (c SlotConfig) Slot(ms int64) uint64 {
	if ms <= c.ZeroTime || c.SlotLength <= 0 {
		return c.ZeroSlot
	}
	return c.ZeroSlot + uint64((ms-c.ZeroTime)/c.SlotLength)
}

// Time returns the POSIX ms at the start of slot.
func (c SlotConfig) Time(slot uint64) int64 {
	if slot <= c.ZeroSlot {
		return c.ZeroTime
	}
	return c.ZeroTime + int64(slot-c.ZeroSlot)*c.SlotLength
}

// Millis converts a time to POSIX ms.
func Millis(t time.Time) int64 { return t.UnixMilli() }
