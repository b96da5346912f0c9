package display

import (
	"context"
	"strings"

	"github.com/rpint/rpint/internal/store"
)

// Missing is shown for a field the store has no value for.
const Missing = "--"

// Line is one label and value pair on screen.
type Line struct {
	Label string
	Value string
}

// source tells where a field's value lives in a Snapshot.
type source int

const (
	fromNeighbor source = iota
	fromLink
	fromBattery
)

type field struct {
	flag   string
	label  string
	from   source
	key    string
	suffix string
}

// fields is the fixed on-screen order. Config flags only filter it.
var fields = []field{
	{flag: "show_chassis_id", label: "CHASSIS ID", from: fromNeighbor, key: "chassis_id"},
	{flag: "show_port_id", label: "PORT ID", from: fromNeighbor, key: "port_id"},
	{flag: "show_vlan_id", label: "VLAN ID", from: fromNeighbor, key: "vlan_id"},
	{flag: "show_chassis_description", label: "DESCRIPTION", from: fromNeighbor, key: "chassis_description"},
	{flag: "show_port_descr", label: "PORT DESCRIPTION", from: fromNeighbor, key: "port_descr"},
	{flag: "show_auto_neg_current", label: "CURRENT MODE", from: fromNeighbor, key: "auto_neg_current"},
	{flag: "show_auto_supported", label: "AUTO SUPPORT", from: fromNeighbor, key: "auto_supported"},
	{flag: "show_auto_enabled", label: "AUTO ENABLE", from: fromNeighbor, key: "auto_enabled"},
	{flag: "show_available_modes_str", label: "AVAILABLE MODES", from: fromNeighbor, key: "available_modes_str"},
	{flag: "show_power_supported", label: "POWER SUPPORT", from: fromNeighbor, key: "power_supported"},
	{flag: "show_power_enabled", label: "POWER ENABLED", from: fromNeighbor, key: "power_enabled"},
	{flag: "show_device_type", label: "DEVICE TYPE", from: fromNeighbor, key: "lldp_med_device_type"},
	{flag: "show_capability", label: "CAPABILITY", from: fromNeighbor, key: "lldp_med_capability"},
	{flag: "show_management_ip", label: "MANAGEMENT IP", from: fromNeighbor, key: "management_ip"},
	{flag: "show_local_ip", label: "LOCAL IP", from: fromLink, key: "local_ip"},
	{flag: "show_local_mac", label: "LOCAL MAC", from: fromLink, key: "local_mac"},
	{flag: "show_battery_voltage", label: "BATTERY VOLTAGE", from: fromBattery, key: store.KeyBatteryVoltage, suffix: "V"},
	{flag: "show_battery_load", label: "BATTERY LOAD", from: fromBattery, key: store.KeyBatteryLoad, suffix: "W"},
}

// Snapshot is everything one frame needs from the store, read at one point
// in time.
type Snapshot struct {
	Neighbor map[string]string
	Link     map[string]string
	// Battery holds the battery scalars that were present. It is nil when
	// battery display is off.
	Battery map[string]string
}

// TakeSnapshot reads the neighbor and local link hashes, and the battery
// scalars when withBattery is set.
func TakeSnapshot(ctx context.Context, s store.Store, withBattery bool) (Snapshot, error) {
	var snap Snapshot
	var err error

	if snap.Neighbor, err = s.GetHash(ctx, store.KeyNeighbors); err != nil {
		return Snapshot{}, err
	}
	if snap.Link, err = s.GetHash(ctx, store.KeyLocalLink); err != nil {
		return Snapshot{}, err
	}
	if !withBattery {
		return snap, nil
	}

	// One read so a power batch is never split across two samples.
	if snap.Battery, err = s.GetMany(ctx, store.KeyBatteryPower, store.KeyBatteryVoltage, store.KeyBatteryLoad); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// BatteryText is the fixed header line, "BATTERY 87%", or "BATTERY --%"
// before the first sample.
func (s Snapshot) BatteryText() string {
	if v, ok := s.Battery[store.KeyBatteryPower]; ok && v != "" {
		return "BATTERY " + v + "%"
	}
	return "BATTERY " + Missing + "%"
}

func (s Snapshot) lookup(f field) string {
	var m map[string]string
	switch f.from {
	case fromNeighbor:
		m = s.Neighbor
	case fromLink:
		m = s.Link
	case fromBattery:
		m = s.Battery
	}
	v, ok := m[f.key]
	if !ok || v == "" {
		return Missing
	}
	return v + f.suffix
}

// BuildLines turns a snapshot into the ordered display lines: enabled
// fields first, then the configured extra lines.
func BuildLines(snap Snapshot, flags map[string]bool, extra []string) []Line {
	lines := make([]Line, 0, len(fields)+len(extra))
	for _, f := range fields {
		if !flags[f.flag] {
			continue
		}
		lines = append(lines, Line{Label: f.label, Value: snap.lookup(f)})
	}
	for _, text := range extra {
		lines = append(lines, ParseLine(text))
	}
	return lines
}

// ParseLine splits "LABEL: value" at the first ": ". Text without the
// separator becomes a label with an empty value.
func ParseLine(text string) Line {
	label, value, ok := strings.Cut(text, ": ")
	if !ok {
		return Line{Label: text}
	}
	return Line{Label: label, Value: value}
}

// Flags lists every display toggle key in screen order.
func Flags() []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = f.flag
	}
	return out
}

// Label returns the on-screen label for a display toggle, or "" when flag is
// not one.
func Label(flag string) string {
	for _, f := range fields {
		if f.flag == flag {
			return f.label
		}
	}
	return ""
}
