// Package lldp discovers the switch port this device is plugged into by
// asking lldpd (through lldpcli) for its neighbor table, and flattens the
// answer into a fixed 14-field record.
package lldp

import (
	"context"

	"github.com/rpint/rpint/internal/store"
)

const (
	// Sentinel marks every field when there is no neighbor or discovery failed.
	Sentinel = "--"
	// NotAvailable marks a single field the neighbor did not advertise.
	NotAvailable = "N/A"
)

// Record is one neighbor, flattened. Every field is always set.
type Record struct {
	ChassisID          string `json:"chassis_id" yaml:"chassis_id"`
	ChassisDescription string `json:"chassis_description" yaml:"chassis_description"`
	ManagementIP       string `json:"management_ip" yaml:"management_ip"`
	PortID             string `json:"port_id" yaml:"port_id"`
	PortDescr          string `json:"port_descr" yaml:"port_descr"`
	AutoNegCurrent     string `json:"auto_neg_current" yaml:"auto_neg_current"`
	AutoSupported      string `json:"auto_supported" yaml:"auto_supported"`
	AutoEnabled        string `json:"auto_enabled" yaml:"auto_enabled"`
	AvailableModes     string `json:"available_modes_str" yaml:"available_modes_str"`
	VLANID             string `json:"vlan_id" yaml:"vlan_id"`
	PowerSupported     string `json:"power_supported" yaml:"power_supported"`
	PowerEnabled       string `json:"power_enabled" yaml:"power_enabled"`
	MEDDeviceType      string `json:"lldp_med_device_type" yaml:"lldp_med_device_type"`
	MEDCapability      string `json:"lldp_med_capability" yaml:"lldp_med_capability"`
}

// FieldNames lists the stored hash fields in a stable order.
var FieldNames = []string{
	"chassis_id",
	"chassis_description",
	"management_ip",
	"port_id",
	"port_descr",
	"auto_neg_current",
	"auto_supported",
	"auto_enabled",
	"available_modes_str",
	"vlan_id",
	"power_supported",
	"power_enabled",
	"lldp_med_device_type",
	"lldp_med_capability",
}

// SentinelRecord returns the record used when nothing is known.
func SentinelRecord() Record {
	return Record{
		ChassisID:          Sentinel,
		ChassisDescription: Sentinel,
		ManagementIP:       Sentinel,
		PortID:             Sentinel,
		PortDescr:          Sentinel,
		AutoNegCurrent:     Sentinel,
		AutoSupported:      Sentinel,
		AutoEnabled:        Sentinel,
		AvailableModes:     Sentinel,
		VLANID:             Sentinel,
		PowerSupported:     Sentinel,
		PowerEnabled:       Sentinel,
		MEDDeviceType:      Sentinel,
		MEDCapability:      Sentinel,
	}
}

// Fields returns the record as hash fields keyed by FieldNames.
func (r Record) Fields() map[string]string {
	return map[string]string{
		"chassis_id":           r.ChassisID,
		"chassis_description":  r.ChassisDescription,
		"management_ip":        r.ManagementIP,
		"port_id":              r.PortID,
		"port_descr":           r.PortDescr,
		"auto_neg_current":     r.AutoNegCurrent,
		"auto_supported":       r.AutoSupported,
		"auto_enabled":         r.AutoEnabled,
		"available_modes_str":  r.AvailableModes,
		"vlan_id":              r.VLANID,
		"power_supported":      r.PowerSupported,
		"power_enabled":        r.PowerEnabled,
		"lldp_med_device_type": r.MEDDeviceType,
		"lldp_med_capability":  r.MEDCapability,
	}
}

// IsSentinel reports whether r carries no neighbor information.
func (r Record) IsSentinel() bool {
	return r == SentinelRecord()
}

// Save writes rec to the neighbors hash in one step. A nil rec writes the
// sentinel record.
func Save(ctx context.Context, s store.Store, rec *Record) error {
	if rec == nil {
		sentinel := SentinelRecord()
		rec = &sentinel
	}
	return s.SetHash(ctx, store.KeyNeighbors, rec.Fields())
}

// Load reads the neighbors hash back. Missing fields become Sentinel.
func Load(ctx context.Context, s store.Store) (Record, error) {
	h, err := s.GetHash(ctx, store.KeyNeighbors)
	if err != nil {
		return SentinelRecord(), err
	}
	get := func(k string) string {
		if v, ok := h[k]; ok {
			return v
		}
		return Sentinel
	}
	return Record{
		ChassisID:          get("chassis_id"),
		ChassisDescription: get("chassis_description"),
		ManagementIP:       get("management_ip"),
		PortID:             get("port_id"),
		PortDescr:          get("port_descr"),
		AutoNegCurrent:     get("auto_neg_current"),
		AutoSupported:      get("auto_supported"),
		AutoEnabled:        get("auto_enabled"),
		AvailableModes:     get("available_modes_str"),
		VLANID:             get("vlan_id"),
		PowerSupported:     get("power_supported"),
		PowerEnabled:       get("power_enabled"),
		MEDDeviceType:      get("lldp_med_device_type"),
		MEDCapability:      get("lldp_med_capability"),
	}, nil
}
