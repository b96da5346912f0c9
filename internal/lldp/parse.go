package lldp

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrCommandFailed means lldpcli could not be run or exited non-zero.
	ErrCommandFailed = stderrors.New("lldp command failed")
	// ErrParseFailed means lldpcli output was not the JSON shape we read.
	ErrParseFailed = stderrors.New("lldp output could not be parsed")
	// ErrNoNeighbors means lldpd answered but has not heard from anyone.
	ErrNoNeighbors = stderrors.New("no lldp neighbors")
)

// node is a raw JSON value with typed, presence-aware accessors.
// A nil node stands for "absent".
type node json.RawMessage

func (n node) present() bool {
	t := bytes.TrimSpace(n)
	return len(t) > 0 && !bytes.Equal(t, []byte("null"))
}

func (n node) kind() byte {
	t := bytes.TrimSpace(n)
	if len(t) == 0 {
		return 0
	}
	return t[0]
}

func (n node) isObject() bool { return n.kind() == '{' }
func (n node) isArray() bool  { return n.kind() == '[' }

// get returns the member named key, or nil when n is not an object or the
// member is missing.
func (n node) get(key string) node {
	if !n.isObject() {
		return nil
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(n, &m); err != nil {
		return nil
	}
	v, ok := m[key]
	if !ok {
		return nil
	}
	return node(v)
}

// path follows a chain of object members.
func (n node) path(keys ...string) node {
	cur := n
	for _, k := range keys {
		cur = cur.get(k)
		if cur == nil {
			return nil
		}
	}
	return cur
}

// members returns the object's members in document order.
func (n node) members() ([]member, error) {
	if !n.isObject() {
		return nil, fmt.Errorf("expected object")
	}
	dec := json.NewDecoder(bytes.NewReader(n))
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	var out []member
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected object key %v", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, err
		}
		out = append(out, member{key: key, value: node(raw)})
	}
	return out, nil
}

// items returns the elements of an array. A non-array present value is
// treated as a single element list.
func (n node) items() []node {
	if !n.present() {
		return nil
	}
	if !n.isArray() {
		return []node{n}
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(n, &raw); err != nil {
		return nil
	}
	out := make([]node, 0, len(raw))
	for _, r := range raw {
		out = append(out, node(r))
	}
	return out
}

// text renders a scalar: strings as-is, booleans as "true"/"false", numbers
// by their JSON literal. Objects, arrays, null and empty strings are absent.
func (n node) text() (string, bool) {
	if !n.present() {
		return "", false
	}
	switch n.kind() {
	case '"':
		var s string
		if err := json.Unmarshal(n, &s); err != nil || s == "" {
			return "", false
		}
		return s, true
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(n, &b); err != nil {
			return "", false
		}
		return strconv.FormatBool(b), true
	case '{', '[':
		return "", false
	default:
		var num json.Number
		dec := json.NewDecoder(bytes.NewReader(n))
		dec.UseNumber()
		if err := dec.Decode(&num); err != nil {
			return "", false
		}
		return num.String(), true
	}
}

// truthy reports whether a flag-like value is set (true, "yes", "true", 1).
func (n node) truthy() bool {
	s, ok := n.text()
	if !ok {
		return false
	}
	switch strings.ToLower(s) {
	case "true", "yes", "1", "on":
		return true
	}
	return false
}

func (n node) textOr(def string) string {
	if s, ok := n.text(); ok {
		return s
	}
	return def
}

type member struct {
	key   string
	value node
}

// Parse turns `lldpcli show neighbors details -f json` output into a Record.
// iface selects which interface entry to report; empty picks the first.
func Parse(data []byte, iface string) (Record, error) {
	root := node(bytes.TrimSpace(data))
	if !json.Valid(root) || !root.isObject() {
		return SentinelRecord(), fmt.Errorf("%w: output is not a JSON object", ErrParseFailed)
	}

	top := root.get("lldp")
	if top == nil {
		return SentinelRecord(), fmt.Errorf("%w: missing \"lldp\" member", ErrParseFailed)
	}
	// Older lldpcli builds wrap the body in a one-element list.
	if top.isArray() {
		list := top.items()
		if len(list) == 0 {
			return SentinelRecord(), ErrNoNeighbors
		}
		top = list[0]
	}
	if !top.isObject() {
		return SentinelRecord(), fmt.Errorf("%w: \"lldp\" is not an object", ErrParseFailed)
	}

	neighbor, err := selectInterface(top.get("interface"), iface)
	if err != nil {
		return SentinelRecord(), err
	}

	return extract(neighbor), nil
}

// selectInterface finds the neighbor entry under "interface", which is an
// object keyed by interface name or, with several neighbors, a list of such
// objects.
func selectInterface(ifaces node, want string) (node, error) {
	if !ifaces.present() {
		return nil, ErrNoNeighbors
	}

	var candidates []member
	for _, item := range ifaces.items() {
		ms, err := item.members()
		if err != nil {
			return nil, fmt.Errorf("%w: interface entry: %v", ErrParseFailed, err)
		}
		candidates = append(candidates, ms...)
	}
	if len(candidates) == 0 {
		return nil, ErrNoNeighbors
	}

	chosen := candidates[0]
	if want != "" {
		for _, c := range candidates {
			if c.key == want {
				chosen = c
				break
			}
		}
	}
	if !chosen.value.isObject() {
		return nil, fmt.Errorf("%w: interface %q is not an object", ErrParseFailed, chosen.key)
	}
	return chosen.value, nil
}

func extract(n node) Record {
	chassis := chassisData(n.get("chassis"))
	port := n.get("port")
	autoNeg := port.get("auto-negotiation")

	return Record{
		ChassisID:          chassis.path("id", "value").textOr(NotAvailable),
		ChassisDescription: chassis.get("descr").textOr(NotAvailable),
		ManagementIP:       joinTexts(chassis.get("mgmt-ip"), ", "),
		PortID:             port.path("id", "value").textOr(NotAvailable),
		PortDescr:          port.get("descr").textOr(NotAvailable),
		AutoNegCurrent:     autoNeg.get("current").textOr(NotAvailable),
		AutoSupported:      autoNeg.get("supported").textOr(NotAvailable),
		AutoEnabled:        autoNeg.get("enabled").textOr(NotAvailable),
		AvailableModes:     advertisedModes(autoNeg.get("advertised")),
		VLANID:             vlanID(n.get("vlan")),
		PowerSupported:     port.path("power", "supported").textOr(NotAvailable),
		PowerEnabled:       port.path("power", "enabled").textOr(NotAvailable),
		MEDDeviceType:      n.path("lldp-med", "device-type").textOr(NotAvailable),
		MEDCapability:      medCapability(n.path("lldp-med", "capability")),
	}
}

// chassisData unwraps the system-name level lldpcli puts around chassis
// details. When any member of the chassis object is itself an object, the
// first member in document order is the sub-key. A sub-key of "id" means
// there is no name level and the chassis object is the data.
func chassisData(chassis node) node {
	ms, err := chassis.members()
	if err != nil || len(ms) == 0 {
		return nil
	}
	nested := false
	for _, m := range ms {
		if m.value.isObject() {
			nested = true
			break
		}
	}
	if !nested || ms[0].key == "id" {
		return chassis
	}
	return ms[0].value
}

// advertisedModes renders the advertised auto-negotiation modes. A list of
// {type, hd, fd} objects becomes "type/HD/FD" per entry (empty tokens
// dropped) joined with ","; a plain string passes through unchanged.
func advertisedModes(n node) string {
	if s, ok := n.text(); ok {
		return s
	}
	var out []string
	for _, item := range n.items() {
		if !item.isObject() {
			if s, ok := item.text(); ok {
				out = append(out, s)
			}
			continue
		}
		tokens := []string{item.get("type").textOr("Unknown")}
		if item.get("hd").truthy() {
			tokens = append(tokens, "HD")
		}
		if item.get("fd").truthy() {
			tokens = append(tokens, "FD")
		}
		out = append(out, strings.Join(tokens, "/"))
	}
	if len(out) == 0 {
		return NotAvailable
	}
	return strings.Join(out, ",")
}

func joinTexts(n node, sep string) string {
	var out []string
	for _, item := range n.items() {
		if s, ok := item.text(); ok {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return NotAvailable
	}
	return strings.Join(out, sep)
}

func vlanID(n node) string {
	for _, item := range n.items() {
		if s, ok := item.get("vlan-id").text(); ok {
			return s
		}
	}
	return NotAvailable
}

// medCapability reads lldp-med capability.available, which lldpcli prints as
// a scalar or, for some devices, as an object per capability.
func medCapability(n node) string {
	if s, ok := n.get("available").text(); ok {
		return s
	}
	var out []string
	for _, item := range n.items() {
		if s, ok := item.get("type").text(); ok && item.get("available").truthy() {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return NotAvailable
	}
	return strings.Join(out, ",")
}
