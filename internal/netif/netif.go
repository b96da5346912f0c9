// Package netif reports facts about the local end of the link: the address
// and MAC of the interface lldpd listens on, and whether it is up. These sit
// next to the neighbor record so the screen shows both ends of the cable.
package netif

import (
	"context"
	"net"
	"os"
	"strings"

	"github.com/rpint/rpint/internal/store"
	"github.com/shirou/gopsutil/v4/host"
	psnet "github.com/shirou/gopsutil/v4/net"
)

// DefaultInterface is used when no interface is configured.
const DefaultInterface = "eth0"

const unknown = "--"

// Link describes one local interface.
type Link struct {
	Interface string `json:"interface" yaml:"interface"`
	Hostname  string `json:"hostname" yaml:"hostname"`
	LocalIP   string `json:"local_ip" yaml:"local_ip"`
	LocalMAC  string `json:"local_mac" yaml:"local_mac"`
	State     string `json:"link_state" yaml:"link_state"`
}

// Unknown returns the Link stored when the interface cannot be found.
func Unknown(name string) Link {
	return Link{
		Interface: name,
		Hostname:  unknown,
		LocalIP:   unknown,
		LocalMAC:  unknown,
		State:     unknown,
	}
}

// Fields returns the link as hash fields.
func (l Link) Fields() map[string]string {
	return map[string]string{
		"interface":  l.Interface,
		"hostname":   l.Hostname,
		"local_ip":   l.LocalIP,
		"local_mac":  l.LocalMAC,
		"link_state": l.State,
	}
}

// Source looks up a local interface by name.
type Source interface {
	Lookup(ctx context.Context, name string) (Link, error)
}

// Interfaces is a Source backed by gopsutil.
type Interfaces struct{}

// Lookup returns the named interface. A missing interface is not an error:
// the result is Unknown(name) with the hostname filled in.
func (Interfaces) Lookup(ctx context.Context, name string) (Link, error) {
	link := Unknown(name)
	link.Hostname = hostname(ctx)

	stats, err := psnet.InterfacesWithContext(ctx)
	if err != nil {
		return link, err
	}
	for _, st := range stats {
		if st.Name != name {
			continue
		}
		return fromStat(st, link.Hostname), nil
	}
	return link, nil
}

func fromStat(st psnet.InterfaceStat, hostname string) Link {
	link := Unknown(st.Name)
	link.Hostname = hostname
	if st.HardwareAddr != "" {
		link.LocalMAC = st.HardwareAddr
	}
	link.State = "down"
	for _, f := range st.Flags {
		if f == "up" {
			link.State = "up"
			break
		}
	}
	var addrs []string
	for _, a := range st.Addrs {
		addrs = append(addrs, a.Addr)
	}
	if ip := firstIPv4(addrs); ip != "" {
		link.LocalIP = ip
	}
	return link
}

// firstIPv4 picks the first IPv4 address from CIDR or bare address strings.
func firstIPv4(addrs []string) string {
	for _, a := range addrs {
		s := a
		if i := strings.IndexByte(s, '/'); i >= 0 {
			s = s[:i]
		}
		ip := net.ParseIP(s)
		if ip != nil && ip.To4() != nil {
			return ip.String()
		}
	}
	return ""
}

func hostname(ctx context.Context) string {
	if info, err := host.InfoWithContext(ctx); err == nil && info.Hostname != "" {
		return info.Hostname
	}
	if h, err := os.Hostname(); err == nil {
		return h
	}
	return unknown
}

// Save writes the link to the local_link hash in one step.
func Save(ctx context.Context, s store.Store, l Link) error {
	return s.SetHash(ctx, store.KeyLocalLink, l.Fields())
}
