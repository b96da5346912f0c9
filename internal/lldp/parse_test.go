package lldp

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readFixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return data
}

func assertComplete(t *testing.T, rec Record) {
	t.Helper()
	fields := rec.Fields()
	require.Len(t, fields, len(FieldNames))
	for _, name := range FieldNames {
		assert.NotEmpty(t, fields[name], "field %s should never be empty", name)
	}
}

func TestParse_SingleNeighbor(t *testing.T) {
	rec, err := Parse(readFixture(t, "single.json"), "")
	require.NoError(t, err)

	assert.Equal(t, Record{
		ChassisID:          "00:1b:54:aa:bb:cc",
		ChassisDescription: "Cisco IOS Software, C2960X",
		ManagementIP:       "10.0.0.2, fd00::2",
		PortID:             "Gi0/1",
		PortDescr:          "GigabitEthernet0/1",
		AutoNegCurrent:     "1000BaseTFD - Four-pair Category 5 UTP, full duplex mode",
		AutoSupported:      "true",
		AutoEnabled:        "true",
		AvailableModes:     "10Base-T/HD/FD,100Base-TX/FD,1000Base-T/FD",
		VLANID:             "10",
		PowerSupported:     "true",
		PowerEnabled:       "false",
		MEDDeviceType:      "Network Connectivity Device",
		MEDCapability:      "true",
	}, rec)
	assertComplete(t, rec)
}

func TestParse_MultipleNeighbors(t *testing.T) {
	data := readFixture(t, "multi.json")

	t.Run("first entry by default", func(t *testing.T) {
		rec, err := Parse(data, "")
		require.NoError(t, err)

		assert.Equal(t, "f0:9f:c2:00:00:01", rec.ChassisID)
		assert.Equal(t, "UniFi AP", rec.ChassisDescription)
		assert.Equal(t, "f0:9f:c2:00:00:02", rec.PortID)
		assert.Equal(t, NotAvailable, rec.ManagementIP)
		assert.Equal(t, NotAvailable, rec.AvailableModes)
		assert.Equal(t, NotAvailable, rec.VLANID)
		assert.Equal(t, NotAvailable, rec.PowerSupported)
		assert.Equal(t, NotAvailable, rec.MEDCapability)
		assertComplete(t, rec)
	})

	t.Run("configured interface", func(t *testing.T) {
		rec, err := Parse(data, "eth0")
		require.NoError(t, err)

		// chassis without a system-name level
		assert.Equal(t, "00:04:96:11:22:33", rec.ChassisID)
		assert.Equal(t, "ExtremeXOS", rec.ChassisDescription)
		assert.Equal(t, "192.168.10.1", rec.ManagementIP)
		assert.Equal(t, "1:24", rec.PortID)
		assert.Equal(t, "1000BASE-T/FD", rec.AvailableModes)
		assert.Equal(t, "false", rec.AutoEnabled)
		assert.Equal(t, NotAvailable, rec.AutoNegCurrent)
		assert.Equal(t, "20", rec.VLANID)
		assertComplete(t, rec)
	})

	t.Run("unknown interface falls back to first", func(t *testing.T) {
		rec, err := Parse(data, "eth9")
		require.NoError(t, err)
		assert.Equal(t, "f0:9f:c2:00:00:01", rec.ChassisID)
	})
}

func TestParse_NoNeighbors(t *testing.T) {
	inputs := map[string]string{
		"empty lldp object":    string(readFixture(t, "empty.json")),
		"empty lldp list":      `{"lldp":[]}`,
		"empty interface list": `{"lldp":{"interface":[]}}`,
		"empty interface map":  `{"lldp":{"interface":{}}}`,
		"null interface":       `{"lldp":{"interface":null}}`,
		"wrapped empty body":   `{"lldp":[{}]}`,
	}

	for name, input := range inputs {
		t.Run(name, func(t *testing.T) {
			rec, err := Parse([]byte(input), "")
			assert.ErrorIs(t, err, ErrNoNeighbors)
			assert.True(t, rec.IsSentinel())
		})
	}
}

func TestParse_Malformed(t *testing.T) {
	inputs := map[string]string{
		"not json":                 `lldpcli: unable to connect`,
		"truncated":                `{"lldp":{"interface":{"eth0":{`,
		"top level array":          `[]`,
		"missing lldp":             `{"neighbors":{}}`,
		"lldp is a string":         `{"lldp":"none"}`,
		"interface entry scalar":   `{"lldp":{"interface":{"eth0":"down"}}}`,
		"interface list of scalar": `{"lldp":{"interface":["eth0"]}}`,
		"empty output":             ``,
	}

	for name, input := range inputs {
		t.Run(name, func(t *testing.T) {
			rec, err := Parse([]byte(input), "")
			assert.ErrorIs(t, err, ErrParseFailed)
			assert.True(t, rec.IsSentinel(), "a failed parse must never yield a partial record")
		})
	}
}

func TestParse_SparseNeighborIsComplete(t *testing.T) {
	rec, err := Parse([]byte(`{"lldp":{"interface":{"eth0":{}}}}`), "")
	require.NoError(t, err)

	for _, name := range FieldNames {
		assert.Equal(t, NotAvailable, rec.Fields()[name], name)
	}
}

func TestChassisData(t *testing.T) {
	tests := []struct {
		name      string
		chassis   string
		wantID    string
		wantDescr string
	}{
		{
			name:      "named level",
			chassis:   `{"sw1":{"id":{"value":"aa"},"descr":"switch"}}`,
			wantID:    "aa",
			wantDescr: "switch",
		},
		{
			name:      "first key id",
			chassis:   `{"id":{"value":"bb"},"descr":"flat"}`,
			wantID:    "bb",
			wantDescr: "flat",
		},
		{
			name:      "document order wins",
			chassis:   `{"zz":{"id":{"value":"first"}},"aa":{"id":{"value":"second"}}}`,
			wantID:    "first",
			wantDescr: NotAvailable,
		},
		{
			name:      "scalars only",
			chassis:   `{"descr":"no id here"}`,
			wantID:    NotAvailable,
			wantDescr: "no id here",
		},
		{
			name:      "empty",
			chassis:   `{}`,
			wantID:    NotAvailable,
			wantDescr: NotAvailable,
		},
		{
			name:      "not an object",
			chassis:   `"sw1"`,
			wantID:    NotAvailable,
			wantDescr: NotAvailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := Parse([]byte(`{"lldp":{"interface":{"eth0":{"chassis":`+tt.chassis+`}}}}`), "")
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, rec.ChassisID)
			assert.Equal(t, tt.wantDescr, rec.ChassisDescription)
		})
	}
}

func TestAdvertisedModes(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "list form", raw: `[{"type":"1000BASE-T","hd":false,"fd":true}]`, want: "1000BASE-T/FD"},
		{name: "string form", raw: `"1000BASE-T/FD"`, want: "1000BASE-T/FD"},
		{name: "half and full", raw: `[{"type":"10BASE-T","hd":true,"fd":true}]`, want: "10BASE-T/HD/FD"},
		{name: "neither duplex", raw: `[{"type":"Other"}]`, want: "Other"},
		{name: "missing type", raw: `[{"fd":true}]`, want: "Unknown/FD"},
		{name: "yes strings", raw: `[{"type":"100BASE-TX","hd":"no","fd":"yes"}]`, want: "100BASE-TX/FD"},
		{name: "several", raw: `[{"type":"100BASE-TX","fd":true},{"type":"1000BASE-T","fd":true}]`, want: "100BASE-TX/FD,1000BASE-T/FD"},
		{name: "single object", raw: `{"type":"1000BASE-T","fd":true}`, want: "1000BASE-T/FD"},
		{name: "empty list", raw: `[]`, want: NotAvailable},
		{name: "null", raw: `null`, want: NotAvailable},
		{name: "missing", raw: ``, want: NotAvailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var n node
			if tt.raw != "" {
				n = node(tt.raw)
			}
			assert.Equal(t, tt.want, advertisedModes(n))
		})
	}
}

func TestNodeText(t *testing.T) {
	tests := []struct {
		raw    string
		want   string
		wantOK bool
	}{
		{raw: `"Gi0/1"`, want: "Gi0/1", wantOK: true},
		{raw: `true`, want: "true", wantOK: true},
		{raw: `false`, want: "false", wantOK: true},
		{raw: `20`, want: "20", wantOK: true},
		{raw: `1.5`, want: "1.5", wantOK: true},
		{raw: `""`, wantOK: false},
		{raw: `null`, wantOK: false},
		{raw: `{}`, wantOK: false},
		{raw: `[1]`, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := node(tt.raw).text()
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	var absent node
	_, ok := absent.text()
	assert.False(t, ok)
	assert.Nil(t, absent.get("x"))
	assert.Nil(t, absent.path("a", "b"))
}

func TestMEDCapability(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "scalar", raw: `{"available":"yes"}`, want: "yes"},
		{name: "bool", raw: `{"available":false}`, want: "false"},
		{name: "per capability", raw: `[{"type":"Capabilities","available":true},{"type":"Policy","available":true},{"type":"Location","available":false}]`, want: "Capabilities,Policy"},
		{name: "missing", raw: `{}`, want: NotAvailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, medCapability(node(tt.raw)))
		})
	}
}
