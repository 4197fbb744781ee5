// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package classifier

import (
	"testing"

	"github.com/stretchr/testify/require"
	"ndtwin.dev/core/internal/ipaddr"
)

func TestIncrementalUpdateS2(t *testing.T) {
	c := New(nil)

	poll1 := []byte(`[{"dpid":1,"flows":[
		{"priority":10,"match":{"eth_type":2048,"ipv4_dst":"10.0.0.0/24"},"actions":["OUTPUT:2"]}
	]}]`)
	c.UpdateFromQueriedTables(poll1)

	key := MatchFields{EthType: 0x0800, DstIP: mustIP(t, "10.0.0.7")}
	eff, ok := c.Lookup(1, 0, key)
	require.True(t, ok)
	require.Equal(t, []uint32{2}, eff.OutputPorts)

	poll2 := []byte(`[{"dpid":1,"flows":[]}]`)
	c.UpdateFromQueriedTables(poll2)

	_, ok = c.Lookup(1, 0, key)
	require.False(t, ok)
}

func TestDpidIndexedShape(t *testing.T) {
	c := New(nil)
	poll := []byte(`[{"dpid":5,"flows":{"5":[
		{"priority":1,"match":{"dl_type":"0x0800","nw_dst":"192.168.0.0/16"},"actions":["OUTPUT:1"]}
	]}}]`)
	c.UpdateFromQueriedTables(poll)

	key := MatchFields{EthType: 0x0800, DstIP: mustIP(t, "192.168.5.5")}
	eff, ok := c.Lookup(5, 0, key)
	require.True(t, ok)
	require.Equal(t, []uint32{1}, eff.OutputPorts)
}

func TestCIDRZeroMatchesEverything(t *testing.T) {
	c := New(nil)
	poll := []byte(`[{"dpid":1,"flows":[
		{"priority":0,"match":{"eth_type":2048,"ipv4_dst":"0.0.0.0/0"},"actions":["OUTPUT:1"]}
	]}]`)
	c.UpdateFromQueriedTables(poll)

	for _, ip := range []string{"1.2.3.4", "255.255.255.255", "0.0.0.0"} {
		_, ok := c.Lookup(1, 0, MatchFields{EthType: 0x0800, DstIP: mustIP(t, ip)})
		require.True(t, ok, ip)
	}
}

func TestHigherPriorityWins(t *testing.T) {
	c := New(nil)
	poll := []byte(`[{"dpid":1,"flows":[
		{"priority":0,"match":{"eth_type":2048,"ipv4_dst":"0.0.0.0/0"},"actions":["OUTPUT:1"]},
		{"priority":100,"match":{"eth_type":2048,"ipv4_dst":"10.0.0.0/24"},"actions":["OUTPUT:9"]}
	]}]`)
	c.UpdateFromQueriedTables(poll)

	eff, ok := c.Lookup(1, 0, MatchFields{EthType: 0x0800, DstIP: mustIP(t, "10.0.0.5")})
	require.True(t, ok)
	require.Equal(t, []uint32{9}, eff.OutputPorts)
}

func TestMalformedRuleIsDropped(t *testing.T) {
	poll := []byte(`[{"dpid":1,"flows":[
		{"priority":1,"match":{"ipv4_dst":"not-an-ip"},"actions":["OUTPUT:1"]},
		{"priority":1,"match":{"unknown_field":1},"actions":["OUTPUT:1"]}
	]}]`)
	rules, warnings := ParsePollInput(poll)
	require.Empty(t, rules)
	require.Len(t, warnings, 2)
}

func TestLookupUnknownDpid(t *testing.T) {
	c := New(nil)
	_, ok := c.Lookup(999, 0, MatchFields{})
	require.False(t, ok)
}

func mustIP(t *testing.T, s string) uint32 {
	t.Helper()
	v, err := ipaddr.ToUint32(s)
	require.NoError(t, err)
	return v
}
