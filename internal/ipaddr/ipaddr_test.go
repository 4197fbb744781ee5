// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package ipaddr

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	cases := []string{"10.0.0.1", "192.168.1.254", "0.0.0.0", "255.255.255.255"}
	for _, s := range cases {
		v, err := ToUint32(s)
		require.NoError(t, err)
		require.Equal(t, s, FromUint32(v))
	}
}

func TestParseCIDROrIP(t *testing.T) {
	t.Run("implicit /32", func(t *testing.T) {
		net, mask, err := ParseCIDROrIP("10.0.0.7")
		require.NoError(t, err)
		require.Equal(t, uint32(0xFFFFFFFF), mask)
		want, _ := ToUint32("10.0.0.7")
		require.Equal(t, want, net)
	})

	t.Run("CIDR prefix", func(t *testing.T) {
		net, mask, err := ParseCIDROrIP("10.0.0.0/24")
		require.NoError(t, err)
		require.Equal(t, uint32(0xFFFFFF00), mask)
		require.Equal(t, 24, PrefixLen(mask))
		want, _ := ToUint32("10.0.0.0")
		require.Equal(t, want, net)
	})

	t.Run("dotted netmask", func(t *testing.T) {
		_, mask, err := ParseCIDROrIP("10.0.0.0/255.255.255.0")
		require.NoError(t, err)
		require.Equal(t, uint32(0xFFFFFF00), mask)
	})

	t.Run("hex netmask", func(t *testing.T) {
		_, mask, err := ParseCIDROrIP("10.0.0.0/0xffffff00")
		require.NoError(t, err)
		require.Equal(t, uint32(0xFFFFFF00), mask)
	})

	t.Run("CIDR /0 matches everything", func(t *testing.T) {
		net, mask, err := ParseCIDROrIP("0.0.0.0/0")
		require.NoError(t, err)
		require.Equal(t, uint32(0), mask)
		require.Equal(t, uint32(0), net)
	})

	t.Run("invalid address", func(t *testing.T) {
		_, _, err := ParseCIDROrIP("not-an-ip")
		require.Error(t, err)
	})
}
