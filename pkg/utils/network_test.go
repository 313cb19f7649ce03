package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsMAC(t *testing.T) {
	valid := []string{
		"aa:bb:cc:dd:ee:ff",
		"AA-BB-CC-DD-EE-FF",
		"aabb.ccdd.eeff",
		"aabbccddeeff",
	}
	for _, s := range valid {
		assert.True(t, IsMAC(s), s)
	}

	invalid := []string{
		"aa:bb:cc:dd:ee",
		"00:00:5e:00:53:00:00:01", // EUI-64
		"hostname",
		"aabbccddeefg",
		"",
	}
	for _, s := range invalid {
		assert.False(t, IsMAC(s), s)
	}
}

func TestIsIPAndCIDR(t *testing.T) {
	assert.True(t, IsIP("10.0.0.1"))
	assert.True(t, IsIP("2001:db8::1"))
	assert.False(t, IsIP("fe80::1%eth0"))
	assert.False(t, IsIP("10.0.0.0/24"))

	assert.True(t, IsCIDR("10.0.0.0/24"))
	assert.True(t, IsCIDR("2001:db8::/32"))
	assert.False(t, IsCIDR("10.0.0.1"))
	assert.False(t, IsCIDR("net:10.0.0.0/24"))
}

func TestNormalizeMAC(t *testing.T) {
	assert.Equal(t, "aa:bb:cc:dd:ee:ff", NormalizeMAC("AA-BB-CC-DD-EE-FF"))
	assert.Equal(t, "aa:bb:cc:dd:ee:ff", NormalizeMAC(" aabbccddeeff "))
	assert.Equal(t, "not-a-mac", NormalizeMAC("Not-A-Mac"))
}
