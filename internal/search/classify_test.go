package search

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ipamerr "ipamhosts/internal/errors"
)

func classifyAll(t *testing.T, tokens ...string) (FilterSet, error) {
	t.Helper()
	var f FilterSet
	for _, tok := range tokens {
		if err := Classify(tok, &f); err != nil {
			return f, err
		}
	}
	return f, nil
}

func TestClassifyPriority(t *testing.T) {
	tests := []struct {
		token string
		want  FilterSet
	}{
		{"aa:bb:cc:dd:ee:ff", FilterSet{MAC: "aa:bb:cc:dd:ee:ff"}},
		{"aabbccddeeff", FilterSet{MAC: "aabbccddeeff"}},
		{"10.1.2.3", FilterSet{IP: "10.1.2.3"}},
		{"2001:db8::1", FilterSet{IP: "2001:db8::1"}},
		{"10.0.0.0/24", FilterSet{Network: "10.0.0.0/24"}},
		{"net:10.0.0.0/24", FilterSet{Network: "10.0.0.0/24"}},
		{"network:10.0.0.0/8", FilterSet{Network: "10.0.0.0/8"}},
		{"mac:aa:bb:cc:dd:ee:ff", FilterSet{MAC: "aa:bb:cc:dd:ee:ff"}},
		{"ip:10.0.0.1", FilterSet{IP: "10.0.0.1"}},
		{"user:alice", FilterSet{Username: "alice"}},
		{"username:alice", FilterSet{Username: "alice"}},
		{"name:web*", FilterSet{NameSearch: "web*"}},
		{"hostname:db1.example.com", FilterSet{NameSearch: "db1.example.com"}},
		{"printer", FilterSet{NameSearch: "*printer*"}},
		{"host%name", FilterSet{NameSearch: "*host*name*"}},
		{"web*", FilterSet{NameSearch: "web*"}},
		{"www.example.com", FilterSet{NameSearch: "www.example.com"}},
		{"db%.example.com", FilterSet{NameSearch: "db*.example.com"}},
		{"name:web%", FilterSet{NameSearch: "web*"}},
		{"hostname:db%.example.com", FilterSet{NameSearch: "db*.example.com"}},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			got, err := classifyAll(t, tt.token)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClassifyUnrecognizedType(t *testing.T) {
	_, err := classifyAll(t, "vlan:12")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ipamerr.ErrUnrecognizedSearchType))

	var e *ipamerr.Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, "vlan", e.Type)
	assert.Equal(t, "12", e.Value)
}

func TestClassifyEmptyKeyedValue(t *testing.T) {
	for _, token := range []string{"mac:", "ip:", "user:", "net:", "name:"} {
		_, err := classifyAll(t, token)
		require.Error(t, err, token)
		assert.True(t, errors.Is(err, ipamerr.ErrInvalidArgument), token)
	}
}

func TestClassifyTwoNamesConflict(t *testing.T) {
	cases := [][]string{
		{"web", "db"},
		{"web", "name:db"},
		{"hostname:a.example.com", "name:b.example.com"},
		{"alpha", "beta", "gamma"},
	}
	for _, tokens := range cases {
		_, err := classifyAll(t, tokens...)
		require.Error(t, err, tokens)
		assert.True(t, errors.Is(err, ipamerr.ErrConflictingFilter), tokens)
	}

	_, err := classifyAll(t, "web", "db")
	var e *ipamerr.Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, []string{"*web*", "*db*"}, e.Values)
}

func TestClassifyMACNeverProducesNamesearch(t *testing.T) {
	for _, mac := range []string{"00:11:22:33:44:55", "00-11-22-33-44-55", "0011.2233.4455"} {
		f, err := classifyAll(t, mac)
		require.NoError(t, err)
		assert.Equal(t, mac, f.MAC)
		assert.Empty(t, f.NameSearch)
	}
}

func TestClassifyLaterNonNameOverwrites(t *testing.T) {
	f, err := classifyAll(t, "10.0.0.1", "ip:10.0.0.2")
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.2", f.IP)
}
