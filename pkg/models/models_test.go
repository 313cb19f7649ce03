package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessJSON(t *testing.T) {
	data, err := json.Marshal([]Access{AccessGranted, AccessDenied, AccessUnknown})
	require.NoError(t, err)
	assert.Equal(t, `[true,false,"00000000"]`, string(data))

	var decoded []Access
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, []Access{AccessGranted, AccessDenied, AccessUnknown}, decoded)

	var a Access
	assert.Error(t, json.Unmarshal([]byte(`12`), &a))
}
