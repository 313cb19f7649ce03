package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorIsMatchesKind(t *testing.T) {
	err := fmt.Errorf("search: %w", ConflictingFilter("*a*", "*b*"))

	assert.True(t, errors.Is(err, ErrConflictingFilter))
	assert.False(t, errors.Is(err, ErrInvalidArgument))
	assert.Equal(t, KindConflictingFilter, KindOf(err))
	assert.True(t, IsUserError(err))
	assert.Contains(t, err.Error(), "*a*, *b*")
}

func TestBackendFaultUnwraps(t *testing.T) {
	cause := errors.New("disk on fire")
	err := BackendFault("delete_hosts", FaultPermissionDenied, cause)

	assert.True(t, errors.Is(err, ErrBackendFault))
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, FaultPermissionDenied, FaultOf(err))
	assert.False(t, IsUserError(err))
	assert.Equal(t, "delete_hosts failed [PermissionDenied]: disk on fire", err.Error())
}

func TestUnrecognizedSearchTypeMessage(t *testing.T) {
	err := UnrecognizedSearchType("vlan", "12")
	assert.Equal(t, "Unrecognized special search type: vlan (value: 12)", err.Error())
	assert.Equal(t, "vlan", err.Type)
	assert.Equal(t, "12", err.Value)
}

func TestListFaultMessages(t *testing.T) {
	err := ListFault("register_host", []string{"hostname taken", "bad network"})
	assert.Equal(t, "register_host failed [ListFault]: hostname taken; bad network", err.Error())
	assert.Equal(t, KindBackendFault, KindOf(err))
}

func TestNoAccess(t *testing.T) {
	err := NoAccess("list_hosts", "mallory")
	assert.True(t, errors.Is(err, ErrNoAccess))
	assert.Equal(t, "", FaultOf(errors.New("plain")))
	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
}
