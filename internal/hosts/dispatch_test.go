package hosts

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ipamerr "ipamhosts/internal/errors"
	"ipamhosts/pkg/models"
)

func TestDispatchDelete(t *testing.T) {
	tests := []struct {
		origin string
		want   string
	}{
		{"/hosts/search/", "/hosts/search/?success=True"},
		{"/hosts/search/?username=alice", "/hosts/search/?username=alice&success=True"},
		{"/hosts/search/?username=alice&success=True", "/hosts/search/?username=alice&success=True"},
	}

	for _, tt := range tests {
		fb := &fakeBackend{}
		svc := NewService(fb)

		loc, err := svc.Dispatch(context.Background(), rc, models.BatchCommand{
			Action:  models.ActionDelete,
			HostIDs: []string{"a", "b"},
			Origin:  tt.origin,
		})
		require.NoError(t, err)
		assert.Equal(t, tt.want, loc)
		assert.Equal(t, []string{"delete_hosts"}, fb.calls)
		assert.Equal(t, [][]string{{"a", "b"}}, fb.batchIDs)
	}
}

func TestDispatchRenew(t *testing.T) {
	fb := &fakeBackend{}
	svc := NewService(fb)

	loc, err := svc.Dispatch(context.Background(), rc, models.BatchCommand{
		Action:  models.ActionRenew,
		HostIDs: []string{"a", "a"},
		Origin:  "/hosts/search/?mac=a",
	})
	require.NoError(t, err)
	assert.Equal(t, "/hosts/search/?mac=a&success=True", loc)
	assert.Equal(t, []string{"renew_hosts"}, fb.calls)
	assert.Equal(t, []string{"a", "a"}, fb.batchIDs[0])
}

func TestDispatchUnknownActionIsNoop(t *testing.T) {
	fb := &fakeBackend{}
	svc := NewService(fb)

	loc, err := svc.Dispatch(context.Background(), rc, models.BatchCommand{
		Action:  "owners",
		HostIDs: []string{"a"},
		Origin:  "/hosts/search/?mac=a",
	})
	require.NoError(t, err)
	assert.Equal(t, "/hosts/search/?mac=a", loc)
	assert.Empty(t, fb.calls)
}

func TestDispatchEmptySelection(t *testing.T) {
	fb := &fakeBackend{}
	svc := NewService(fb)

	_, err := svc.Dispatch(context.Background(), rc, models.BatchCommand{Action: models.ActionDelete, Origin: "/x"})
	assert.True(t, errors.Is(err, ipamerr.ErrInvalidArgument))
	assert.Empty(t, fb.calls)
}

func TestDispatchBackendFaultPropagates(t *testing.T) {
	fault := ipamerr.BackendFault("delete_hosts", ipamerr.FaultPermissionDenied, nil)
	fb := &fakeBackend{batchErr: fault}
	svc := NewService(fb)

	loc, err := svc.Dispatch(context.Background(), rc, models.BatchCommand{
		Action:  models.ActionDelete,
		HostIDs: []string{"a"},
		Origin:  "/x",
	})
	assert.Same(t, fault, err)
	assert.Empty(t, loc)
	assert.Len(t, fb.calls, 1, "no retry")
}
