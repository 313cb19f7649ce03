package hosts

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ipamerr "ipamhosts/internal/errors"
	"ipamhosts/internal/perms"
	"ipamhosts/internal/search"
	"ipamhosts/pkg/models"
)

var rc = models.RequestContext{Username: "alice", Limit: 20}

func TestPaginate(t *testing.T) {
	p := Paginate(47, 20, 2, 7)
	assert.Equal(t, 3, p.NumPages)
	assert.Equal(t, 41, p.FirstIndex)
	assert.Equal(t, 47, p.LastIndex)

	p = Paginate(0, 20, 0, 0)
	assert.Equal(t, 0, p.NumPages)
	assert.Equal(t, 1, p.FirstIndex)
	assert.Equal(t, 0, p.LastIndex)

	p = Paginate(40, 20, 0, 20)
	assert.Equal(t, 2, p.NumPages)
}

func TestSearchWithQueryNeverRetrieves(t *testing.T) {
	fb := &fakeBackend{}
	svc := NewService(fb)

	out, err := svc.Search(context.Background(), rc, search.Request{Query: "printer"}, false)
	require.NoError(t, err)
	assert.Equal(t, "/hosts/search/?namesearch=%2Aprinter%2A", out.Redirect)
	assert.Nil(t, out.Result)
	assert.Empty(t, fb.calls)
}

func TestSearchInputErrorsBeforeBackend(t *testing.T) {
	fb := &fakeBackend{}
	svc := NewService(fb)

	_, err := svc.Search(context.Background(), rc, search.Request{Query: "a b"}, false)
	assert.True(t, errors.Is(err, ipamerr.ErrConflictingFilter))

	_, err = svc.Search(context.Background(), rc, search.Request{
		Args:    map[string]string{"mac": "aa:bb:cc:dd:ee:ff"},
		OrderBy: "hostname; DROP",
	}, false)
	assert.True(t, errors.Is(err, ipamerr.ErrUnsafeOrderBy))
	assert.Empty(t, fb.calls)
}

func TestSearchRetrievesAndAnnotates(t *testing.T) {
	fb := &fakeBackend{
		total: 47,
		hosts: make([]models.HostRecord, 7),
		perms: map[string]string{},
	}
	for i := range fb.hosts {
		fb.hosts[i] = models.HostRecord{MAC: "AA-BB-CC-DD-EE-0" + string(rune('0'+i)), Hostname: "h"}
	}
	fb.perms[fb.hosts[0].MAC] = perms.Owner.String()
	fb.perms[fb.hosts[1].MAC] = perms.Modify.String()

	svc := NewService(fb)
	out, err := svc.Search(context.Background(), rc, search.Request{
		Args:    map[string]string{"username": "alice"},
		Page:    2,
		OrderBy: "mac",
	}, true)
	require.NoError(t, err)
	require.NotNil(t, out.Result)

	res := out.Result
	assert.Equal(t, []string{"list_hosts", "lookup_permissions"}, fb.calls)
	assert.Equal(t, models.Pagination{Page: 2, Limit: 20, NumHosts: 47, NumPages: 3, FirstIndex: 41, LastIndex: 47}, res.Pagination)
	assert.Equal(t, "username=alice", res.Search)
	assert.Equal(t, "mac", res.OrderBy)
	assert.Equal(t, successMessage, res.GlobalSuccess)

	opts := fb.listOpts[0]
	assert.Equal(t, perms.Owner.String(), opts.AdditionalPerms)
	assert.Equal(t, 20, opts.Limit)
	assert.Equal(t, 2, opts.Page)
	assert.True(t, opts.Count)
	assert.Equal(t, "alice", opts.Username)
	assert.Equal(t, "alice", opts.Requester)

	assert.Equal(t, models.AccessGranted, res.Hosts[0].HasPermissions)
	assert.Equal(t, models.AccessDenied, res.Hosts[1].HasPermissions)
	assert.Equal(t, models.AccessUnknown, res.Hosts[2].HasPermissions)
	assert.Equal(t, "aa:bb:cc:dd:ee:00", res.Hosts[0].CleanMAC)
	assert.Len(t, fb.permMACs[0], 7)
}

func TestRetrieveShowAllUsesUnrestrictedMask(t *testing.T) {
	fb := &fakeBackend{}
	svc := NewService(fb)

	all := rc
	all.ShowAll = true
	all.Limit = 0
	res, err := svc.Retrieve(context.Background(), all, search.FilterSet{NameSearch: "*x*"})
	require.NoError(t, err)
	assert.Equal(t, perms.Unrestricted, fb.listOpts[0].AdditionalPerms)
	assert.Equal(t, DefaultLimit, fb.listOpts[0].Limit)
	assert.True(t, res.ShowAllHosts)
}

func TestRetrieveNotUserIsEmpty(t *testing.T) {
	fb := &fakeBackend{listErr: ipamerr.NoAccess("list_hosts", "alice")}
	svc := NewService(fb)

	out, err := svc.Search(context.Background(), rc, search.Request{Args: map[string]string{"ip": "10.0.0.1"}}, false)
	require.NoError(t, err)
	assert.Empty(t, out.Result.Hosts)
	assert.Equal(t, 0, out.Result.Pagination.NumHosts)
	assert.Equal(t, []string{"list_hosts"}, fb.calls, "no permission lookup for an empty page")
}

func TestRetrieveOtherFaultsPropagate(t *testing.T) {
	fault := ipamerr.BackendFault("list_hosts", "Timeout", errors.New("boom"))
	fb := &fakeBackend{listErr: fault}
	svc := NewService(fb)

	_, err := svc.Search(context.Background(), rc, search.Request{Args: map[string]string{"ip": "10.0.0.1"}}, false)
	assert.Same(t, fault, err)
	assert.Equal(t, []string{"list_hosts"}, fb.calls, "annotation skipped when retrieval failed")
}

func TestAnnotateNormalizesFields(t *testing.T) {
	fb := &fakeBackend{perms: map[string]string{"aabbccddeeff": "ffffffff"}}
	svc := NewService(fb)

	hosts := []models.HostRecord{
		{MAC: "aabbccddeeff", Description: "café \xff"},
		{MAC: "00:11:22:33:44:55"},
	}
	require.NoError(t, svc.Annotate(context.Background(), rc, hosts))

	assert.Equal(t, "aa:bb:cc:dd:ee:ff", hosts[0].CleanMAC)
	assert.Equal(t, "café �", hosts[0].Description)
	assert.Equal(t, models.AccessGranted, hosts[0].HasPermissions)
	assert.Equal(t, "", hosts[1].Description)
	assert.Equal(t, models.AccessUnknown, hosts[1].HasPermissions)
}

func TestAnnotateRejectsMalformedMask(t *testing.T) {
	fb := &fakeBackend{perms: map[string]string{"m": "zz"}}
	svc := NewService(fb)

	err := svc.Annotate(context.Background(), rc, []models.HostRecord{{MAC: "m"}})
	assert.True(t, errors.Is(err, ipamerr.ErrBackendFault))
}

func TestAccessJSONDistinguishesSentinel(t *testing.T) {
	out, err := json.Marshal([]models.Access{models.AccessGranted, models.AccessDenied, models.AccessUnknown})
	require.NoError(t, err)
	assert.JSONEq(t, `[true,false,"00000000"]`, string(out))
}

func TestCleanText(t *testing.T) {
	assert.Equal(t, "", cleanText(""))
	assert.Equal(t, "caf\u00e9", cleanText("cafe\u0301"))
	assert.Equal(t, "bad\uFFFDbyte", cleanText("bad\xffbyte"))
}
