package state

import (
	"context"
	"errors"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/scoop/internal/flavor"
	"github.com/five82/scoop/internal/memstore"
	"github.com/five82/scoop/internal/remote"
)

// fakeRemote records calls and can fail or block each operation.
type fakeRemote struct {
	mu      sync.Mutex
	items   []flavor.Item
	listErr error
	addErr  error
	delErr  error
	gate    chan struct{} // when set, calls wait on it
	entered chan string   // when set, receives the op name on entry
	holdAdd chan struct{} // when set, only Create waits on it

	lists, creates, deletes int
	created                 []flavor.Item
	deleted                 []string
}

func (f *fakeRemote) enter(op string) {
	if f.entered != nil {
		f.entered <- op
	}
	if f.gate != nil {
		<-f.gate
	}
}

func (f *fakeRemote) List(ctx context.Context) ([]flavor.Item, error) {
	f.enter("list")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return flavor.Clone(f.items), nil
}

func (f *fakeRemote) Create(ctx context.Context, item flavor.Item) error {
	f.enter("create")
	if f.holdAdd != nil {
		<-f.holdAdd
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	if f.addErr != nil {
		return f.addErr
	}
	f.created = append(f.created, item)
	f.items = append(f.items, item)
	return nil
}

func (f *fakeRemote) Delete(ctx context.Context, id string) error {
	f.enter("delete")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes++
	if f.delErr != nil {
		return f.delErr
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeRemote) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lists + f.creates + f.deletes
}

type seqIDs struct {
	mu sync.Mutex
	n  int
}

func (s *seqIDs) Next() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return "id-" + strconv.Itoa(s.n)
}

func newSync(t *testing.T, rs RemoteStore) *Synchronizer {
	t.Helper()
	s, err := New(Options{Remote: rs, IDs: &seqIDs{}, Logger: zerolog.Nop()})
	require.NoError(t, err)
	return s
}

func loaded(t *testing.T, items ...flavor.Item) (*Synchronizer, *fakeRemote) {
	t.Helper()
	fr := &fakeRemote{items: items}
	s := newSync(t, fr)
	_, err := s.Load(context.Background())
	require.NoError(t, err)
	return s, fr
}

func TestNew_RequiresRemote(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)

	s, err := New(Options{Remote: &fakeRemote{}})
	require.NoError(t, err)
	assert.NotNil(t, s.ids)
}

func TestLoad_UnscopedKeepsAllInOrder(t *testing.T) {
	s, _ := loaded(t,
		flavor.Item{ID: "2", Name: "Mint", OwnerID: "b@example.com"},
		flavor.Item{ID: "1", Name: "Vanilla"},
	)
	assert.Equal(t, []string{"2", "1"}, itemIDs(s.Items()))
	assert.True(t, s.State().Loaded)
}

func TestLoad_FailureKeepsSnapshot(t *testing.T) {
	s, fr := loaded(t, flavor.Item{ID: "1", Name: "Vanilla"})
	before := s.Items()

	fr.listErr = errors.New("connection refused")
	_, err := s.Load(context.Background())

	var fetchErr *FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, before, s.Items())

	st := s.State()
	assert.False(t, st.Busy.Loading)
	assert.Error(t, st.LastError)
	assert.Equal(t, 1, st.ConsecutiveFailures)
}

func TestLoad_FirstLoadFailureLeavesEmpty(t *testing.T) {
	fr := &fakeRemote{listErr: &remote.StatusError{Method: "GET", Path: "/collection", Code: 500}}
	s := newSync(t, fr)

	_, err := s.Load(context.Background())
	require.Error(t, err)
	assert.Empty(t, s.Items())
	assert.False(t, s.State().Loaded)
}

func TestLoad_DropsDuplicatesFromStore(t *testing.T) {
	s, _ := loaded(t,
		flavor.Item{ID: "1", Name: "Vanilla"},
		flavor.Item{ID: "2", Name: "vanilla "},
		flavor.Item{ID: "1", Name: "Mint"},
		flavor.Item{ID: "3", Name: "Mint"},
	)
	assert.Equal(t, []string{"1", "3"}, itemIDs(s.Items()))
}

func TestLoad_DropsCaseFoldDuplicates(t *testing.T) {
	s, _ := loaded(t,
		flavor.Item{ID: "1", Name: "s"},
		flavor.Item{ID: "2", Name: "\u017f"},
		flavor.Item{ID: "3", Name: "\u212a"},
		flavor.Item{ID: "4", Name: "k"},
	)
	assert.Equal(t, []string{"1", "3"}, itemIDs(s.Items()))
}

func TestLoad_BusyRejectsOverlap(t *testing.T) {
	fr := &fakeRemote{gate: make(chan struct{}), entered: make(chan string, 1)}
	s := newSync(t, fr)

	done := make(chan error, 1)
	go func() {
		_, err := s.Load(context.Background())
		done <- err
	}()
	<-fr.entered
	assert.True(t, s.State().Busy.Loading)

	_, err := s.Load(context.Background())
	assert.ErrorIs(t, err, ErrBusy)
	assert.True(t, IsBusy(err))

	close(fr.gate)
	require.NoError(t, <-done)
	assert.False(t, s.State().Busy.Loading)
}

func TestAdd_TrimsAndAppends(t *testing.T) {
	s, fr := loaded(t)

	item, err := s.Add(context.Background(), "  Mint Chip  ")
	require.NoError(t, err)
	assert.Equal(t, "Mint Chip", item.Name)
	assert.Equal(t, flavor.AnonymousOwner, item.OwnerID)
	assert.NotEmpty(t, item.ID)
	assert.Equal(t, []flavor.Item{item}, s.Items())
	assert.Equal(t, []flavor.Item{item}, fr.created)
}

func TestAdd_AppendsAtEndPreservingOrder(t *testing.T) {
	s, _ := loaded(t,
		flavor.Item{ID: "b", Name: "Banana"},
		flavor.Item{ID: "a", Name: "Apple"},
	)
	before := s.Items()

	item, err := s.Add(context.Background(), "Cherry")
	require.NoError(t, err)

	after := s.Items()
	require.Len(t, after, len(before)+1)
	assert.Equal(t, before, after[:len(before)])
	assert.Equal(t, item, after[len(after)-1])

	seenIDs := map[string]bool{}
	seenNames := map[string]bool{}
	for _, it := range after {
		assert.False(t, seenIDs[it.ID])
		assert.False(t, seenNames[flavor.Normalize(it.Name)])
		seenIDs[it.ID] = true
		seenNames[flavor.Normalize(it.Name)] = true
	}
}

func TestAdd_DuplicateRejectedWithoutNetwork(t *testing.T) {
	s, fr := loaded(t, flavor.Item{ID: "1", Name: "Vanilla"})
	before := s.Items()
	callsBefore := fr.calls()

	_, err := s.Add(context.Background(), "vanilla")

	var addErr *AddError
	require.True(t, errors.As(err, &addErr))
	assert.Equal(t, AddValidation, addErr.Kind)
	assert.ErrorIs(t, err, flavor.ErrDuplicateName)

	var verr *flavor.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "vanilla", verr.Name)

	assert.Equal(t, before, s.Items())
	assert.Equal(t, callsBefore, fr.calls())
}

func TestAdd_InvalidNamesNeverReachNetwork(t *testing.T) {
	fr := &fakeRemote{}
	s := newSync(t, fr)

	for _, name := range []string{"", "   ", "x234567890123456789012345678901234567890123456"} {
		_, err := s.Add(context.Background(), name)
		require.Error(t, err)
	}
	_, err := s.Add(context.Background(), "")
	assert.ErrorIs(t, err, flavor.ErrEmptyName)
	assert.Equal(t, 0, fr.calls())
	assert.Empty(t, s.Items())
}

func TestAdd_RemoteFailureKeepsSnapshot(t *testing.T) {
	s, fr := loaded(t, flavor.Item{ID: "1", Name: "Vanilla"})
	before := s.Items()
	fr.addErr = errors.New("timeout")

	_, err := s.Add(context.Background(), "Mint")

	var addErr *AddError
	require.True(t, errors.As(err, &addErr))
	assert.Equal(t, AddRemote, addErr.Kind)
	assert.Equal(t, before, s.Items())
	assert.False(t, s.State().Busy.Mutating)
}

func TestAdd_UsesIdentityAsOwner(t *testing.T) {
	fr := &fakeRemote{}
	s := newSync(t, fr)
	_, err := s.SignIn(context.Background(), " a@example.com ")
	require.NoError(t, err)

	item, err := s.Add(context.Background(), "Mint")
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", item.OwnerID)
}

func TestAdd_UniqueIDsAcrossAdds(t *testing.T) {
	fr := &fakeRemote{}
	s, err := New(Options{Remote: fr, Logger: zerolog.Nop()})
	require.NoError(t, err)

	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		item, err := s.Add(context.Background(), "Flavor "+strconv.Itoa(i))
		require.NoError(t, err)
		require.False(t, seen[item.ID], "duplicate id %s", item.ID)
		seen[item.ID] = true
	}
}

func TestMutating_BusyRejectsOverlap(t *testing.T) {
	fr := &fakeRemote{gate: make(chan struct{}), entered: make(chan string, 1)}
	s := newSync(t, fr)

	done := make(chan error, 1)
	go func() {
		_, err := s.Add(context.Background(), "Mint")
		done <- err
	}()
	<-fr.entered
	assert.True(t, s.State().Busy.Mutating)

	_, err := s.Add(context.Background(), "Vanilla")
	assert.ErrorIs(t, err, ErrBusy)
	assert.ErrorIs(t, s.Remove(context.Background(), "x"), ErrBusy)

	close(fr.gate)
	require.NoError(t, <-done)
	assert.False(t, s.State().Busy.Mutating)
	assert.Equal(t, []string{"Mint"}, itemNames(s.Items()))
	assert.Equal(t, 1, fr.creates)
	assert.Equal(t, 0, fr.deletes)
}

func TestMutating_IndependentOfLoading(t *testing.T) {
	fr := &fakeRemote{gate: make(chan struct{}), entered: make(chan string, 2)}
	s := newSync(t, fr)

	loadDone := make(chan error, 1)
	go func() {
		_, err := s.Load(context.Background())
		loadDone <- err
	}()
	<-fr.entered

	addDone := make(chan error, 1)
	go func() {
		_, err := s.Add(context.Background(), "Mint")
		addDone <- err
	}()
	<-fr.entered

	busy := s.State().Busy
	assert.True(t, busy.Loading)
	assert.True(t, busy.Mutating)

	close(fr.gate)
	require.NoError(t, <-loadDone)
	require.NoError(t, <-addDone)
	assert.Equal(t, Busy{}, s.State().Busy)
}

func TestRemove_DropsMatchingItem(t *testing.T) {
	s, fr := loaded(t,
		flavor.Item{ID: "1", Name: "Vanilla"},
		flavor.Item{ID: "2", Name: "Mint"},
		flavor.Item{ID: "3", Name: "Cherry"},
	)

	require.NoError(t, s.Remove(context.Background(), "2"))
	assert.Equal(t, []string{"1", "3"}, itemIDs(s.Items()))
	assert.Equal(t, []string{"2"}, fr.deleted)
}

func TestRemove_MissingIDIsNoop(t *testing.T) {
	s, _ := loaded(t, flavor.Item{ID: "1", Name: "Vanilla"})
	before := s.Items()

	require.NoError(t, s.Remove(context.Background(), "nope"))
	assert.Equal(t, before, s.Items())
}

func TestRemove_FailureKeepsSnapshot(t *testing.T) {
	s, fr := loaded(t, flavor.Item{ID: "1", Name: "Vanilla"})
	before := s.Items()
	fr.delErr = &remote.StatusError{Method: "DELETE", Path: "/collection/1", Code: 404}

	err := s.Remove(context.Background(), "1")

	var removeErr *RemoveError
	require.True(t, errors.As(err, &removeErr))
	assert.Equal(t, "1", removeErr.ID)
	assert.Equal(t, before, s.Items())
}

func TestSignIn_ScopesToIdentity(t *testing.T) {
	fr := &fakeRemote{items: []flavor.Item{
		{ID: "1", Name: "Vanilla", OwnerID: "a@example.com"},
		{ID: "2", Name: "Mint", OwnerID: "b@example.com"},
		{ID: "3", Name: "Cherry", OwnerID: "a@example.com"},
		{ID: "4", Name: "Plain"},
	}}
	s := newSync(t, fr)
	_, err := s.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, s.Items(), 4)

	items, err := s.SignIn(context.Background(), "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "3"}, itemIDs(items))
	assert.Equal(t, items, s.Items())
	assert.Equal(t, "a@example.com", s.State().Identity)
	assert.True(t, s.State().SignedIn())
}

func TestSignIn_ClearsBeforeReload(t *testing.T) {
	s, fr := loaded(t, flavor.Item{ID: "1", Name: "Vanilla", OwnerID: "a@example.com"})
	require.Len(t, s.Items(), 1)

	fr.gate = make(chan struct{})
	fr.entered = make(chan string, 1)
	done := make(chan error, 1)
	go func() {
		_, err := s.SignIn(context.Background(), "b@example.com")
		done <- err
	}()
	<-fr.entered
	assert.Empty(t, s.Items(), "snapshot must be cleared before reload")

	close(fr.gate)
	require.NoError(t, <-done)
	assert.Empty(t, s.Items())
}

func TestSignIn_RejectsBlankIdentity(t *testing.T) {
	s := newSync(t, &fakeRemote{})
	_, err := s.SignIn(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrNoIdentity)
}

func TestSignIn_DiscardsLoadForPreviousIdentity(t *testing.T) {
	fr := &fakeRemote{
		items: []flavor.Item{
			{ID: "1", Name: "Vanilla", OwnerID: "a@example.com"},
			{ID: "2", Name: "Mint", OwnerID: "b@example.com"},
		},
		gate:    make(chan struct{}),
		entered: make(chan string, 2),
	}
	s := newSync(t, fr)

	first := make(chan error, 1)
	go func() {
		_, err := s.SignIn(context.Background(), "a@example.com")
		first <- err
	}()
	<-fr.entered

	second := make(chan error, 1)
	go func() {
		_, err := s.SignIn(context.Background(), "b@example.com")
		second <- err
	}()
	<-fr.entered

	close(fr.gate)
	errs := []error{<-first, <-second}
	assert.ErrorIs(t, errs[0], ErrStale)
	assert.NoError(t, errs[1])
	assert.Equal(t, []string{"2"}, itemIDs(s.Items()))
	assert.False(t, s.State().Busy.Loading)
}

func TestSignOut_ClearsSnapshot(t *testing.T) {
	fr := &fakeRemote{items: []flavor.Item{{ID: "1", Name: "Vanilla", OwnerID: "a@example.com"}}}
	s := newSync(t, fr)
	_, err := s.SignIn(context.Background(), "a@example.com")
	require.NoError(t, err)
	require.Len(t, s.Items(), 1)

	s.SignOut()
	st := s.State()
	assert.Empty(t, st.Items)
	assert.False(t, st.SignedIn())
	assert.False(t, st.Loaded)
}

func TestAdd_CompletingAfterSignOutIsStale(t *testing.T) {
	fr := &fakeRemote{gate: make(chan struct{}), entered: make(chan string, 1)}
	s := newSync(t, fr)

	done := make(chan error, 1)
	go func() {
		_, err := s.Add(context.Background(), "Mint")
		done <- err
	}()
	<-fr.entered
	s.SignOut()
	close(fr.gate)

	err := <-done
	assert.ErrorIs(t, err, ErrStale)
	var staleAdd *StaleAddError
	require.ErrorAs(t, err, &staleAdd)
	assert.Equal(t, "Mint", staleAdd.Item.Name)
	assert.Equal(t, flavor.AnonymousOwner, staleAdd.Item.OwnerID)
	assert.Equal(t, []string{staleAdd.Item.ID}, itemIDs(fr.created))
	assert.Empty(t, s.Items())
	assert.False(t, s.State().Busy.Mutating)
}

func TestAdd_ReloadAlreadyHoldsCreatedItem(t *testing.T) {
	fr := &fakeRemote{entered: make(chan string, 1), holdAdd: make(chan struct{})}
	s := newSync(t, fr)

	done := make(chan error, 1)
	go func() {
		_, err := s.Add(context.Background(), "Mint")
		done <- err
	}()
	require.Equal(t, "create", <-fr.entered)

	// The store already shows the item before Create returns.
	fr.mu.Lock()
	fr.items = []flavor.Item{{ID: "id-1", Name: "Mint", OwnerID: flavor.AnonymousOwner}}
	fr.mu.Unlock()
	_, err := s.Load(context.Background())
	require.NoError(t, err)
	<-fr.entered
	close(fr.holdAdd)

	require.NoError(t, <-done)
	assert.Equal(t, []flavor.Item{{ID: "id-1", Name: "Mint", OwnerID: flavor.AnonymousOwner}}, s.Items())
}

func TestAdd_ReloadHoldsSameNameUnderOtherID(t *testing.T) {
	fr := &fakeRemote{entered: make(chan string, 1), holdAdd: make(chan struct{})}
	s := newSync(t, fr)

	done := make(chan error, 1)
	go func() {
		_, err := s.Add(context.Background(), "Mint")
		done <- err
	}()
	require.Equal(t, "create", <-fr.entered)

	fr.mu.Lock()
	fr.items = []flavor.Item{{ID: "other", Name: "MINT"}}
	fr.mu.Unlock()
	_, err := s.Load(context.Background())
	require.NoError(t, err)
	<-fr.entered
	close(fr.holdAdd)

	err = <-done
	var addErr *AddError
	require.ErrorAs(t, err, &addErr)
	assert.Equal(t, AddValidation, addErr.Kind)
	assert.ErrorIs(t, err, flavor.ErrDuplicateName)
	assert.Equal(t, []flavor.Item{{ID: "other", Name: "MINT"}}, s.Items())
}

func TestAdd_FailureAfterSignOutLeavesCounters(t *testing.T) {
	fr := &fakeRemote{addErr: errors.New("down"), gate: make(chan struct{}), entered: make(chan string, 1)}
	s := newSync(t, fr)

	done := make(chan error, 1)
	go func() {
		_, err := s.Add(context.Background(), "Mint")
		done <- err
	}()
	<-fr.entered
	s.SignOut()
	close(fr.gate)

	var addErr *AddError
	require.ErrorAs(t, <-done, &addErr)
	assert.Equal(t, AddRemote, addErr.Kind)
	st := s.State()
	assert.Zero(t, st.ConsecutiveFailures)
	assert.NoError(t, st.LastError)
}

func TestRemove_FailureAfterIdentityChangeLeavesCounters(t *testing.T) {
	fr := &fakeRemote{items: []flavor.Item{{ID: "1", Name: "Vanilla", OwnerID: "a@example.com"}}}
	s := newSync(t, fr)
	_, err := s.SignIn(context.Background(), "a@example.com")
	require.NoError(t, err)

	fr.mu.Lock()
	fr.delErr = errors.New("down")
	fr.mu.Unlock()
	fr.gate = make(chan struct{})
	fr.entered = make(chan string, 1)

	done := make(chan error, 1)
	go func() { done <- s.Remove(context.Background(), "1") }()
	<-fr.entered
	s.SignOut()
	close(fr.gate)

	var removeErr *RemoveError
	require.ErrorAs(t, <-done, &removeErr)
	st := s.State()
	assert.Zero(t, st.ConsecutiveFailures)
	assert.NoError(t, st.LastError)
	assert.False(t, st.IsOffline())
}

func TestState_ReturnsCopies(t *testing.T) {
	s, _ := loaded(t, flavor.Item{ID: "1", Name: "Vanilla"})

	st := s.State()
	st.Items[0].Name = "Changed"
	assert.Equal(t, "Vanilla", s.Items()[0].Name)
}

func TestState_OfflineAfterRepeatedFailures(t *testing.T) {
	fr := &fakeRemote{listErr: errors.New("down")}
	s := newSync(t, fr)

	_, _ = s.Load(context.Background())
	assert.False(t, s.State().IsOffline())
	_, _ = s.Load(context.Background())
	assert.True(t, s.State().IsOffline())

	assert.Same(t, fr.listErr, s.State().LastError)

	fr.listErr = nil
	_, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.False(t, s.State().IsOffline())
	assert.NoError(t, s.State().LastError)
}

func TestSynchronizer_AgainstMemstore(t *testing.T) {
	store := memstore.New(
		flavor.Item{ID: "1", Name: "Vanilla", OwnerID: "a@example.com"},
		flavor.Item{ID: "2", Name: "Mint", OwnerID: "b@example.com"},
	)
	h, err := memstore.Handler(store, memstore.ServerOptions{Logger: zerolog.Nop()})
	require.NoError(t, err)
	server := httptest.NewServer(h)
	t.Cleanup(server.Close)

	client, err := remote.NewClient(remote.Options{BaseURL: server.URL, Logger: zerolog.Nop()})
	require.NoError(t, err)
	s, err := New(Options{Remote: client, Logger: zerolog.Nop()})
	require.NoError(t, err)

	ctx := context.Background()
	items, err := s.SignIn(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, []string{"Vanilla"}, itemNames(items))

	_, err = s.Add(ctx, "vanilla")
	assert.ErrorIs(t, err, flavor.ErrDuplicateName)

	added, err := s.Add(ctx, "  Mint Chip  ")
	require.NoError(t, err)
	assert.Equal(t, []string{"Vanilla", "Mint Chip"}, itemNames(s.Items()))
	assert.Len(t, store.Items(), 3)

	require.NoError(t, s.Remove(ctx, "1"))
	assert.Equal(t, []string{"Mint Chip"}, itemNames(s.Items()))

	reloaded, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []flavor.Item{added}, reloaded)
}

func itemIDs(items []flavor.Item) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.ID)
	}
	return out
}

func itemNames(items []flavor.Item) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.Name)
	}
	return out
}
