package store

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wanderlust-dev/wanderlust/internal/cli/client"
)

type recordingNotifier struct {
	mu        sync.Mutex
	successes []string
	errors    []string
}

func (r *recordingNotifier) Success(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.successes = append(r.successes, msg)
}

func (r *recordingNotifier) Error(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, msg)
}

// fakeResourceAPI answers list/create/update/delete for one resource path.
// Setting failStatus makes every mutation fail.
type fakeResourceAPI struct {
	mu         sync.Mutex
	failStatus int
	failMsg    string
}

func (f *fakeResourceAPI) fail(status int, msg string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failStatus, f.failMsg = status, msg
}

func (f *fakeResourceAPI) reply(w http.ResponseWriter, status int, message string, data interface{}, extra map[string]interface{}) {
	body := map[string]interface{}{"success": status < 300, "message": message, "data": data}
	for k, v := range extra {
		body[k] = v
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func (f *fakeResourceAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	status, msg := f.failStatus, f.failMsg
	f.mu.Unlock()

	if r.Method != http.MethodGet && status != 0 {
		f.reply(w, status, msg, nil, nil)
		return
	}

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	switch {
	case r.Method == http.MethodGet:
		f.reply(w, http.StatusOK, "", []map[string]interface{}{
			{"id": "a", "title": "A", "name": "A", "status": "unread"},
			{"id": "b", "title": "B", "name": "B", "status": "unread"},
		}, map[string]interface{}{"pagination": map[string]interface{}{"page": 1, "limit": 12, "total": 2, "pages": 1}})
	case r.Method == http.MethodPost:
		f.reply(w, http.StatusCreated, "created", map[string]interface{}{"id": "c", "title": "C", "name": "C", "status": "unread"}, nil)
	case r.Method == http.MethodPut || r.Method == http.MethodPatch:
		var body map[string]interface{}
		json.NewDecoder(r.Body).Decode(&body)
		item := map[string]interface{}{"id": parts[2], "title": body["title"], "name": body["name"], "status": body["status"]}
		f.reply(w, http.StatusOK, "updated", item, nil)
	case r.Method == http.MethodDelete:
		f.reply(w, http.StatusOK, "deleted", map[string]interface{}{"id": parts[2]}, nil)
	}
}

func newFakeClient(t *testing.T) (*client.Client, *fakeResourceAPI) {
	t.Helper()
	api := &fakeResourceAPI{}
	server := httptest.NewServer(api)
	t.Cleanup(server.Close)
	return client.New(server.URL, client.StaticToken("admin")), api
}

func ids[T any](items []T, key func(T) string) []string {
	out := []string{}
	for _, item := range items {
		out = append(out, key(item))
	}
	return out
}

func galleryID(g client.GalleryItem) string { return g.ID }

func TestGallery_MutationsFollowServer(t *testing.T) {
	api, _ := newFakeClient(t)
	n := &recordingNotifier{}
	g := NewGallery(api, n)
	ctx := context.Background()

	require.True(t, g.Fetch(ctx, client.ListQuery{}).Success)
	state := g.State()
	assert.Equal(t, []string{"a", "b"}, ids(state.Items, galleryID))
	assert.Equal(t, int64(2), state.Pagination.Total)

	res := g.Upload(ctx, client.GalleryUpload{Title: "C", FileName: "c.jpg", Image: strings.NewReader("img")})
	require.True(t, res.Success)
	assert.Equal(t, []string{"a", "b", "c"}, ids(g.State().Items, galleryID))
	assert.Equal(t, int64(3), g.State().Pagination.Total)

	title := "B2"
	require.True(t, g.Update(ctx, "b", client.GalleryUpdate{Title: &title}).Success)
	items := g.State().Items
	assert.Equal(t, []string{"a", "b", "c"}, ids(items, galleryID))
	assert.Equal(t, "B2", items[1].Title)

	require.True(t, g.Delete(ctx, "a").Success)
	assert.Equal(t, []string{"b", "c"}, ids(g.State().Items, galleryID))
	assert.Equal(t, int64(2), g.State().Pagination.Total)

	assert.Equal(t, []string{"Image uploaded successfully", "Gallery item updated", "Gallery item deleted"}, n.successes)
	assert.Empty(t, n.errors)
}

func TestMutationFailureLeavesListUnchanged(t *testing.T) {
	api, fake := newFakeClient(t)
	ctx := context.Background()

	t.Run("gallery", func(t *testing.T) {
		n := &recordingNotifier{}
		g := NewGallery(api, n)
		require.True(t, g.Fetch(ctx, client.ListQuery{}).Success)
		before := g.State().Items

		fake.fail(http.StatusForbidden, "Admin access required")
		defer fake.fail(0, "")

		title := "x"
		results := []Result{
			g.Upload(ctx, client.GalleryUpload{Title: "C"}),
			g.Update(ctx, "a", client.GalleryUpdate{Title: &title}),
			g.Delete(ctx, "a"),
		}
		for _, res := range results {
			assert.Equal(t, Result{Error: "Admin access required"}, res)
		}
		after := g.State()
		assert.Equal(t, before, after.Items)
		assert.Equal(t, "Admin access required", after.Error)
		assert.False(t, after.Loading)
		assert.Len(t, n.errors, 3)
	})

	t.Run("messages", func(t *testing.T) {
		m := NewMessages(api, nil)
		require.True(t, m.Fetch(ctx, client.ListQuery{}).Success)
		before := m.State().Items

		fake.fail(http.StatusInternalServerError, "")
		defer fake.fail(0, "")

		res := m.UpdateStatus(ctx, "a", "read")
		assert.False(t, res.Success)
		assert.Equal(t, client.FallbackMessage, res.Error)
		assert.False(t, m.Delete(ctx, "b").Success)
		assert.Equal(t, before, m.State().Items)
	})

	t.Run("tour types", func(t *testing.T) {
		tt := NewTourTypes(api, nil)
		require.True(t, tt.Fetch(ctx, client.ListQuery{}).Success)
		before := tt.State().Items

		fake.fail(http.StatusConflict, "A tour type with this name already exists")
		defer fake.fail(0, "")

		name := "A"
		res := tt.Create(ctx, client.TourTypeInput{Name: &name})
		assert.Equal(t, "A tour type with this name already exists", res.Error)
		assert.Equal(t, before, tt.State().Items)
	})
}

func TestMessagesAndTourTypes_Success(t *testing.T) {
	api, _ := newFakeClient(t)
	ctx := context.Background()

	m := NewMessages(api, nil)
	require.True(t, m.Fetch(ctx, client.ListQuery{}).Success)
	require.True(t, m.UpdateStatus(ctx, "b", "read").Success)
	assert.Equal(t, "read", m.State().Items[1].Status)
	require.True(t, m.Send(ctx, client.MessageInput{Name: "Jane", Email: "jane@x.com", Message: "Hi"}).Success)
	assert.Len(t, m.State().Items, 3)
	require.True(t, m.Delete(ctx, "b").Success)
	assert.Len(t, m.State().Items, 2)

	tt := NewTourTypes(api, nil)
	require.True(t, tt.Fetch(ctx, client.ListQuery{}).Success)
	name := "Adventure"
	require.True(t, tt.Create(ctx, client.TourTypeInput{Name: &name}).Success)
	require.True(t, tt.Update(ctx, "a", client.TourTypeInput{Name: &name}).Success)
	require.True(t, tt.Delete(ctx, "c").Success)
	items := tt.State().Items
	require.Len(t, items, 2)
	assert.Equal(t, "Adventure", items[0].Name)
}

func TestPhases(t *testing.T) {
	api, fake := newFakeClient(t)
	g := NewGallery(api, nil)

	var phases []Phase
	g.Subscribe(func(s State[client.GalleryItem]) { phases = append(phases, s.Phase) })

	g.Fetch(context.Background(), client.ListQuery{})
	assert.Equal(t, []Phase{PhaseLoading, PhaseSuccess, PhaseIdle}, phases)

	phases = nil
	fake.fail(http.StatusBadRequest, "")
	g.Delete(context.Background(), "a")
	assert.Equal(t, []Phase{PhaseLoading, PhaseError, PhaseIdle}, phases)
}

func TestCancelledCallIsDiscarded(t *testing.T) {
	c := NewCollection(galleryID, nil)
	require.True(t, c.Fetch(context.Background(), func(context.Context) ([]client.GalleryItem, *client.Pagination, error) {
		return []client.GalleryItem{{ID: "a"}}, nil, nil
	}).Success)

	ctx, cancel := context.WithCancel(context.Background())
	res := c.Create(ctx, func(context.Context) (client.GalleryItem, error) {
		cancel() // the caller goes away while the request is in flight
		return client.GalleryItem{ID: "late"}, nil
	}, "")

	assert.False(t, res.Success)
	state := c.State()
	assert.Equal(t, []string{"a"}, ids(state.Items, galleryID))
	assert.False(t, state.Loading)
	assert.Equal(t, PhaseIdle, state.Phase)
}

func TestSiteSettings(t *testing.T) {
	var fail atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if fail.Load() {
			w.WriteHeader(http.StatusBadRequest)
			body := map[string]interface{}{"success": false, "message": "Contact email must be a valid email address"}
			json.NewEncoder(w).Encode(body)
			return
		}
		name := "Wanderlust Travels"
		if r.Method == http.MethodPut {
			name = "Wanderlust"
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"success": true, "data": map[string]interface{}{"site_name": name}})
	}))
	defer server.Close()

	n := &recordingNotifier{}
	s := NewSiteSettings(client.New(server.URL, nil), n)
	ctx := context.Background()

	require.True(t, s.Fetch(ctx).Success)
	assert.Equal(t, "Wanderlust Travels", s.State().Settings.SiteName)

	name := "Wanderlust"
	require.True(t, s.Update(ctx, client.SiteSettingsUpdate{SiteName: &name}).Success)
	assert.Equal(t, "Wanderlust", s.State().Settings.SiteName)

	fail.Store(true)
	email := "bad"
	res := s.Update(ctx, client.SiteSettingsUpdate{ContactEmail: &email})
	assert.Equal(t, "Contact email must be a valid email address", res.Error)
	assert.Equal(t, "Wanderlust", s.State().Settings.SiteName, "previous settings are kept")
	assert.Equal(t, []string{"Contact email must be a valid email address"}, n.errors)
}
