package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/getmockd/apictl/pkg/api"
	"github.com/getmockd/apictl/pkg/session"
)

// --- Helper ---

func newAPI(id string) *api.API {
	return &api.API{
		ID:   id,
		Name: "API " + id,
		Proxy: api.Proxy{Groups: []*api.EndpointGroup{{
			Name:      "default",
			Endpoints: []*api.Endpoint{{Name: "A", Target: "http://a", Weight: 1}},
		}}},
	}
}

// --- InMemoryAPIStore Tests ---

func TestNewInMemoryAPIStore(t *testing.T) {
	store := NewInMemoryAPIStore(newAPI("a"), nil, newAPI("b"))
	if store.Count() != 2 {
		t.Errorf("Count() = %d, want 2", store.Count())
	}
	got, err := store.Get("a")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.ETag != `"1"` {
		t.Errorf("ETag = %s, want \"1\"", got.ETag)
	}
}

func TestInMemory_GetReturnsCopy(t *testing.T) {
	store := NewInMemoryAPIStore(newAPI("a"))

	got, _ := store.Get("a")
	got.Name = "changed"
	got.Proxy.Groups[0].Endpoints[0].Weight = 9

	again, _ := store.Get("a")
	if again.Name != "API a" {
		t.Errorf("Name = %q, store was modified through a returned copy", again.Name)
	}
	if w := again.Proxy.Groups[0].Endpoints[0].Weight; w != 1 {
		t.Errorf("Weight = %d, want 1", w)
	}
}

func TestInMemory_GetNotFound(t *testing.T) {
	store := NewInMemoryAPIStore()
	if _, err := store.Get("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestInMemory_Put(t *testing.T) {
	store := NewInMemoryAPIStore(newAPI("a"))

	cur, _ := store.Get("a")
	cur.Name = "renamed"
	updated, err := store.Put(cur)
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if updated.ETag != `"2"` {
		t.Errorf("ETag = %s, want \"2\"", updated.ETag)
	}
	if updated.Name != "renamed" {
		t.Errorf("Name = %q, want renamed", updated.Name)
	}

	// a write based on the old revision is rejected
	cur.Name = "stale"
	if _, err := store.Put(cur); !errors.Is(err, ErrConflict) {
		t.Errorf("Put() with stale etag error = %v, want ErrConflict", err)
	}
	got, _ := store.Get("a")
	if got.Name != "renamed" {
		t.Errorf("Name = %q after rejected write", got.Name)
	}
}

func TestInMemory_PutWithoutETagCreates(t *testing.T) {
	store := NewInMemoryAPIStore()
	created, err := store.Put(newAPI("new"))
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if created.ETag != `"1"` {
		t.Errorf("ETag = %s, want \"1\"", created.ETag)
	}

	withETag := newAPI("other")
	withETag.ETag = `"1"`
	if _, err := store.Put(withETag); !errors.Is(err, ErrNotFound) {
		t.Errorf("Put() of unknown API with etag error = %v, want ErrNotFound", err)
	}
	if _, err := store.Put(&api.API{}); !errors.Is(err, ErrNotFound) {
		t.Errorf("Put() without id error = %v, want ErrNotFound", err)
	}
}

func TestInMemory_Touch(t *testing.T) {
	store := NewInMemoryAPIStore(newAPI("a"))
	cur, _ := store.Get("a")

	if err := store.Touch("a"); err != nil {
		t.Fatalf("Touch() error = %v", err)
	}
	if _, err := store.Put(cur); !errors.Is(err, ErrConflict) {
		t.Errorf("Put() after Touch() error = %v, want ErrConflict", err)
	}
	if err := store.Touch("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Touch() error = %v, want ErrNotFound", err)
	}
}

func TestInMemory_DeleteAndList(t *testing.T) {
	store := NewInMemoryAPIStore(newAPI("c"), newAPI("a"), newAPI("b"))

	list := store.List()
	if len(list) != 3 || list[0].ID != "a" || list[2].ID != "c" {
		t.Fatalf("List() = %v, want a,b,c", ids(list))
	}
	if !store.Delete("b") {
		t.Error("Delete(b) = false, want true")
	}
	if store.Delete("b") {
		t.Error("second Delete(b) = true, want false")
	}
	if store.Exists("b") {
		t.Error("Exists(b) after delete")
	}
	if store.Count() != 2 {
		t.Errorf("Count() = %d, want 2", store.Count())
	}
}

func ids(list []*api.API) []string {
	out := make([]string, len(list))
	for i, a := range list {
		out[i] = a.ID
	}
	return out
}

func TestInMemory_ConcurrentPutsConflict(t *testing.T) {
	store := NewInMemoryAPIStore(newAPI("a"))
	base, _ := store.Get("a")

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cp := base.Clone()
			cp.Name = fmt.Sprintf("writer-%d", i)
			if _, err := store.Put(cp); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if succeeded != 1 {
		t.Errorf("%d writers succeeded from the same revision, want 1", succeeded)
	}
}

func TestInMemory_SessionCommit(t *testing.T) {
	store := NewInMemoryAPIStore(newAPI("a"))
	cur, _ := store.Get("a")

	sess, err := session.Open(cur, session.Endpoints("default"), "B", api.DefaultEndpoint())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	sess.Target().Target = "http://b"

	updated, err := sess.Commit(context.Background(), store)
	if err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
	if updated.ETag != `"2"` {
		t.Errorf("ETag = %s, want \"2\"", updated.ETag)
	}
	stored, _ := store.Get("a")
	if n := len(stored.Proxy.Groups[0].Endpoints); n != 2 {
		t.Errorf("stored endpoints = %d, want 2", n)
	}

	if _, _, err := store.UpdateAPI(context.Background(), newAPI("unknown")); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateAPI() of unknown API error = %v, want ErrNotFound", err)
	}
}
