package di

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-user-cache/users"
)

func seedUsers(t testing.TB, svc users.Service, n int) []users.Response {
	t.Helper()

	out := make([]users.Response, 0, n)
	for i := 0; i < n; i++ {
		resp, err := svc.CreateUser(context.Background(), users.Request{
			Email: fmt.Sprintf("user%d@example.com", i),
			Name:  fmt.Sprintf("User %d", i),
		})
		if err != nil {
			t.Fatalf("seed user %d: %v", i, err)
		}
		out = append(out, resp)
	}
	return out
}

// TestConcurrentAccess tests concurrent reads of cached users
func TestConcurrentAccess(t *testing.T) {
	container := newTestContainer(t, testConfig())
	svc := container.Users()
	seeded := seedUsers(t, svc, 50)

	ctx := context.Background()
	const numGoroutines = 20
	const operationsPerGoroutine = 25

	var wg sync.WaitGroup
	errs := make(chan error, numGoroutines*operationsPerGoroutine)

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()

			for j := 0; j < operationsPerGoroutine; j++ {
				want := seeded[(workerID*operationsPerGoroutine+j)%len(seeded)]

				got, err := svc.GetUserByID(ctx, want.ID)
				if err != nil {
					errs <- fmt.Errorf("worker %d operation %d GetUserByID failed: %v", workerID, j, err)
					continue
				}
				if got.Email != want.Email {
					errs <- fmt.Errorf("worker %d: expected %s, got %s", workerID, want.Email, got.Email)
				}

				if j%5 == 0 {
					if _, err := svc.GetAllUsers(ctx); err != nil {
						errs <- fmt.Errorf("worker %d operation %d GetAllUsers failed: %v", workerID, j, err)
					}
				}
			}
		}(i)
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
}

// TestConcurrentReadWrite checks that once writers finish, every cached user
// matches the store.
func TestConcurrentReadWrite(t *testing.T) {
	container := newTestContainer(t, testConfig())
	svc := container.Users()
	seeded := seedUsers(t, svc, 10)

	ctx := context.Background()
	var wg sync.WaitGroup

	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(writer int) {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				u := seeded[(writer+j)%len(seeded)]
				age := writer*100 + j
				_, err := svc.UpdateUser(ctx, u.ID, users.Request{Email: u.Email, Name: u.Name, Age: &age})
				if err != nil {
					t.Errorf("writer %d update failed: %v", writer, err)
				}
			}
		}(w)
	}
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				if _, err := svc.GetUserByID(ctx, seeded[j%len(seeded)].ID); err != nil {
					t.Errorf("reader failed: %v", err)
				}
			}
		}()
	}
	wg.Wait()

	// a final sequential write settles any entry left behind by racing writers
	for _, u := range seeded {
		age := 1
		if _, err := svc.UpdateUser(ctx, u.ID, users.Request{Email: u.Email, Name: u.Name, Age: &age}); err != nil {
			t.Fatalf("final update failed: %v", err)
		}
	}

	base := container.BaseUsers()
	for _, u := range seeded {
		cached, err := svc.GetUserByID(ctx, u.ID)
		if err != nil {
			t.Fatalf("GetUserByID(%d) failed: %v", u.ID, err)
		}
		stored, err := base.GetUserByID(ctx, u.ID)
		if err != nil {
			t.Fatalf("base GetUserByID(%d) failed: %v", u.ID, err)
		}
		if *cached.Age != *stored.Age || !cached.UpdatedAt.Equal(stored.UpdatedAt) {
			t.Errorf("user %d: cached %+v differs from stored %+v", u.ID, cached, stored)
		}
	}
}

// TestTTLExpiryIntegration checks that an expired entry is reloaded from the store.
func TestTTLExpiryIntegration(t *testing.T) {
	cfg := testConfig()
	cfg.CacheTTL = 50 * time.Millisecond
	container := newTestContainer(t, cfg)
	ctx := context.Background()

	created := seedUsers(t, container.Users(), 1)[0]
	if _, err := container.Users().GetUserByID(ctx, created.ID); err != nil {
		t.Fatalf("GetUserByID() failed: %v", err)
	}

	typed := NewCache[users.Response](container)
	if _, ok, _ := typed.Get(ctx, created.ID); !ok {
		t.Fatal("expected entry after read")
	}

	time.Sleep(100 * time.Millisecond)

	if _, ok, _ := typed.Get(ctx, created.ID); ok {
		t.Error("expected entry to expire")
	}
	got, err := container.Users().GetUserByID(ctx, created.ID)
	if err != nil || got.Email != created.Email {
		t.Errorf("expected reload from store, got %+v err=%v", got, err)
	}
}

func BenchmarkCachedVsBaseService(b *testing.B) {
	container := newTestContainer(b, testConfig())
	seeded := seedUsers(b, container.Users(), 100)
	ctx := context.Background()

	b.Run("base", func(b *testing.B) {
		svc := container.BaseUsers()
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			if _, err := svc.GetUserByID(ctx, seeded[i%len(seeded)].ID); err != nil {
				b.Fatal(err)
			}
		}
	})

	b.Run("cached", func(b *testing.B) {
		svc := container.Users()
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			if _, err := svc.GetUserByID(ctx, seeded[i%len(seeded)].ID); err != nil {
				b.Fatal(err)
			}
		}
	})
}

func BenchmarkKeySerialization(b *testing.B) {
	container := newTestContainer(b, testConfig())
	keys := container.KeySerializer()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = keys.SerializeKey("users", int64(i))
	}
}

func BenchmarkConcurrentCacheAccess(b *testing.B) {
	container := newTestContainer(b, testConfig())
	seeded := seedUsers(b, container.Users(), 100)
	svc := container.Users()
	ctx := context.Background()

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			if _, err := svc.GetUserByID(ctx, seeded[i%len(seeded)].ID); err != nil {
				b.Error(err)
				return
			}
			i++
		}
	})
}
