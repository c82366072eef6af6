package store

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/arbiterhq/arbiter/domain"
)

func TestPutAndGet(t *testing.T) {
	s := New()

	if s.Get("deb_1") != nil {
		t.Fatal("unknown id should return nil")
	}

	sess := domain.NewSession("deb_1", domain.DebateConfig{Goal: "G", MaxRounds: 1, MaxWallMS: 1000}, time.Now())
	s.Put(sess)

	if got := s.Get("deb_1"); got != sess {
		t.Fatalf("expected the stored session, got %+v", got)
	}
	if s.Len() != 1 {
		t.Fatalf("expected 1 session, got %d", s.Len())
	}
}

func TestConcurrentInsertAndLookup(t *testing.T) {
	s := New()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		id := fmt.Sprintf("deb_%d", i)
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Put(domain.NewSession(id, domain.DebateConfig{Goal: "G", MaxRounds: 1, MaxWallMS: 1000}, time.Now()))
			for j := 0; j < 100; j++ {
				s.Get(id)
			}
		}()
	}
	wg.Wait()

	if s.Len() != 16 {
		t.Fatalf("expected 16 sessions, got %d", s.Len())
	}
}
