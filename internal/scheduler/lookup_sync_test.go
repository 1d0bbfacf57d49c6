package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jboss-openshift/openshift-kieserver/internal/logger"
	"github.com/jboss-openshift/openshift-kieserver/internal/lookup"
)

type fakeSource struct {
	owners []lookup.Owner
	err    error
}

func (f *fakeSource) Owners(context.Context) ([]lookup.Owner, error) { return f.owners, f.err }

type fakeSink struct {
	mu    sync.Mutex
	saved [][]lookup.Owner
	ttl   time.Duration
	err   error
}

func (f *fakeSink) SaveOwners(_ context.Context, owners []lookup.Owner, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.saved = append(f.saved, owners)
	f.ttl = ttl
	return nil
}

func (f *fakeSink) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.saved)
}

func TestLookupSyncerSync(t *testing.T) {
	owners := []lookup.Owner{
		{Kind: lookup.KindProcessInstance, ID: "1", DeploymentID: "d1"},
		{Kind: lookup.KindJob, ID: "7", DeploymentID: "d2"},
	}

	tests := []struct {
		name      string
		source    *fakeSource
		sink      *fakeSink
		wantCount int
		wantErr   bool
		wantSaves int
	}{
		{name: "copies owners", source: &fakeSource{owners: owners}, sink: &fakeSink{}, wantCount: 2, wantSaves: 1},
		{name: "nothing to copy", source: &fakeSource{}, sink: &fakeSink{}, wantCount: 0, wantSaves: 0},
		{name: "source failure", source: &fakeSource{err: errors.New("db down")}, sink: &fakeSink{}, wantErr: true},
		{name: "sink failure", source: &fakeSource{owners: owners}, sink: &fakeSink{err: errors.New("redis down")}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewLookupSyncer(tt.source, tt.sink, logger.NewNop(), time.Minute, time.Hour)
			n, err := s.Sync(context.Background())
			if (err != nil) != tt.wantErr {
				t.Fatalf("Sync() error = %v, wantErr %v", err, tt.wantErr)
			}
			if n != tt.wantCount {
				t.Errorf("Sync() = %d, want %d", n, tt.wantCount)
			}
			if got := tt.sink.calls(); got != tt.wantSaves {
				t.Errorf("SaveOwners calls = %d, want %d", got, tt.wantSaves)
			}
			if tt.wantSaves > 0 && tt.sink.ttl != time.Hour {
				t.Errorf("ttl = %v, want 1h", tt.sink.ttl)
			}
		})
	}
}

func TestLookupSyncerStart(t *testing.T) {
	sink := &fakeSink{}
	source := &fakeSource{owners: []lookup.Owner{{Kind: lookup.KindWorkItem, ID: "3", DeploymentID: "d"}}}
	s := NewLookupSyncer(source, sink, logger.NewNop(), 10*time.Millisecond, 0)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer s.Stop()

	if sink.calls() < 1 {
		t.Fatal("Start() should sync immediately")
	}

	deadline := time.Now().Add(2 * time.Second)
	for sink.calls() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if sink.calls() < 2 {
		t.Error("periodic sync did not run")
	}
}

func TestLookupSyncerRejectsZeroInterval(t *testing.T) {
	s := NewLookupSyncer(&fakeSource{}, &fakeSink{}, logger.NewNop(), 0, 0)
	if err := s.Start(context.Background()); err == nil {
		t.Error("Start() with zero interval should fail")
	}
}
