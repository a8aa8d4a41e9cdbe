package cell

import (
	"errors"
	"strings"
	"testing"

	"github.com/danmuck/cellctl/internal/testutil/testlog"
)

func mustPanic(t *testing.T, fn func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	fn()
}

func TestCloneRaisesOwnerCount(t *testing.T) {
	testlog.Start(t)
	origin := New("origin", 7)
	if origin.Owners() != 1 {
		t.Fatalf("expected single owner at creation, got %d", origin.Owners())
	}

	clones := make([]*Handle[int], 0, 4)
	for i := 0; i < 4; i++ {
		clones = append(clones, origin.Clone(""))
		if got := origin.Owners(); got != int64(i)+2 {
			t.Fatalf("expected %d owners after %d clones, got %d", i+2, i+1, got)
		}
	}
	for _, clone := range clones {
		if clone.Owners() != origin.Owners() {
			t.Fatalf("clone disagrees on owner count: %d vs %d", clone.Owners(), origin.Owners())
		}
	}
}

func TestGeneratedLabelsAreUnique(t *testing.T) {
	origin := New("", 0)
	a := origin.Clone("")
	b := origin.Clone("")
	if origin.Label() == "" || a.Label() == "" || b.Label() == "" {
		t.Fatalf("expected generated labels, got %q %q %q", origin.Label(), a.Label(), b.Label())
	}
	if !strings.HasPrefix(a.Label(), "owner-") {
		t.Fatalf("unexpected generated label: %q", a.Label())
	}
	if a.Label() == b.Label() {
		t.Fatalf("expected distinct labels, both %q", a.Label())
	}
}

func TestTwoReadLeasesCoexist(t *testing.T) {
	testlog.Start(t)
	origin := New("origin", 1)
	first, err := origin.Read()
	if err != nil {
		t.Fatalf("first read: %v", err)
	}
	defer first.Release()
	second, err := origin.Clone("reader").Read()
	if err != nil {
		t.Fatalf("second read: %v", err)
	}
	defer second.Release()

	snap := origin.SnapshotLeases()
	if snap.Mode != ModeRead || snap.Readers != 2 {
		t.Fatalf("unexpected gate state: %+v", snap)
	}
}

func TestLeaseConflicts(t *testing.T) {
	testlog.Start(t)
	tests := []struct {
		name    string
		acquire func(t *testing.T, h *Handle[int]) func()
		attempt func(h *Handle[int]) error
	}{
		{
			name: "write refused while read lease out",
			acquire: func(t *testing.T, h *Handle[int]) func() {
				lease, err := h.Read()
				if err != nil {
					t.Fatalf("read: %v", err)
				}
				return lease.Release
			},
			attempt: func(h *Handle[int]) error {
				_, err := h.Write()
				return err
			},
		},
		{
			name: "write refused while write lease out",
			acquire: func(t *testing.T, h *Handle[int]) func() {
				lease, err := h.Write()
				if err != nil {
					t.Fatalf("write: %v", err)
				}
				return lease.Release
			},
			attempt: func(h *Handle[int]) error {
				_, err := h.Write()
				return err
			},
		},
		{
			name: "read refused while write lease out",
			acquire: func(t *testing.T, h *Handle[int]) func() {
				lease, err := h.Write()
				if err != nil {
					t.Fatalf("write: %v", err)
				}
				return lease.Release
			},
			attempt: func(h *Handle[int]) error {
				_, err := h.Read()
				return err
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			origin := New("holder", 0)
			release := tc.acquire(t, origin)
			defer release()

			err := tc.attempt(origin.Clone("rival"))
			if !errors.Is(err, ErrBorrowConflict) {
				t.Fatalf("expected ErrBorrowConflict, got %v", err)
			}
			if !strings.Contains(err.Error(), `"holder"`) {
				t.Fatalf("expected conflict to name the holder, got %q", err.Error())
			}
		})
	}
}

func TestReleaseRestoresGate(t *testing.T) {
	origin := New("origin", 0)

	write, err := origin.Write()
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	write.Release()

	read, err := origin.Read()
	if err != nil {
		t.Fatalf("read after write release: %v", err)
	}
	read.Release()

	if _, err := origin.Write(); err != nil {
		t.Fatalf("write after read release: %v", err)
	}
}

func TestLeaseReleaseIsIdempotent(t *testing.T) {
	origin := New("origin", 0)
	lease, err := origin.Write()
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	lease.Release()
	lease.Release()

	snap := origin.SnapshotLeases()
	if snap.Mode != ModeIdle {
		t.Fatalf("expected idle gate after double release, got %+v", snap)
	}
	next, err := origin.Write()
	if err != nil {
		t.Fatalf("write after double release: %v", err)
	}
	next.Release()
}

func TestWriteLeaseSetReplacesValue(t *testing.T) {
	origin := New("origin", 3)
	write, err := origin.Write()
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	write.Set(42)
	write.Release()

	read, err := origin.Read()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	defer read.Release()
	if got := read.Value(); got != 42 {
		t.Fatalf("expected 42 after set, got %d", got)
	}
}

func TestDestroyRunsExactlyOnceAtZero(t *testing.T) {
	testlog.Start(t)
	destroyed := 0
	final := 0
	origin := NewWithDestroy("origin", 11, func(v int) {
		destroyed++
		final = v
	})
	a := origin.Clone("a")
	b := origin.Clone("b")

	b.Release()
	if destroyed != 0 {
		t.Fatalf("destroy fired with %d owners left", origin.Owners())
	}
	origin.Release()
	if destroyed != 0 {
		t.Fatalf("destroy fired with %d owners left", a.Owners())
	}
	a.Release()
	if destroyed != 1 {
		t.Fatalf("expected exactly one destroy, got %d", destroyed)
	}
	if final != 11 {
		t.Fatalf("destroy saw value %d, want 11", final)
	}
	if a.Owners() != 0 {
		t.Fatalf("expected terminal zero owners, got %d", a.Owners())
	}
}

func TestHandleReleaseIsIdempotent(t *testing.T) {
	origin := New("origin", 0)
	keeper := origin.Clone("keeper")

	origin.Release()
	origin.Release()

	if keeper.Owners() != 1 {
		t.Fatalf("expected one live owner after double release, got %d", keeper.Owners())
	}
	if !origin.Released() {
		t.Fatalf("expected origin handle to report released")
	}
}

func TestReleasedHandlePanics(t *testing.T) {
	origin := New("origin", 0)
	keeper := origin.Clone("keeper")
	origin.Release()

	mustPanic(t, func() { origin.Clone("late") })
	mustPanic(t, func() { _, _ = origin.Read() })
	mustPanic(t, func() { _, _ = origin.Write() })

	keeper.Release()
}

func TestReleasedLeasePanicsOnAccess(t *testing.T) {
	origin := New("origin", 5)
	lease, err := origin.Write()
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	lease.Release()
	mustPanic(t, func() { _ = lease.Value() })
	mustPanic(t, func() { lease.Set(9) })
}

func TestReleaseLastOwnerWithLiveLeasePanics(t *testing.T) {
	tests := []struct {
		name    string
		acquire func(t *testing.T, h *Handle[int]) func()
	}{
		{
			name: "read lease still out",
			acquire: func(t *testing.T, h *Handle[int]) func() {
				lease, err := h.Read()
				if err != nil {
					t.Fatalf("read: %v", err)
				}
				return lease.Release
			},
		},
		{
			name: "write lease still out",
			acquire: func(t *testing.T, h *Handle[int]) func() {
				lease, err := h.Write()
				if err != nil {
					t.Fatalf("write: %v", err)
				}
				return lease.Release
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			origin := New("origin", 0)
			release := tc.acquire(t, origin)
			defer release()

			defer func() {
				r := recover()
				if r == nil {
					t.Fatalf("expected panic releasing the last owner with a live lease")
				}
				if msg, ok := r.(string); !ok || !strings.Contains(msg, "active leases") {
					t.Fatalf("unexpected panic value: %v", r)
				}
			}()
			origin.Release()
		})
	}
}

func TestSnapshotLeasesReportsHolders(t *testing.T) {
	origin := New("main", 0)
	if snap := origin.SnapshotLeases(); snap.Mode != ModeIdle || len(snap.Holders) != 0 {
		t.Fatalf("unexpected idle snapshot: %+v", snap)
	}

	reader := origin.Clone("zeta")
	lease, err := reader.Read()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	second, err := origin.Read()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	snap := origin.SnapshotLeases()
	if snap.Mode != ModeRead || snap.Readers != 2 {
		t.Fatalf("unexpected read snapshot: %+v", snap)
	}
	if len(snap.Holders) != 2 || snap.Holders[0] != "main" || snap.Holders[1] != "zeta" {
		t.Fatalf("expected sorted holders, got %+v", snap.Holders)
	}
	lease.Release()
	second.Release()

	write, err := origin.Write()
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	defer write.Release()
	snap = origin.SnapshotLeases()
	if snap.Mode != ModeWrite || len(snap.Holders) != 1 || snap.Holders[0] != "main" {
		t.Fatalf("unexpected write snapshot: %+v", snap)
	}
}
