package recorder

import (
	"path/filepath"
	"testing"
)

func TestRecorder_BatchedInserts(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "drive_log.db")
	r, err := Open(dbPath, "HYUNDAI_SONATA")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer r.Close()

	if r.SessionID() == "" {
		t.Fatal("expected a session id")
	}

	for i := 0; i < 150; i++ {
		s := Sample{
			TMono:           float64(i) * 0.01,
			VEgoMPS:         22.0,
			DesiredLatAccel: 0.5,
			TorqueCmd:       0.3,
			Saturated:       i%2 == 0,
		}
		if err := r.Record(s); err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
	}

	// One full batch auto-flushed, 50 still buffered.
	n, err := r.SampleCount()
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 100 {
		t.Errorf("expected 100 persisted after auto-flush, got %d", n)
	}

	if err := r.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	n, err = r.SampleCount()
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 150 {
		t.Errorf("expected 150 persisted after flush, got %d", n)
	}

	// Flushing an empty buffer is a no-op.
	if err := r.Flush(); err != nil {
		t.Fatalf("empty flush: %v", err)
	}
}

func TestRecorder_SessionsAreDistinct(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "drive_log.db")

	r1, err := Open(dbPath, "HYUNDAI_SONATA")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := r1.Record(Sample{TMono: 0.01}); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := r1.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	r2, err := Open(dbPath, "HYUNDAI_SONATA")
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer r2.Close()

	if r2.SessionID() == r1.SessionID() {
		t.Error("expected a fresh session id per run")
	}

	// The new session sees only its own samples.
	n, err := r2.SampleCount()
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Errorf("expected 0 samples in the new session, got %d", n)
	}
}
