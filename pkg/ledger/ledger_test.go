package ledger

import (
	"os"
	"path/filepath"
	"testing"
)

func openTestLedger(t *testing.T, maxAttempts int) (*Ledger, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "testblog.ledger.json")
	l, err := OpenFile(path, "testblog", maxAttempts)
	if err != nil {
		t.Fatalf("OpenFile() error = %v", err)
	}
	return l, path
}

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("payload"), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
}

func TestClaimNewContent(t *testing.T) {
	l, _ := openTestLedger(t, 3)

	if got := l.Claim("https://media.example.com/a.jpg"); got != Admit {
		t.Errorf("Claim() = %v, want Admit", got)
	}
}

func TestClaimIsLinearized(t *testing.T) {
	l, _ := openTestLedger(t, 3)
	id := "https://media.example.com/a.jpg"

	if got := l.Claim(id); got != Admit {
		t.Fatalf("first Claim() = %v, want Admit", got)
	}
	if got := l.Claim(id); got != SkipClaimed {
		t.Errorf("second Claim() = %v, want SkipClaimed", got)
	}
}

func TestClaimSkipsCompleteWithFile(t *testing.T) {
	l, _ := openTestLedger(t, 3)
	id := "https://media.example.com/a.jpg"
	target := filepath.Join(t.TempDir(), "a.jpg")
	writeFile(t, target)

	l.Claim(id)
	if err := l.Record(id, OutcomeComplete, target); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	if got := l.Claim(id); got != SkipComplete {
		t.Errorf("Claim() = %v, want SkipComplete", got)
	}
}

func TestClaimSelfHealsVanishedFile(t *testing.T) {
	l, _ := openTestLedger(t, 3)
	id := "https://media.example.com/a.jpg"
	target := filepath.Join(t.TempDir(), "a.jpg")
	writeFile(t, target)

	l.Claim(id)
	if err := l.Record(id, OutcomeComplete, target); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if err := os.Remove(target); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}

	if got := l.Claim(id); got != Admit {
		t.Errorf("Claim() after file removal = %v, want Admit", got)
	}
}

func TestClaimEnforcesAttemptCeiling(t *testing.T) {
	l, _ := openTestLedger(t, 2)
	id := "https://media.example.com/a.jpg"

	for i := 0; i < 2; i++ {
		if got := l.Claim(id); got != Admit {
			t.Fatalf("Claim() attempt %d = %v, want Admit", i+1, got)
		}
		if err := l.Record(id, OutcomeFailed, ""); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	if got := l.Claim(id); got != SkipPermanentFailure {
		t.Errorf("Claim() = %v, want SkipPermanentFailure", got)
	}
	if got := l.PermanentFailures(); len(got) != 1 || got[0] != id {
		t.Errorf("PermanentFailures() = %v, want [%s]", got, id)
	}
}

func TestCompleteNeverReverses(t *testing.T) {
	l, _ := openTestLedger(t, 3)
	id := "https://media.example.com/a.jpg"
	target := filepath.Join(t.TempDir(), "a.jpg")
	writeFile(t, target)

	l.Claim(id)
	if err := l.Record(id, OutcomeComplete, target); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if err := l.Record(id, OutcomeFailed, ""); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	if got := l.Claim(id); got != SkipComplete {
		t.Errorf("Claim() = %v, want SkipComplete", got)
	}
	if got := l.CompleteCount(); got != 1 {
		t.Errorf("CompleteCount() = %d, want 1", got)
	}
}

func TestLoadDemotesStalePending(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "testblog.ledger.json")

	l, err := OpenFile(path, "testblog", 3)
	if err != nil {
		t.Fatalf("OpenFile() error = %v", err)
	}
	id := "https://media.example.com/a.jpg"
	l.Claim(id)

	// a fresh open simulates the process dying mid-download
	reopened, err := OpenFile(path, "testblog", 3)
	if err != nil {
		t.Fatalf("OpenFile() error = %v", err)
	}
	if got := reopened.Claim(id); got != Admit {
		t.Errorf("Claim() after reopen = %v, want Admit", got)
	}
}

func TestLedgerPersistsAcrossOpens(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "testblog.ledger.json")
	target := filepath.Join(dir, "a.jpg")
	writeFile(t, target)
	id := "https://media.example.com/a.jpg"

	l, err := OpenFile(path, "testblog", 3)
	if err != nil {
		t.Fatalf("OpenFile() error = %v", err)
	}
	l.Claim(id)
	if err := l.Record(id, OutcomeComplete, target); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	reopened, err := OpenFile(path, "testblog", 3)
	if err != nil {
		t.Fatalf("OpenFile() error = %v", err)
	}
	if got := reopened.Claim(id); got != SkipComplete {
		t.Errorf("Claim() after reopen = %v, want SkipComplete", got)
	}

	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Errorf("temporary ledger file left behind")
	}
}

func TestReleaseDropsFreshClaim(t *testing.T) {
	l, _ := openTestLedger(t, 3)
	id := "https://media.example.com/a.jpg"

	l.Claim(id)
	l.Release(id)

	if got := l.Claim(id); got != Admit {
		t.Errorf("Claim() after Release = %v, want Admit", got)
	}
}
