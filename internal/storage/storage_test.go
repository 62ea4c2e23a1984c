package storage

import (
	"testing"

	"javelin/internal/lang"
	"javelin/internal/logging"
	"javelin/internal/repostate"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(t.TempDir(), logging.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleIndex() ProjectIndex {
	return ProjectIndex{
		Symbols: []SymbolRecord{
			{
				FQN:      "com.example.Account",
				Kind:     "class",
				Location: lang.Location{Path: "app/src/Account.java", Line: 2, Column: 6},
			},
			{
				FQN:        "com.example.SavingsAccount",
				Kind:       "class",
				Location:   lang.Location{Path: "app/src/SavingsAccount.java", Line: 0, Column: 6},
				SuperTypes: []string{"Account"},
			},
		},
		ShortNames: map[string][]string{
			"Account":        {"com.example.Account"},
			"SavingsAccount": {"com.example.SavingsAccount"},
		},
		Implementors: map[string][]string{
			"Account": {"com.example.SavingsAccount"},
		},
	}
}

func TestSaveAndLoadSymbol(t *testing.T) {
	db := openTestDB(t)
	if err := db.SaveProject("app", sampleIndex()); err != nil {
		t.Fatalf("SaveProject: %v", err)
	}

	sym, ok, err := db.LoadSymbol("app", "com.example.Account")
	if err != nil || !ok {
		t.Fatalf("LoadSymbol = (%v, %v)", ok, err)
	}
	if sym.Location.Path != "app/src/Account.java" || sym.Location.Line != 2 {
		t.Errorf("location = %+v", sym.Location)
	}

	_, ok, err = db.LoadSymbol("app", "com.example.Missing")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("missing symbol should not be found")
	}
}

func TestProjectPrefixFiltering(t *testing.T) {
	db := openTestDB(t)
	// a parent project and an unrelated sibling
	if err := db.SaveProject("app/core", sampleIndex()); err != nil {
		t.Fatal(err)
	}
	other := ProjectIndex{
		Symbols: []SymbolRecord{
			{FQN: "org.other.Thing", Kind: "class", Location: lang.Location{Path: "lib/src/Thing.java"}},
		},
		ShortNames: map[string][]string{"Thing": {"org.other.Thing"}},
	}
	if err := db.SaveProject("lib", other); err != nil {
		t.Fatal(err)
	}

	// lookups scoped to the parent path see the sub-project
	if _, ok, _ := db.LoadSymbol("app", "com.example.Account"); !ok {
		t.Error("parent prefix should see sub-project symbols")
	}
	// but not the sibling
	if _, ok, _ := db.LoadSymbol("app", "org.other.Thing"); ok {
		t.Error("sibling symbols must not leak into app")
	}

	syms, err := db.LoadProjectSymbols("app")
	if err != nil {
		t.Fatal(err)
	}
	if len(syms) != 2 {
		t.Errorf("LoadProjectSymbols(app) = %d symbols, want 2", len(syms))
	}
}

func TestSaveProjectReplaces(t *testing.T) {
	db := openTestDB(t)
	if err := db.SaveProject("app", sampleIndex()); err != nil {
		t.Fatal(err)
	}

	// re-save with one symbol gone
	smaller := ProjectIndex{
		Symbols: []SymbolRecord{
			{FQN: "com.example.Account", Kind: "class", Location: lang.Location{Path: "app/src/Account.java"}},
		},
		ShortNames: map[string][]string{"Account": {"com.example.Account"}},
	}
	if err := db.SaveProject("app", smaller); err != nil {
		t.Fatal(err)
	}

	if _, ok, _ := db.LoadSymbol("app", "com.example.SavingsAccount"); ok {
		t.Error("removed symbol survived re-save")
	}
	impls, err := db.LoadImplementors("app", "Account")
	if err != nil {
		t.Fatal(err)
	}
	if len(impls) != 0 {
		t.Errorf("implementors should be cleared on re-save, got %v", impls)
	}
}

func TestShortNamesAndImplementors(t *testing.T) {
	db := openTestDB(t)
	if err := db.SaveProject("app", sampleIndex()); err != nil {
		t.Fatal(err)
	}

	fqns, err := db.LoadShortName("app", "Account")
	if err != nil {
		t.Fatal(err)
	}
	if len(fqns) != 1 || fqns[0] != "com.example.Account" {
		t.Errorf("short name Account = %v", fqns)
	}

	impls, err := db.LoadImplementors("app", "Account")
	if err != nil {
		t.Fatal(err)
	}
	if len(impls) != 1 || impls[0] != "com.example.SavingsAccount" {
		t.Errorf("implementors = %v", impls)
	}

	// another project's implementors stay out of app's partition
	lib := ProjectIndex{
		Implementors: map[string][]string{"Account": {"org.lib.LedgerAccount"}},
	}
	if err := db.SaveProject("lib", lib); err != nil {
		t.Fatal(err)
	}
	impls, err = db.LoadImplementors("app", "Account")
	if err != nil {
		t.Fatal(err)
	}
	if len(impls) != 1 {
		t.Errorf("app implementors after lib save = %v", impls)
	}

	all, err := db.LoadAllImplementors("Account")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 || all["lib"][0] != "org.lib.LedgerAccount" {
		t.Errorf("LoadAllImplementors = %v", all)
	}
}

func TestProjectMeta(t *testing.T) {
	db := openTestDB(t)
	meta := `{"dependencies":["lib"],"status":"completed"}`
	if err := db.SaveProjectMeta("app", meta); err != nil {
		t.Fatal(err)
	}

	got, ok, err := db.LoadProjectMeta("app")
	if err != nil || !ok || got != meta {
		t.Errorf("LoadProjectMeta = (%q, %v, %v)", got, ok, err)
	}

	all, err := db.AllProjectMeta()
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 || all["app"] != meta {
		t.Errorf("AllProjectMeta = %v", all)
	}

	if _, ok, _ := db.LoadProjectMeta("nope"); ok {
		t.Error("unknown project should have no metadata")
	}
}

func TestFingerprintStaleness(t *testing.T) {
	db := openTestDB(t)

	fp := repostate.Fingerprint{HeadCommit: "abc123", Branch: "main", ManifestHash: "deadbeef"}

	// no stored fingerprint means stale
	stale, err := db.IsStale(fp)
	if err != nil || !stale {
		t.Errorf("empty db IsStale = (%v, %v), want true", stale, err)
	}

	if err := db.SaveFingerprint(fp); err != nil {
		t.Fatal(err)
	}
	stale, err = db.IsStale(fp)
	if err != nil || stale {
		t.Errorf("matching fingerprint IsStale = (%v, %v), want false", stale, err)
	}

	// any component change invalidates, including branch-only changes
	for _, changed := range []repostate.Fingerprint{
		{HeadCommit: "def456", Branch: "main", ManifestHash: "deadbeef"},
		{HeadCommit: "abc123", Branch: "feature", ManifestHash: "deadbeef"},
		{HeadCommit: "abc123", Branch: "main", ManifestHash: "cafef00d"},
	} {
		stale, err = db.IsStale(changed)
		if err != nil || !stale {
			t.Errorf("IsStale(%+v) = (%v, %v), want true", changed, stale, err)
		}
	}
}

func TestClear(t *testing.T) {
	db := openTestDB(t)
	if err := db.SaveProject("app", sampleIndex()); err != nil {
		t.Fatal(err)
	}
	if err := db.SaveFingerprint(repostate.Fingerprint{HeadCommit: "abc"}); err != nil {
		t.Fatal(err)
	}

	if err := db.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, ok, _ := db.LoadSymbol("app", "com.example.Account"); ok {
		t.Error("symbols should be gone after Clear")
	}
	if _, ok, _ := db.LoadFingerprint(); ok {
		t.Error("fingerprint should be gone after Clear")
	}
}

func TestReopenKeepsData(t *testing.T) {
	dir := t.TempDir()
	db, err := Open(dir, logging.Nop())
	if err != nil {
		t.Fatal(err)
	}
	if err := db.SaveProject("app", sampleIndex()); err != nil {
		t.Fatal(err)
	}
	if err := db.Close(); err != nil {
		t.Fatal(err)
	}

	db2, err := Open(dir, logging.Nop())
	if err != nil {
		t.Fatal(err)
	}
	defer db2.Close()
	if _, ok, _ := db2.LoadSymbol("app", "com.example.Account"); !ok {
		t.Error("reopened database lost data")
	}
}

func TestBlobRoundTrip(t *testing.T) {
	rec := SymbolRecord{FQN: "a.B", Kind: "class", Location: lang.Location{Path: "x.java", Line: 5, Column: 1}}
	blob, err := encodeBlob(rec)
	if err != nil {
		t.Fatal(err)
	}
	var back SymbolRecord
	if err := decodeBlob(blob, &back); err != nil {
		t.Fatal(err)
	}
	if back.FQN != rec.FQN || back.Kind != rec.Kind || back.Location != rec.Location {
		t.Errorf("round trip = %+v", back)
	}
}
