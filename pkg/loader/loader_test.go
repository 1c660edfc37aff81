package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/flintmc/flint/pkg/spec"
)

func writeSpec(t *testing.T, path, name string, tags []string) {
	t.Helper()
	body := `{
		"name": "` + name + `",`
	if len(tags) > 0 {
		body += `"tags": ["` + tags[0] + `"],`
	}
	body += `
		"setup": {"cleanup": {"region": [[0,0,0],[4,4,4]]}},
		"timeline": [
			{"at": 0, "do": "place", "pos": [0,0,0], "block": {"id": "stone"}},
			{"at": 1, "do": "assert", "checks": [{"pos": [0,0,0], "is": {"id": "stone"}}]}
		]
	}`
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestCollectTestFiles(t *testing.T) {
	dir := t.TempDir()
	writeSpec(t, filepath.Join(dir, "b.json"), "b", nil)
	writeSpec(t, filepath.Join(dir, "a.JSON"), "a", nil)
	writeSpec(t, filepath.Join(dir, "nested", "c.json"), "c", nil)
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	flat, err := CollectTestFiles(dir, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(flat) != 2 {
		t.Fatalf("flat = %v, want the two top-level json files", flat)
	}
	if filepath.Base(flat[0]) != "a.JSON" {
		t.Errorf("files should be sorted, got %v", flat)
	}

	deep, err := CollectTestFiles(dir, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(deep) != 3 {
		t.Fatalf("recursive = %v, want 3 files", deep)
	}

	single, err := CollectTestFiles(filepath.Join(dir, "b.json"), false)
	if err != nil {
		t.Fatal(err)
	}
	if len(single) != 1 {
		t.Errorf("single file = %v", single)
	}
}

func TestLoadSpecsValidates(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.json")
	writeSpec(t, good, "good", nil)

	specs, err := LoadSpecs([]string{good})
	if err != nil {
		t.Fatal(err)
	}
	if len(specs) != 1 || specs[0].Name != "good" {
		t.Errorf("specs = %+v", specs)
	}

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte(`{"name": "bad", "timeline": []}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadSpecs([]string{good, bad}); err == nil {
		t.Error("expected error for invalid spec")
	}
}

func TestFilterSpecs(t *testing.T) {
	specs := []*spec.TestSpec{
		{Name: "redstone/lever", Tags: []string{"redstone"}},
		{Name: "farming/wheat", Tags: []string{"farming"}},
		{Name: "redstone/button"},
	}

	kept, err := FilterSpecs(specs, `"redstone" in tags`)
	if err != nil {
		t.Fatal(err)
	}
	if len(kept) != 1 || kept[0].Name != "redstone/lever" {
		t.Errorf("kept = %+v", kept)
	}

	kept, err = FilterSpecs(specs, `name startsWith "redstone/"`)
	if err != nil {
		t.Fatal(err)
	}
	if len(kept) != 2 {
		t.Errorf("kept = %d, want 2", len(kept))
	}

	all, err := FilterSpecs(specs, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Errorf("empty filter kept %d", len(all))
	}

	if _, err := FilterSpecs(specs, `name +`); err == nil {
		t.Error("expected compile error")
	}
	if _, err := FilterSpecs(specs, `name`); err == nil {
		t.Error("expected error for non-boolean expression")
	}
}
