package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ppiankov/leakprobe/internal/model"
)

func TestCacheKey(t *testing.T) {
	k1 := CacheKey(model.StyleTargeted, "Did Kao visit?", "Kao visited Taipei.")
	k2 := CacheKey(model.StyleTargeted, "  did KAO   visit? ", "kao visited taipei.")
	if k1 != k2 {
		t.Errorf("expected whitespace and case to be ignored: %s != %s", k1, k2)
	}

	if k1 == CacheKey(model.StyleContextual, "Did Kao visit?", "Kao visited Taipei.") {
		t.Error("expected style to change the key")
	}
	if k1 == CacheKey(model.StyleTargeted, "Did Kao visit?", "Kao left Taipei.") {
		t.Error("expected claim to change the key")
	}
	// Field boundaries matter
	if CacheKey(model.StyleTargeted, "ab", "c") == CacheKey(model.StyleTargeted, "a", "bc") {
		t.Error("expected distinct keys across field boundaries")
	}
}

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)

	if _, ok := c.Get("missing"); ok {
		t.Error("expected miss")
	}

	if err := c.Set("k", []byte("v"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	got, ok := c.Get("k")
	if !ok || string(got) != "v" {
		t.Errorf("expected v, got %q (found=%v)", got, ok)
	}
	_ = c.Delete("k")
	if _, ok := c.Get("k"); ok {
		t.Error("expected miss after delete")
	}

	_ = c.Set("a", []byte("1"), 0)
	_ = c.Set("b", []byte("2"), 0)
	_ = c.Clear()
	if _, ok := c.Get("a"); ok {
		t.Error("expected empty cache after clear")
	}
}

func TestMemoryCache_Expiry(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)
	_ = c.Set("k", []byte("v"), 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	if _, ok := c.Get("k"); ok {
		t.Error("expected expired entry to miss")
	}
}

func TestDiskCache(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "verdicts")
	c := NewDiskCache(dir, time.Hour)

	key := CacheKey(model.StyleTargeted, "q", "c")
	if err := c.Set(key, []byte(`{"verdict":"OK"}`), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, ok := c.Get(key)
	if !ok || string(got) != `{"verdict":"OK"}` {
		t.Errorf("unexpected disk value %q (found=%v)", got, ok)
	}

	if err := c.Delete(key); err != nil {
		t.Errorf("Delete failed: %v", err)
	}
	if err := c.Delete(key); err != nil {
		t.Errorf("Delete of missing entry should not fail: %v", err)
	}
	if _, ok := c.Get(key); ok {
		t.Error("expected miss after delete")
	}
}

func TestDiskCache_ExpiredAndCorrupt(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)

	_ = c.Set("old", []byte("v"), time.Nanosecond)
	time.Sleep(5 * time.Millisecond)
	if _, ok := c.Get("old"); ok {
		t.Error("expected expired entry to miss")
	}
	if _, err := os.Stat(c.path("old")); !os.IsNotExist(err) {
		t.Error("expected expired entry to be removed")
	}

	if err := os.WriteFile(c.path("bad"), []byte("not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, ok := c.Get("bad"); ok {
		t.Error("expected corrupt entry to miss")
	}
}

func TestLayeredCache_PromotesFromDisk(t *testing.T) {
	dir := t.TempDir()

	// Written by an earlier run
	if err := NewDiskCache(dir, time.Hour).Set("k", []byte("v"), 0); err != nil {
		t.Fatal(err)
	}

	layered := NewLayeredCache(time.Hour, dir, time.Hour)
	got, ok := layered.Get("k")
	if !ok || string(got) != "v" {
		t.Fatalf("expected disk hit, got %q (found=%v)", got, ok)
	}
	if _, ok := layered.layers[0].Get("k"); !ok {
		t.Error("expected value promoted to memory")
	}
}

func TestLayeredCache_WritesAndClearsEveryLayer(t *testing.T) {
	dir := t.TempDir()
	layered := NewLayeredCache(time.Hour, dir, time.Hour)

	if err := layered.Set("k", []byte("v"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if _, ok := NewDiskCache(dir, time.Hour).Get("k"); !ok {
		t.Error("expected value written through to disk")
	}

	if err := layered.Delete("k"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, ok := layered.Get("k"); ok {
		t.Error("expected miss after delete")
	}

	_ = layered.Set("a", []byte("1"), 0)
	if err := layered.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if _, ok := layered.Get("a"); ok {
		t.Error("expected miss after clear")
	}
}

func TestNew(t *testing.T) {
	if New(model.CacheConfig{Enabled: false}) != nil {
		t.Error("expected nil cache when disabled")
	}
	if _, ok := New(model.CacheConfig{Enabled: true, TTL: time.Hour}).(*MemoryCache); !ok {
		t.Error("expected memory cache without a directory")
	}
	if _, ok := New(model.CacheConfig{Enabled: true, TTL: time.Hour, Dir: t.TempDir()}).(*LayeredCache); !ok {
		t.Error("expected layered cache with a directory")
	}
}

func TestVerdictCache(t *testing.T) {
	vc := NewVerdictCache(NewMemoryCache(time.Hour, time.Minute), time.Hour)
	item := model.JudgeItem{QuestionID: "q1", QuestionText: "Did Kao visit?", ClaimText: "Kao visited Taipei.", Style: model.StyleTargeted}

	if _, ok := vc.Get(item); ok {
		t.Fatal("expected miss")
	}

	verdict := model.ValidationVerdict{QuestionID: "q1", Verdict: model.VerdictLeak, Confidence: model.ConfidenceHigh, Reason: "restates"}
	if err := vc.Put(item, verdict); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	// Same text under a different question id
	other := item
	other.QuestionID = "q9"
	got, ok := vc.Get(other)
	if !ok {
		t.Fatal("expected hit")
	}
	if got.QuestionID != "q9" || got.Verdict != model.VerdictLeak || got.Confidence != model.ConfidenceHigh {
		t.Errorf("unexpected cached verdict: %+v", got)
	}
}

func TestVerdictCache_Disabled(t *testing.T) {
	var vc *VerdictCache
	item := model.JudgeItem{QuestionID: "q1"}
	if err := vc.Put(item, model.ValidationVerdict{}); err != nil {
		t.Errorf("nil cache Put should be a no-op: %v", err)
	}
	if _, ok := vc.Get(item); ok {
		t.Error("nil cache should always miss")
	}

	if _, ok := NewVerdictCache(nil, time.Hour).Get(item); ok {
		t.Error("cache without backend should always miss")
	}
}

func TestVerdictCache_InvalidEntryIsMiss(t *testing.T) {
	backend := NewMemoryCache(time.Hour, time.Minute)
	vc := NewVerdictCache(backend, time.Hour)
	item := model.JudgeItem{QuestionID: "q1", QuestionText: "q", ClaimText: "c"}

	key := CacheKey(item.Style, item.QuestionText, item.ClaimText)
	_ = backend.Set(key, []byte(`{"verdict":"MAYBE","confidence":"high"}`), 0)
	if _, ok := vc.Get(item); ok {
		t.Error("expected invalid cached verdict to miss")
	}
	if _, ok := backend.Get(key); ok {
		t.Error("expected invalid cached verdict to be evicted")
	}

	_ = backend.Set(key, []byte("not json"), 0)
	if _, ok := vc.Get(item); ok {
		t.Error("expected undecodable entry to miss")
	}
	if _, ok := backend.Get(key); ok {
		t.Error("expected undecodable entry to be evicted")
	}
}
