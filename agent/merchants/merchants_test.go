package merchants

import "testing"

func TestInferStoreMatchesIDPrefix(t *testing.T) {
	t.Parallel()

	dir := NewDirectory(nil)
	got := dir.InferStore("ridge-wallet-titanium-slim")
	if got != "ridgewallet.com" {
		t.Fatalf("InferStore() = %q, want ridgewallet.com", got)
	}
}

func TestInferStoreMatchesDomainPrefix(t *testing.T) {
	t.Parallel()

	dir := NewDirectory(nil)
	got := dir.InferStore("gymshark-vital-seamless-leggings")
	if got != "gymshark.com" {
		t.Fatalf("InferStore() = %q, want gymshark.com", got)
	}
}

func TestInferStoreNoMatch(t *testing.T) {
	t.Parallel()

	dir := NewDirectory(nil)
	if got := dir.InferStore("blue-ceramic-mug"); got != "" {
		t.Fatalf("InferStore() = %q, want empty", got)
	}
}

func TestInferStoreEmptyHandle(t *testing.T) {
	t.Parallel()

	dir := NewDirectory(nil)
	if got := dir.InferStore("  "); got != "" {
		t.Fatalf("InferStore() = %q, want empty", got)
	}
}

func TestByDomain(t *testing.T) {
	t.Parallel()

	dir := NewDirectory(nil)
	m, ok := dir.ByDomain("deathwishcoffee.com")
	if !ok {
		t.Fatal("expected merchant")
	}
	if m.ID != "death-wish-coffee" {
		t.Fatalf("unexpected merchant: %+v", m)
	}

	if _, ok := dir.ByDomain("unknown.example"); ok {
		t.Fatal("expected no merchant")
	}
}
