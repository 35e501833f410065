package secret

import (
	"testing"
)

func vaultFactory(map[string]any) (Provider, error) {
	return &fakeVault{keys: map[string]string{"anthropic/api-key": "sk-ant-test-4f8a"}}, nil
}

func TestRegistry_RegisterAndCreate(t *testing.T) {
	reg := NewRegistry()

	if err := reg.Register("vault", vaultFactory); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	p, err := reg.Create("vault", map[string]any{"address": "https://vault.internal:8200"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if p == nil || p.Name() != "vault" {
		t.Fatalf("unexpected provider: %#v", p)
	}
}

func TestRegistry_RegisterDuplicate(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register("vault", vaultFactory); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if err := reg.Register("vault", vaultFactory); err == nil {
		t.Fatal("a second factory under the same scheme must be rejected")
	}
}

func TestRegistry_RegisterInvalid(t *testing.T) {
	reg := NewRegistry()

	if err := reg.Register("  ", vaultFactory); err == nil {
		t.Error("blank name should be rejected")
	}
	if err := reg.Register("vault", nil); err == nil {
		t.Error("nil factory should be rejected")
	}
}

func TestRegistry_CreateUnknown(t *testing.T) {
	reg := NewRegistry()
	if _, err := reg.Create("gcloud", nil); err == nil {
		t.Fatal("expected an unregistered-provider error")
	}
}

func TestRegistry_ListSorted(t *testing.T) {
	reg := NewRegistry()
	for _, name := range []string{"vault", "env", "file"} {
		if err := reg.Register(name, vaultFactory); err != nil {
			t.Fatalf("Register(%q) error = %v", name, err)
		}
	}

	names := reg.List()
	want := []string{"env", "file", "vault"}
	if len(names) != len(want) {
		t.Fatalf("List() = %v, want %v", names, want)
	}
	for i, name := range want {
		if names[i] != name {
			t.Errorf("List()[%d] = %q, want %q", i, names[i], name)
		}
	}
}

func TestDefaultRegistry_BuiltinProviders(t *testing.T) {
	registered := make(map[string]bool)
	for _, name := range DefaultRegistry.List() {
		registered[name] = true
	}

	for _, name := range []string{"env", "file"} {
		if !registered[name] {
			t.Errorf("DefaultRegistry is missing the built-in %q provider", name)
		}
	}

	p, err := DefaultRegistry.Create("file", map[string]any{"base_dir": "/run/secrets"})
	if err != nil {
		t.Fatalf("Create(file) error = %v", err)
	}
	if p.Name() != "file" {
		t.Errorf("Name() = %q, want file", p.Name())
	}
}
