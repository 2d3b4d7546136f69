package storage

import (
	"context"
	"testing"
)

func TestSettingsGetSet(t *testing.T) {
	ctx := context.Background()
	store := NewSettingsStorage(newTestDB(t))

	if got := store.Get(ctx, SettingFromEmail, "fallback@example.com"); got != "fallback@example.com" {
		t.Errorf("unset key = %q, want fallback", got)
	}

	if err := store.Set(ctx, SettingFromEmail, "no-reply@example.com"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got := store.Get(ctx, SettingFromEmail, "fallback@example.com"); got != "no-reply@example.com" {
		t.Errorf("Get = %q", got)
	}

	// Set is an upsert
	if err := store.Set(ctx, SettingFromEmail, "updated@example.com"); err != nil {
		t.Fatalf("Set (update): %v", err)
	}
	if got := store.Get(ctx, SettingFromEmail, ""); got != "updated@example.com" {
		t.Errorf("Get after update = %q", got)
	}
}

func TestSettingsTypedAccessors(t *testing.T) {
	ctx := context.Background()
	store := NewSettingsStorage(newTestDB(t))

	if got := store.GetInt(ctx, SettingInboundPort, 2525); got != 2525 {
		t.Errorf("GetInt(unset) = %d", got)
	}
	store.Set(ctx, SettingInboundPort, "25")
	if got := store.GetInt(ctx, SettingInboundPort, 2525); got != 25 {
		t.Errorf("GetInt = %d", got)
	}
	store.Set(ctx, SettingInboundPort, "not-a-number")
	if got := store.GetInt(ctx, SettingInboundPort, 2525); got != 2525 {
		t.Errorf("GetInt(bad data) = %d, want fallback", got)
	}

	if got := store.GetBool(ctx, SettingCatchAll, false); got {
		t.Error("GetBool(unset) = true")
	}
	store.Set(ctx, SettingCatchAll, "true")
	if got := store.GetBool(ctx, SettingCatchAll, false); !got {
		t.Error("GetBool = false")
	}
	store.Set(ctx, SettingCatchAll, "maybe")
	if got := store.GetBool(ctx, SettingCatchAll, true); !got {
		t.Error("GetBool(bad data) did not fall back")
	}
}

func TestSettingsSeedDefault(t *testing.T) {
	ctx := context.Background()
	store := NewSettingsStorage(newTestDB(t))

	if err := store.SeedDefault(ctx, SettingFromName, "Example Site"); err != nil {
		t.Fatalf("SeedDefault: %v", err)
	}
	if got := store.Get(ctx, SettingFromName, ""); got != "Example Site" {
		t.Errorf("seeded value = %q", got)
	}

	// A later seed never overwrites an existing value
	if err := store.SeedDefault(ctx, SettingFromName, "Other Name"); err != nil {
		t.Fatalf("second SeedDefault: %v", err)
	}
	if got := store.Get(ctx, SettingFromName, ""); got != "Example Site" {
		t.Errorf("seed overwrote existing value: %q", got)
	}
}
