package domain

import (
	"errors"
	"testing"
)

func TestParseRoleKey(t *testing.T) {
	for _, raw := range []string{"super_admin", "admin", "moderator", "task_giver", "task_doer"} {
		role, err := ParseRoleKey(raw)
		if err != nil {
			t.Fatalf("ParseRoleKey(%q): %v", raw, err)
		}
		if string(role) != raw {
			t.Fatalf("expected %q, got %q", raw, role)
		}
	}

	if _, err := ParseRoleKey("owner"); !errors.Is(err, ErrUnknownRole) {
		t.Fatalf("expected ErrUnknownRole, got %v", err)
	}
	if _, err := ParseRoleKey(""); !errors.Is(err, ErrUnknownRole) {
		t.Fatalf("expected ErrUnknownRole for empty role, got %v", err)
	}
}

func TestEffectiveRole(t *testing.T) {
	role, err := EffectiveRole([]RoleKey{RoleTaskDoer, RoleAdmin, RoleModerator})
	if err != nil {
		t.Fatalf("EffectiveRole: %v", err)
	}
	if role != RoleAdmin {
		t.Fatalf("expected admin to outrank moderator and task_doer, got %s", role)
	}

	if _, err := EffectiveRole(nil); !errors.Is(err, ErrUnknownRole) {
		t.Fatalf("expected ErrUnknownRole for empty assignment, got %v", err)
	}
	if _, err := EffectiveRole([]RoleKey{RoleAdmin, RoleKey("owner")}); !errors.Is(err, ErrUnknownRole) {
		t.Fatalf("expected ErrUnknownRole for unknown member, got %v", err)
	}
}

func TestParseMode(t *testing.T) {
	cases := map[string]Mode{
		"":           ModeAll,
		"all":        ModeAll,
		"task_doer":  ModeTaskDoer,
		"task_giver": ModeTaskGiver,
	}
	for raw, want := range cases {
		if got := ParseMode(raw); got != want {
			t.Fatalf("ParseMode(%q) = %s, want %s", raw, got, want)
		}
	}

	// Unknown input falls back to the broadest mode.
	if got := ParseMode("employer"); got != ModeAll {
		t.Fatalf("ParseMode(employer) = %s, want %s", got, ModeAll)
	}
}

func TestDegradationPolicy(t *testing.T) {
	strict := NewDegradationPolicy(DegradationPolicyModeStrict)
	if strict.AllowsStaleServe(DegradationReasonStoreUnavailable) {
		t.Fatalf("strict policy must not serve stale data")
	}

	lenient := NewDegradationPolicy(DegradationPolicyModeLenient)
	if !lenient.AllowsStaleServe(DegradationReasonSnapshotStale) {
		t.Fatalf("lenient policy should serve stale data")
	}

	if mode := ParseDegradationPolicyMode("lenient"); mode != DegradationPolicyModeLenient {
		t.Fatalf("ParseDegradationPolicyMode(lenient) = %v", mode)
	}
	// Anything unrecognised resolves to the fail-closed default.
	if mode := ParseDegradationPolicyMode("yolo"); mode != DegradationPolicyModeStrict {
		t.Fatalf("ParseDegradationPolicyMode(yolo) = %v", mode)
	}
}
