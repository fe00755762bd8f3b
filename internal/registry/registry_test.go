package registry_test

import (
	"errors"
	"testing"

	"nodues/internal/clearance"
	"nodues/internal/config"
	"nodues/internal/registry"
)

func chain() []config.Department {
	return []config.Department{
		{ID: "library", Role: "librarian", Position: 1, Label: "University Library"},
		{ID: "hostel", Role: "warden", Position: 2},
		{ID: "accounts", Role: "accounts_officer", Position: 3, Label: "Finance & Accounts"},
	}
}

func TestNewRejectsBadConfiguration(t *testing.T) {
	cases := []struct {
		name        string
		departments []config.Department
	}{
		{"empty", nil},
		{"missing role", []config.Department{{ID: "library", Position: 1}}},
		{"duplicate position", []config.Department{
			{ID: "library", Role: "librarian", Position: 1},
			{ID: "hostel", Role: "warden", Position: 1},
		}},
		{"gap in sequence", []config.Department{
			{ID: "library", Role: "librarian", Position: 1},
			{ID: "hostel", Role: "warden", Position: 3},
		}},
		{"duplicate department", []config.Department{
			{ID: "library", Role: "librarian", Position: 1},
			{ID: "library", Role: "warden", Position: 2},
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := registry.New(tc.departments)
			if !errors.Is(err, clearance.ErrConfiguration) {
				t.Fatalf("expected configuration error, got %v", err)
			}
		})
	}
}

func TestStagesForFullChain(t *testing.T) {
	reg, err := registry.New(chain())
	if err != nil {
		t.Fatalf("registry.New: %v", err)
	}
	seeds, err := reg.StagesFor()
	if err != nil {
		t.Fatalf("StagesFor: %v", err)
	}
	want := []clearance.StageSeed{
		{Department: "library", Position: 1},
		{Department: "hostel", Position: 2},
		{Department: "accounts", Position: 3},
	}
	if len(seeds) != len(want) {
		t.Fatalf("expected %d seeds, got %d", len(want), len(seeds))
	}
	for i := range want {
		if seeds[i] != want[i] {
			t.Fatalf("seed %d = %#v, want %#v", i, seeds[i], want[i])
		}
	}
}

func TestStagesForSubsetRedensifiesPositions(t *testing.T) {
	reg, err := registry.New(chain())
	if err != nil {
		t.Fatalf("registry.New: %v", err)
	}
	seeds, err := reg.StagesFor("accounts", "library")
	if err != nil {
		t.Fatalf("StagesFor: %v", err)
	}
	if len(seeds) != 2 {
		t.Fatalf("expected 2 seeds, got %d", len(seeds))
	}
	if seeds[0].Department != "library" || seeds[0].Position != 1 {
		t.Fatalf("unexpected first seed %#v", seeds[0])
	}
	if seeds[1].Department != "accounts" || seeds[1].Position != 2 {
		t.Fatalf("unexpected second seed %#v", seeds[1])
	}
}

func TestStagesForUnknownDepartment(t *testing.T) {
	reg, err := registry.New(chain())
	if err != nil {
		t.Fatalf("registry.New: %v", err)
	}
	if _, err := reg.StagesFor("cafeteria"); !errors.Is(err, clearance.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestAuthorizedRole(t *testing.T) {
	reg, err := registry.New(chain())
	if err != nil {
		t.Fatalf("registry.New: %v", err)
	}
	role, err := reg.AuthorizedRole("hostel")
	if err != nil {
		t.Fatalf("AuthorizedRole: %v", err)
	}
	if role != "warden" {
		t.Fatalf("expected warden, got %s", role)
	}
	if _, err := reg.AuthorizedRole("cafeteria"); !errors.Is(err, clearance.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestLabelFallsBackToTitleCase(t *testing.T) {
	reg, err := registry.New(chain())
	if err != nil {
		t.Fatalf("registry.New: %v", err)
	}
	if got := reg.Label("library"); got != "University Library" {
		t.Fatalf("expected configured label, got %q", got)
	}
	if got := reg.Label("hostel"); got != "Hostel" {
		t.Fatalf("expected derived label, got %q", got)
	}
}
