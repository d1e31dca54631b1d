package domain

import (
	"encoding/json"
	"testing"
)

func TestNewStubRecord_ManagerShape(t *testing.T) {
	rec := NewStubRecord(RoleManager)

	if rec.Source != "stub:manager" || !rec.Stub {
		t.Fatalf("unexpected provenance: source=%q stub=%v", rec.Source, rec.Stub)
	}
	if rec.Fields["manager_id"] != "demo-mgr-000" || rec.Fields["name"] != "Manager Demo (stub)" {
		t.Fatalf("stub shape drifted: %v", rec.Fields)
	}
	if rec.Identifier() == "" {
		t.Fatal("stub record must carry an identifying field")
	}
}

func TestStubEligible(t *testing.T) {
	if !StubEligible(RoleManager) {
		t.Fatal("manager must be stub-eligible")
	}
	for _, r := range []Role{RoleAdmin, RoleCenter, RoleCrew, RoleContractor, RoleCustomer} {
		if StubEligible(r) {
			t.Fatalf("%s must not be stub-eligible", r)
		}
	}
}

func TestEnsureIdentifier_Backfill(t *testing.T) {
	rec := NewProfileRecord(RoleCenter, SourcePrimary)
	rec.Fields["code"] = "004-B"
	rec.EnsureIdentifier()
	if rec.Fields["center_id"] != "004-B" {
		t.Fatalf("expected center_id backfilled from code, got %v", rec.Fields)
	}

	rec = NewProfileRecord(RoleCrew, SourcePrimary)
	rec.Fields["crew_id"] = "CR-008"
	rec.EnsureIdentifier()
	if rec.Fields["code"] != "CR-008" {
		t.Fatalf("expected code backfilled from crew_id, got %v", rec.Fields)
	}
}

func TestProfileRecord_MarshalFlattensWithDiagnostics(t *testing.T) {
	rec := NewDemoRecord(RoleCenter, "001-D")
	rec.Stub = true

	raw, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out["center_id"] != "001-D" || out["_source"] != SourceOverride || out["_stub"] != true {
		t.Fatalf("unexpected wire shape: %v", out)
	}
}

func TestEqualData_IgnoresProvenance(t *testing.T) {
	a := NewDemoRecord(RoleCenter, "001-D")
	b := NewDemoRecord(RoleCenter, "001-D")
	b.Source = SourceNetworkFallback
	b.Stub = true

	if !a.EqualData(b) {
		t.Fatal("records equal on fields must compare equal regardless of provenance")
	}

	b.Fields["name"] = "Other"
	if a.EqualData(b) {
		t.Fatal("differing fields must not compare equal")
	}
}
