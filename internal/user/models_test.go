package user

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/teampulse/pulse/internal/auth"
)

func TestRoleForNewMember(t *testing.T) {
	if got := RoleForNewMember(0); got != auth.RoleAdmin {
		t.Errorf("RoleForNewMember(0) = %q, want admin", got)
	}
	for _, n := range []int{1, 2, 50} {
		if got := RoleForNewMember(n); got != auth.RoleUser {
			t.Errorf("RoleForNewMember(%d) = %q, want user", n, got)
		}
	}
}

func TestCompanyRefUnmarshal(t *testing.T) {
	id := uuid.New()

	tests := []struct {
		name    string
		body    string
		want    CompanyRef
		wantErr bool
	}{
		{"name string", `{"company":" co1 "}`, CompanyRef{Name: "co1"}, false},
		{"id string", `{"company":"` + id.String() + `"}`, CompanyRef{ID: id}, false},
		{"object id", `{"company":{"id":"` + id.String() + `"}}`, CompanyRef{ID: id}, false},
		{"object _id", `{"company":{"_id":"` + id.String() + `"}}`, CompanyRef{ID: id}, false},
		{"object name", `{"company":{"name":"Acme"}}`, CompanyRef{Name: "Acme"}, false},
		{"null", `{"company":null}`, CompanyRef{}, false},
		{"absent", `{}`, CompanyRef{}, false},
		{"bad object id", `{"company":{"id":"nope"}}`, CompanyRef{}, true},
		{"number", `{"company":5}`, CompanyRef{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var in SignupInput
			err := json.Unmarshal([]byte(tt.body), &in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Unmarshal() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && in.Company != tt.want {
				t.Errorf("got %+v, want %+v", in.Company, tt.want)
			}
		})
	}
}

func TestMembershipChangeUnmarshal(t *testing.T) {
	id := uuid.New()

	tests := []struct {
		name    string
		body    string
		wantSet bool
		wantID  *uuid.UUID
		empty   bool
	}{
		{"absent", `{}`, false, nil, true},
		{"explicit null", `{"team":null}`, true, nil, false},
		{"id", `{"team":"` + id.String() + `"}`, true, &id, false},
		{"teamlead only", `{"isTeamlead":true}`, false, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c MembershipChange
			if err := json.Unmarshal([]byte(tt.body), &c); err != nil {
				t.Fatalf("Unmarshal() error: %v", err)
			}
			if c.Team.Set != tt.wantSet {
				t.Errorf("Set = %v, want %v", c.Team.Set, tt.wantSet)
			}
			if (c.Team.ID == nil) != (tt.wantID == nil) || (c.Team.ID != nil && *c.Team.ID != *tt.wantID) {
				t.Errorf("ID = %v, want %v", c.Team.ID, tt.wantID)
			}
			if c.Empty() != tt.empty {
				t.Errorf("Empty() = %v, want %v", c.Empty(), tt.empty)
			}
		})
	}
}

func TestProfileJSONPopulatesTeam(t *testing.T) {
	teamID := uuid.New()
	p := Profile{
		User: User{ID: uuid.New(), TeamID: &teamID, Role: auth.RoleUser},
		Team: &TeamBrief{ID: teamID, TeamName: "Core"},
	}
	b, err := json.Marshal(p)
	if err != nil {
		t.Fatal(err)
	}
	var out map[string]any
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatal(err)
	}
	team, ok := out["team"].(map[string]any)
	if !ok || team["teamName"] != "Core" {
		t.Errorf("expected populated team, got %v", out["team"])
	}
	if _, leaked := out["PasswordHash"]; leaked {
		t.Error("password hash must not be serialized")
	}
}
