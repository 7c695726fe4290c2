package handbook

import (
	"encoding/json"
	"testing"
)

func TestEntryUnmarshalID(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantID  string
		wantErr bool
	}{
		{"uuid", `{"id":"0b6f3c1e-8f0a-4c55-9d3e-1f2a3b4c5d6e","kategorie":"Disk"}`, "0b6f3c1e-8f0a-4c55-9d3e-1f2a3b4c5d6e", false},
		{"identity", `{"id":7,"kategorie":"Disk"}`, "7", false},
		{"bigint", `{"id":9007199254740993,"kategorie":"Disk"}`, "9007199254740993", false},
		{"null", `{"id":null,"kategorie":"Disk"}`, "", false},
		{"missing", `{"kategorie":"Disk"}`, "", false},
		{"bool", `{"id":true,"kategorie":"Disk"}`, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var e Entry
			err := json.Unmarshal([]byte(tt.body), &e)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Unmarshal(%s) = %#v, want error", tt.body, e)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unmarshal(%s) returned error: %v", tt.body, err)
			}
			if e.ID != tt.wantID || e.Category != "Disk" {
				t.Fatalf("Unmarshal(%s) = %#v, want id %q", tt.body, e, tt.wantID)
			}
		})
	}
}

func TestEntryUnmarshalList(t *testing.T) {
	var entries []Entry
	body := `[{"id":1,"kategorie":"Net","fehlermeldung":"timeout","beschreibung":"slow","loesung":"retry"},{"id":"b","kategorie":"Disk","fehlermeldung":"full","beschreibung":"d","loesung":"r"}]`
	if err := json.Unmarshal([]byte(body), &entries); err != nil {
		t.Fatalf("Unmarshal returned error: %v", err)
	}
	want := EntryFields{Category: "Net", Message: "timeout", Description: "slow", Resolution: "retry"}
	if len(entries) != 2 || entries[0].ID != "1" || entries[0].Fields() != want || entries[1].ID != "b" {
		t.Fatalf("entries = %#v", entries)
	}
}
