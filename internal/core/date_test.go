package core

import (
	"encoding/json"
	"testing"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2014-02-17")
	if err != nil {
		t.Fatalf("ParseDate error: %v", err)
	}
	if d.Year() != 2014 || int(d.Month()) != 2 || d.Day() != 17 {
		t.Errorf("ParseDate = %v, want 2014-02-17", d)
	}
	if d.String() != "2014-02-17" {
		t.Errorf("String() = %q, want 2014-02-17", d.String())
	}

	if _, err := ParseDate("17/02/2014"); err == nil {
		t.Error("expected error for non-ISO date")
	}
}

func TestDateBetween(t *testing.T) {
	from := NewDate(2010, 1, 1)
	to := NewDate(2020, 1, 1)

	tests := []struct {
		date string
		want bool
	}{
		{"2014-02-17", true},
		{"2010-01-01", true}, // inclusive lower bound
		{"2020-01-01", true}, // inclusive upper bound
		{"2009-12-31", false},
		{"2020-01-02", false},
	}
	for _, tt := range tests {
		d := MustParseDate(tt.date)
		if got := d.Between(from, to); got != tt.want {
			t.Errorf("%s.Between(%s, %s) = %v, want %v", tt.date, from, to, got, tt.want)
		}
	}
}

func TestDateJSONRoundTrip(t *testing.T) {
	d := NewDate(2015, 1, 7)
	data, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `"2015-01-07"` {
		t.Errorf("marshal = %s, want \"2015-01-07\"", data)
	}

	var back Date
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !back.Equal(d) {
		t.Errorf("round trip = %v, want %v", back, d)
	}
}

func TestDateValidate(t *testing.T) {
	if err := (Date{}).Validate(); err == nil {
		t.Error("zero date should not validate")
	}
	if err := NewDate(2024, 6, 1).Validate(); err != nil {
		t.Errorf("valid date rejected: %v", err)
	}
}
