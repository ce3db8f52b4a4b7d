package core

import "testing"

func TestParseDecimalToCents(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int64
		wantErr bool
	}{
		{name: "dot separator", input: "12.34", want: 1234},
		{name: "comma separator", input: "12,34", want: 1234},
		{name: "integer only", input: "42", want: 4200},
		{name: "single fractional digit", input: "4.2", want: 420},
		{name: "leading dot", input: ".99", want: 99},
		{name: "negative", input: "-15.00", want: -1500},
		{name: "negative comma", input: "-2,72", want: -272},
		{name: "explicit plus", input: "+27.00", want: 2700},
		{name: "third digit rounds down", input: "12.344", want: 1234},
		{name: "third digit rounds up", input: "12.345", want: 1235},
		{name: "negative rounds on magnitude", input: "-12.345", want: -1235},
		{name: "whitespace trimmed", input: "  7.50 ", want: 750},
		{name: "empty", input: "", wantErr: true},
		{name: "bare sign", input: "-", wantErr: true},
		{name: "bare dot", input: ".", wantErr: true},
		{name: "two dots", input: "1.2.3", wantErr: true},
		{name: "letters", input: "12a.00", wantErr: true},
		{name: "fraction letters", input: "12.x0", wantErr: true},
		{name: "overflow", input: "92233720368547758080", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDecimalToCents(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseDecimalToCents(%q) = %d, want error", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDecimalToCents(%q) error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseDecimalToCents(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestMoneyString(t *testing.T) {
	tests := []struct {
		money Money
		want  string
	}{
		{Money{Cents: 1234, Currency: "EUR"}, "12.34 EUR"},
		{Money{Cents: -1500, Currency: "RUB"}, "-15.00 RUB"},
		{Money{Cents: 5}, "0.05"},
		{Money{Cents: 0}, "0.00"},
	}
	for _, tt := range tests {
		if got := tt.money.String(); got != tt.want {
			t.Errorf("Money%+v.String() = %q, want %q", tt.money, got, tt.want)
		}
	}
}

func TestMoneyMajor(t *testing.T) {
	m := Money{Cents: 272, Currency: "RUB"}
	if got := m.Major(); got != 2.72 {
		t.Errorf("Major() = %v, want 2.72", got)
	}
}

func TestFormatCents(t *testing.T) {
	if got := FormatCents(-1234); got != "-12.34" {
		t.Errorf("FormatCents(-1234) = %q, want -12.34", got)
	}
}
