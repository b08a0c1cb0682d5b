package target

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParsePatterns(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{in: "", want: nil},
		{in: "05", want: []string{"05"}},
		{in: " 05 , 1* ,,", want: []string{"05", "1*"}},
	}
	for _, tt := range tests {
		if diff := cmp.Diff(tt.want, ParsePatterns(tt.in)); diff != "" {
			t.Fatalf("ParsePatterns(%q) mismatch (-want +got):\n%s", tt.in, diff)
		}
	}
}

func TestFilterKeep(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
		id     string
		want   bool
	}{
		{name: "empty keeps all", filter: Filter{}, id: "07", want: true},
		{name: "include match", filter: Filter{Includes: []string{"1*"}}, id: "12", want: true},
		{name: "include miss", filter: Filter{Includes: []string{"1*"}}, id: "02", want: false},
		{name: "exclude match", filter: Filter{Excludes: []string{"0?"}}, id: "05", want: false},
		{name: "exclude wins", filter: Filter{Includes: []string{"*"}, Excludes: []string{"16"}}, id: "16", want: false},
		{name: "second include", filter: Filter{Includes: []string{"01", "09"}}, id: "09", want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.Keep(tt.id); got != tt.want {
				t.Fatalf("Keep(%q) = %v, want %v", tt.id, got, tt.want)
			}
		})
	}
}

func TestFilterValidate(t *testing.T) {
	if err := (Filter{Includes: []string{"0*"}, Excludes: []string{"1?"}}).Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}
	if err := (Filter{Excludes: []string{"["}}).Validate(); err == nil {
		t.Fatal("Validate() accepted a malformed pattern")
	}
}

func TestSuiteNamesFiltered(t *testing.T) {
	s := Suite{Prefix: "rtest", Count: 16, Width: 2, Filter: Filter{Includes: []string{"0*"}, Excludes: []string{"02", "05"}}}
	want := []string{"rtest01", "rtest03", "rtest04", "rtest06", "rtest07", "rtest08", "rtest09"}
	if diff := cmp.Diff(want, s.Names()); diff != "" {
		t.Fatalf("Names() mismatch (-want +got):\n%s", diff)
	}

	empty := Suite{Prefix: "test", Count: 3, Width: 2, Filter: Filter{Includes: []string{"9*"}}}
	if err := empty.Validate(); err == nil {
		t.Fatal("Validate() accepted a filter that selects nothing")
	}
}
