// SPDX-License-Identifier: MPL-2.0

package pyversion

import (
	"errors"
	"slices"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    []int
		wantErr bool
	}{
		{in: "3", want: []int{3}},
		{in: "3.10", want: []int{3, 10}},
		{in: "3.10.4", want: []int{3, 10, 4}},
		{in: "3.09", want: []int{3, 9}},
		{in: "0.0.0.0.1", want: []int{0, 0, 0, 0, 1}},
		{in: "", wantErr: true},
		{in: "3.", wantErr: true},
		{in: ".3", wantErr: true},
		{in: "3..1", wantErr: true},
		{in: "3.13.0rc1", wantErr: true},
		{in: "3.11.2+", wantErr: true},
		{in: "-3", wantErr: true},
		{in: "3.99999999999999999999999", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			v, err := Parse(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Parse(%q) succeeded with %v, want error", tt.in, v)
				}
				if !errors.Is(err, ErrInvalidVersion) {
					t.Errorf("error should wrap ErrInvalidVersion, got: %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) returned error: %v", tt.in, err)
			}
			if !slices.Equal(v.Parts(), tt.want) {
				t.Errorf("Parse(%q).Parts() = %v, want %v", tt.in, v.Parts(), tt.want)
			}
		})
	}
}

func TestVersion_String(t *testing.T) {
	t.Parallel()
	if got := MustParse("3.09.1").String(); got != "3.9.1" {
		t.Errorf("String() = %q, want %q", got, "3.9.1")
	}
	if got := (Version{}).String(); got != "" {
		t.Errorf("zero Version String() = %q, want empty", got)
	}
}

func TestCompare(t *testing.T) {
	t.Parallel()

	tests := []struct {
		a, b string
		want int
	}{
		{"3.10", "3.9", 1},
		{"3.9", "3.10", -1},
		{"3.10.4", "3.10.4", 0},
		{"3", "3.0", -1},
		{"3.0", "3.0.0", -1},
		{"3.0.1", "3", 1},
		{"2.7.18", "3", -1},
	}

	for _, tt := range tests {
		if got := Compare(MustParse(tt.a), MustParse(tt.b)); got != tt.want {
			t.Errorf("Compare(%s, %s) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestParseRequirement_Empty(t *testing.T) {
	t.Parallel()
	for _, raw := range []string{"", "   ", "\t"} {
		req, err := ParseRequirement(raw)
		if err != nil {
			t.Fatalf("ParseRequirement(%q) returned error: %v", raw, err)
		}
		if !req.IsAny() {
			t.Errorf("ParseRequirement(%q).IsAny() = false, want true", raw)
		}
		if !req.Allows(MustParse("2.7")) {
			t.Errorf("unconstrained requirement should allow every version")
		}
		if req.String() != "any" {
			t.Errorf("String() = %q, want %q", req.String(), "any")
		}
	}
}

func TestParseRequirement_Malformed(t *testing.T) {
	t.Parallel()
	for _, raw := range []string{"abc", "1.a", ">=3.9", "3.9.*", "~3", "3.9abc", "3,9"} {
		_, err := ParseRequirement(raw)
		if err == nil {
			t.Errorf("ParseRequirement(%q) should fail", raw)
			continue
		}
		if !errors.Is(err, ErrInvalidVersionSpec) {
			t.Errorf("ParseRequirement(%q) error should wrap ErrInvalidVersionSpec, got: %v", raw, err)
		}
		var specErr *InvalidVersionSpecError
		if !errors.As(err, &specErr) {
			t.Fatalf("error should be *InvalidVersionSpecError, got: %T", err)
		}
		if specErr.Value != raw {
			t.Errorf("InvalidVersionSpecError.Value = %q, want %q", specErr.Value, raw)
		}
	}
}

func TestRequirement_Allows(t *testing.T) {
	t.Parallel()

	req, err := ParseRequirement("3.9")
	if err != nil {
		t.Fatalf("ParseRequirement: %v", err)
	}

	for _, v := range []string{"3.9", "3.9.0", "3.9.7", "3.10.0", "4"} {
		if !req.Allows(MustParse(v)) {
			t.Errorf("requirement 3.9 should allow %s", v)
		}
	}
	for _, v := range []string{"3.8.10", "3", "2.7.18"} {
		if req.Allows(MustParse(v)) {
			t.Errorf("requirement 3.9 should reject %s", v)
		}
	}
}

func TestRequirement_MajorOnly(t *testing.T) {
	t.Parallel()

	req, err := ParseRequirement("3")
	if err != nil {
		t.Fatalf("ParseRequirement: %v", err)
	}
	for _, v := range []string{"3", "3.0.0", "3.12.1"} {
		if !req.Allows(MustParse(v)) {
			t.Errorf("requirement 3 should allow %s", v)
		}
	}
	if req.Min().String() != "3" {
		t.Errorf("Min() = %s, want 3", req.Min())
	}
}

func versionGen() gopter.Gen {
	return gen.SliceOf(gen.IntRange(0, 3)).
		SuchThat(func(p []int) bool { return len(p) > 0 }).
		Map(func(p []int) Version { return Version{parts: p} })
}

func TestCompareProperties(t *testing.T) {
	t.Parallel()

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	parameters.MaxSize = 6
	properties := gopter.NewProperties(parameters)

	properties.Property("compare is antisymmetric", prop.ForAll(
		func(a, b Version) bool {
			return Compare(a, b) == -Compare(b, a)
		},
		versionGen(), versionGen(),
	))

	properties.Property("a strict prefix sorts first", prop.ForAll(
		func(a Version, extra []int) bool {
			if len(extra) == 0 {
				return true
			}
			longer := Version{parts: append(a.Parts(), extra...)}
			return Compare(a, longer) < 0 && Requirement{min: a, present: true}.Allows(longer)
		},
		versionGen(), gen.SliceOf(gen.IntRange(0, 5)),
	))

	properties.Property("a requirement allows its own minimum", prop.ForAll(
		func(v Version) bool {
			req, err := ParseRequirement(v.String())
			return err == nil && req.Allows(v)
		},
		versionGen(),
	))

	properties.TestingRun(t)
}
