package job

import (
	"strings"
	"testing"

	"devboard/internal/errcode"
)

func validInput() SpecInput {
	return SpecInput{
		Title:          "Backend Engineer",
		Description:    "Build and run the job platform backend.",
		Skills:         []string{"Go", "Postgres"},
		SalaryMin:      80000,
		SalaryMax:      120000,
		SalaryCurrency: "usd",
		Location:       "Berlin",
		Type:           "FULL_TIME",
		Experience:     "MID",
	}
}

func wantValidation(t *testing.T, err error) {
	t.Helper()
	if !errcode.IsKind(err, errcode.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestParseSpec_Valid(t *testing.T) {
	spec, err := ParseSpec(validInput())
	if err != nil {
		t.Fatalf("ParseSpec: %v", err)
	}
	if spec.SalaryCurrency != "USD" {
		t.Errorf("currency not normalized: %q", spec.SalaryCurrency)
	}
	if spec.Type != TypeFullTime || spec.Experience != ExperienceMid {
		t.Errorf("enums not parsed: %+v", spec)
	}
}

func TestParseSpec_Validation(t *testing.T) {
	in := validInput()
	in.Title = "   "
	_, err := ParseSpec(in)
	wantValidation(t, err)

	in = validInput()
	in.Title = strings.Repeat("x", 201)
	_, err = ParseSpec(in)
	wantValidation(t, err)

	in = validInput()
	in.Description = ""
	_, err = ParseSpec(in)
	wantValidation(t, err)

	in = validInput()
	in.SalaryMin = -1
	_, err = ParseSpec(in)
	wantValidation(t, err)

	in = validInput()
	in.SalaryMin = 120000
	in.SalaryMax = 80000
	_, err = ParseSpec(in)
	wantValidation(t, err)

	in = validInput()
	in.SalaryCurrency = "EURO"
	_, err = ParseSpec(in)
	wantValidation(t, err)

	in = validInput()
	in.Type = "GIG"
	_, err = ParseSpec(in)
	wantValidation(t, err)

	in = validInput()
	in.Experience = "GURU"
	_, err = ParseSpec(in)
	wantValidation(t, err)
}

func TestParseSpec_EqualSalaryBoundsAllowed(t *testing.T) {
	in := validInput()
	in.SalaryMin = 100000
	in.SalaryMax = 100000
	if _, err := ParseSpec(in); err != nil {
		t.Fatalf("equal salary bounds should pass: %v", err)
	}
}

func TestParseSpec_SanitizesDescription(t *testing.T) {
	in := validInput()
	in.Description = `Build things.<script>alert("x")</script>`
	spec, err := ParseSpec(in)
	if err != nil {
		t.Fatalf("ParseSpec: %v", err)
	}
	if strings.Contains(spec.Description, "<script>") {
		t.Errorf("script tag survived sanitization: %q", spec.Description)
	}
}

func TestEncodeDecodeSkills(t *testing.T) {
	encoded := EncodeSkills([]string{"Go", " Postgres "})
	if encoded != ",go,postgres," {
		t.Fatalf("EncodeSkills = %q", encoded)
	}
	decoded := DecodeSkills(encoded)
	if len(decoded) != 2 || decoded[0] != "go" || decoded[1] != "postgres" {
		t.Fatalf("DecodeSkills = %v", decoded)
	}
	if EncodeSkills(nil) != "" {
		t.Fatal("empty skills should encode to empty string")
	}
	if DecodeSkills("") != nil {
		t.Fatal("empty string should decode to nil")
	}
}

func TestEncodeDecodeList(t *testing.T) {
	raw := EncodeList([]string{"ship features", "review code"})
	entries := DecodeList(raw)
	if len(entries) != 2 || entries[0] != "ship features" {
		t.Fatalf("round trip failed: %v", entries)
	}
	if got := DecodeList(EncodeList(nil)); len(got) != 0 {
		t.Fatalf("nil list round trip = %v", got)
	}
}
