package domain

import (
	"errors"
	"testing"
)

func TestNormalizeFlag(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Y", "1"},
		{"y", "1"},
		{"True", "1"},
		{"TRUE", "1"},
		{"true", "1"},
		{"N", "0"},
		{"False", "0"},
		{"", "0"},
		{"yes", "0"},
		{"1", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := NormalizeFlag(tt.in); got != tt.want {
				t.Errorf("NormalizeFlag(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestRenderScope(t *testing.T) {
	if got := RenderScope([]string{"EGI", "wlcg", "lhcb"}); got != "EGI, wlcg, lhcb" {
		t.Errorf("unexpected scope rendering: %q", got)
	}
	if got := RenderScope(nil); got != "" {
		t.Errorf("expected empty scope, got %q", got)
	}
}

func TestUIDHostname(t *testing.T) {
	if got := UIDHostname("ce.physics.science.az", "1555G0", true); got != "ce.physics.science.az_1555G0" {
		t.Errorf("uid mode: got %q", got)
	}
	if got := UIDHostname("ce.physics.science.az", "1555G0", false); got != "ce.physics.science.az" {
		t.Errorf("plain mode: got %q", got)
	}
}

func TestRecordMapLastWriteWins(t *testing.T) {
	m := NewRecordMap[Site]()

	s, existed := m.Upsert("AZ-IFAN")
	if existed {
		t.Fatal("first upsert reported existing record")
	}
	s.Name, s.NGI, s.Certification = "AZ-IFAN", "NGI_AZ", "Candidate"

	m.Upsert("RAL-LCG2")

	s, existed = m.Upsert("AZ-IFAN")
	if !existed {
		t.Fatal("second upsert did not find record")
	}
	s.Certification = "Certified"

	if m.Len() != 2 {
		t.Fatalf("expected 2 records, got %d", m.Len())
	}
	vals := m.Values()
	if vals[0].Name != "AZ-IFAN" || vals[0].Certification != "Certified" || vals[0].NGI != "NGI_AZ" {
		t.Errorf("unexpected merged record: %+v", *vals[0])
	}
	if keys := m.Keys(); keys[0] != "AZ-IFAN" || keys[1] != "RAL-LCG2" {
		t.Errorf("insertion order not kept: %v", keys)
	}
}

func TestContactEmails(t *testing.T) {
	rec := ContactRecord{
		Name: "RAL-LCG2",
		Contacts: []Contact{
			{Email: "a@example.org", Role: "Site Administrator"},
			{CertDN: "/CN=nobody"},
			{Email: "b@example.org"},
		},
	}
	got := rec.Emails()
	if len(got) != 2 || got[0] != "a@example.org" || got[1] != "b@example.org" {
		t.Errorf("unexpected emails: %v", got)
	}
}

func TestErrorsUnwrap(t *testing.T) {
	err := &ParseError{Customer: "EGI", Job: "EGI_Critical", Feed: "sites", Err: ErrEmptyFeed}
	if !errors.Is(err, ErrEmptyFeed) {
		t.Error("ParseError does not unwrap to ErrEmptyFeed")
	}

	cause := errors.New("dial tcp: refused")
	var te *TransportError
	if !errors.As(error(&TransportError{URL: "https://gocdb", Err: cause}), &te) || !errors.Is(te, cause) {
		t.Error("TransportError does not unwrap")
	}
}
