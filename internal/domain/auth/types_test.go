package auth

import "testing"

func TestNormalizeRole(t *testing.T) {
	cases := map[string]Role{
		"admin":     RoleAdmin,
		"user":      RoleUser,
		"guest":     RoleGuest,
		"":          RoleGuest,
		"moderator": RoleUser,
	}
	for raw, want := range cases {
		if got := NormalizeRole(raw); got != want {
			t.Fatalf("NormalizeRole(%q) = %q, want %q", raw, got, want)
		}
	}
}

func TestUser_DisplayName(t *testing.T) {
	u := User{FirstName: "Ada", LastName: "Lovelace"}
	if u.DisplayName() != "Ada Lovelace" {
		t.Fatalf("unexpected display name: %q", u.DisplayName())
	}
	if (User{Username: "ada"}).DisplayName() != "ada" {
		t.Fatalf("expected username fallback")
	}
	if (User{Email: "a@example.com"}).DisplayName() != "a@example.com" {
		t.Fatalf("expected email fallback")
	}
}

func TestSplitDisplayName(t *testing.T) {
	cases := []struct {
		in          string
		first, last string
	}{
		{"Ada Lovelace", "Ada", "Lovelace"},
		{"Prince", "Prince", ""},
		{"Mary Jane Watson", "Mary", "Jane Watson"},
		{"  Ada   Lovelace  ", "Ada", "Lovelace"},
		{"", "", ""},
	}
	for _, tc := range cases {
		first, last := SplitDisplayName(tc.in)
		if first != tc.first || last != tc.last {
			t.Fatalf("SplitDisplayName(%q) = (%q, %q), want (%q, %q)", tc.in, first, last, tc.first, tc.last)
		}
	}
}

func TestSnapshot_Anonymous(t *testing.T) {
	if !(Snapshot{}).Anonymous() {
		t.Fatalf("zero snapshot should be anonymous")
	}
	if (Snapshot{LoggedIn: true}).Anonymous() {
		t.Fatalf("logged-in snapshot should not be anonymous")
	}
}
