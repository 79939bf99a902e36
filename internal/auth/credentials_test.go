package auth

import (
	"errors"
	"net/http"
	"net/url"
	"testing"
)

func TestTokenFromQuery(t *testing.T) {
	token, err := TokenFromQuery(url.Values{"token": {"abc"}})
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if token != "abc" {
		t.Fatalf("token=%q", token)
	}

	if _, err := TokenFromQuery(url.Values{}); !errors.Is(err, ErrMissingCredentials) {
		t.Fatalf("err=%v, want %v", err, ErrMissingCredentials)
	}
}

func TestTokenFromHeader(t *testing.T) {
	cases := []struct {
		name   string
		header string
		want   string
		ok     bool
	}{
		{"bearer", "Bearer abc", "abc", true},
		{"case insensitive scheme", "bearer abc", "abc", true},
		{"missing", "", "", false},
		{"wrong scheme", "Basic abc", "", false},
		{"no token", "Bearer ", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r, _ := http.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				r.Header.Set("Authorization", tc.header)
			}
			token, err := TokenFromHeader(r)
			if tc.ok {
				if err != nil {
					t.Fatalf("err=%v", err)
				}
				if token != tc.want {
					t.Fatalf("token=%q, want %q", token, tc.want)
				}
				return
			}
			if !errors.Is(err, ErrMissingCredentials) {
				t.Fatalf("err=%v, want %v", err, ErrMissingCredentials)
			}
		})
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("Sup3rSecret", 4)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if err := CheckPassword(hash, "Sup3rSecret"); err != nil {
		t.Fatalf("check: %v", err)
	}
	if err := CheckPassword(hash, "wrong"); !errors.Is(err, ErrWrongPassword) {
		t.Fatalf("err=%v, want %v", err, ErrWrongPassword)
	}
}
