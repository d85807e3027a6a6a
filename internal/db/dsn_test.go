package db

import "testing"

func TestNormalizeDSN(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"postgres://u:p@h:5432/d?sslmode=disable", "postgres://u:p@h:5432/d?sslmode=disable"},
		{"  'postgres://u:p@h/d'  ", "postgres://u:p@h/d"},
		{"host=localhost user=app dbname=store", "host=localhost user=app dbname=store sslmode=disable"},
		{"host=localhost   user=app sslmode=require", "host=localhost user=app sslmode=require"},
		{"file:test?mode=memory", "file:test?mode=memory"},
		{"store.db", "store.db"},
		{"", ""},
	}
	for _, c := range cases {
		if got := NormalizeDSN(c.in); got != c.want {
			t.Errorf("NormalizeDSN(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
