package ws

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUpgraderCheckOrigin(t *testing.T) {
	cases := []struct {
		name    string
		allowed []string
		origin  string
		want    bool
	}{
		{name: "no origin header", allowed: nil, origin: "", want: true},
		{name: "same origin", allowed: nil, origin: "http://example.com", want: true},
		{name: "foreign origin", allowed: nil, origin: "https://evil.test", want: false},
		{name: "allowed origin", allowed: []string{"https://app.test"}, origin: "https://app.test", want: true},
		{name: "wildcard", allowed: []string{"*"}, origin: "https://evil.test", want: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "http://example.com/api/realtime", nil)
			if tc.origin != "" {
				r.Header.Set("Origin", tc.origin)
			}

			require.Equal(t, tc.want, NewUpgrader(tc.allowed).CheckOrigin(r))
		})
	}
}
