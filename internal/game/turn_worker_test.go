package game

import "testing"

func TestParseTurnMember(t *testing.T) {
	token, player := parseTurnMember("s:abc123:p:p_9f2e")
	if token != "abc123" || player != "p_9f2e" {
		t.Errorf("Parsed wrong parts: token=%q player=%q", token, player)
	}

	for _, bad := range []string{"", "abc123", "s:abc123", "x:abc123:p:p_9f2e"} {
		if tok, p := parseTurnMember(bad); tok != "" || p != "" {
			t.Errorf("Malformed member %q should parse empty: %q %q", bad, tok, p)
		}
	}
}
