package vault

import "testing"

func TestStringValues(t *testing.T) {
	got := StringValues(map[string]interface{}{
		"JWT_SECRET":  "pem",
		"DB_PASSWORD": "pw",
		"ROTATION":    42,
		"NESTED":      map[string]interface{}{"a": "b"},
	})

	if len(got) != 2 {
		t.Fatalf("expected 2 string values, got %v", got)
	}
	if got["JWT_SECRET"] != "pem" || got["DB_PASSWORD"] != "pw" {
		t.Errorf("unexpected values %v", got)
	}
}

func TestNewClientDefaultsMount(t *testing.T) {
	c, err := NewClient(&Config{Address: "http://127.0.0.1:8200", Token: "t"})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	if c.kvMount != "secret" {
		t.Errorf("expected default mount 'secret', got %q", c.kvMount)
	}
}
