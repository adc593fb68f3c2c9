package logschema

import "testing"

func TestValidate(t *testing.T) {
	err := Validate("decision_event", map[string]interface{}{
		"symbol":    "ETHUSDC",
		"bias":      "bid",
		"bidVolume": 45.0,
		"askVolume": 40.0,
		"imbalance": 0.0588,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err = Validate("decision_event", map[string]interface{}{
		"symbol": "ETHUSDC",
	})
	if err == nil {
		t.Fatalf("expected error for missing fields")
	}
	if err := Validate("not_registered", nil); err != nil {
		t.Fatalf("unknown events should pass, got %v", err)
	}
}
