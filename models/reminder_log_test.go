package models

import "testing"

func TestJSONBScan(t *testing.T) {
	t.Run("null column leaves the map nil", func(t *testing.T) {
		var j JSONB
		if err := j.Scan(nil); err != nil {
			t.Fatalf("Scan(nil) failed: %v", err)
		}
		if j != nil {
			t.Errorf("expected nil map, got %v", j)
		}
	})

	t.Run("bytes from the driver", func(t *testing.T) {
		var j JSONB
		if err := j.Scan([]byte(`{"quote_id":"q-1"}`)); err != nil {
			t.Fatalf("Scan failed: %v", err)
		}
		if j["quote_id"] != "q-1" {
			t.Errorf("expected quote_id q-1, got %v", j)
		}
	})

	t.Run("string from the driver", func(t *testing.T) {
		var j JSONB
		if err := j.Scan(`{"provider":"twilio"}`); err != nil {
			t.Fatalf("Scan failed: %v", err)
		}
		if j["provider"] != "twilio" {
			t.Errorf("expected provider twilio, got %v", j)
		}
	})

	t.Run("other types are rejected", func(t *testing.T) {
		var j JSONB
		if err := j.Scan(42); err == nil {
			t.Error("expected an error for an int value")
		}
	})

	t.Run("round trip through Value", func(t *testing.T) {
		in := JSONB{"company_id": "c-1"}
		raw, err := in.Value()
		if err != nil {
			t.Fatalf("Value failed: %v", err)
		}
		var out JSONB
		if err := out.Scan(raw.([]byte)); err != nil {
			t.Fatalf("Scan failed: %v", err)
		}
		if out["company_id"] != "c-1" {
			t.Errorf("expected company_id c-1, got %v", out)
		}
	})
}
