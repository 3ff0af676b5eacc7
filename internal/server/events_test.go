package server

import "testing"

func TestGetEventDefinitions(t *testing.T) {
	defs := GetEventDefinitions()

	seen := make(map[string]bool)
	for _, d := range defs {
		if seen[d.Name] {
			t.Errorf("duplicate definition %s", d.Name)
		}
		seen[d.Name] = true

		if d.Description == "" {
			t.Errorf("%s: empty description", d.Name)
		}
		if d.InputSchema["type"] != "object" {
			t.Errorf("%s: schema type %v, want object", d.Name, d.InputSchema["type"])
		}
		if !isSessionMethod(d.Name) {
			t.Errorf("%s is listed but not routed", d.Name)
		}
	}

	for m := range sessionMethods {
		if !seen[m] {
			t.Errorf("%s is routed but not listed", m)
		}
	}
}
