package model

import "testing"

func TestJSONBScanAcceptsDriverVariants(t *testing.T) {
	var j JSONB
	if err := j.Scan([]byte(`{"locale":"de"}`)); err != nil {
		t.Fatalf("scan bytes: %v", err)
	}
	if j.GetString("locale") != "de" {
		t.Fatalf("locale = %q, want de", j.GetString("locale"))
	}

	if err := j.Scan(`{"locale":"en"}`); err != nil {
		t.Fatalf("scan string: %v", err)
	}
	if j.GetString("locale") != "en" {
		t.Fatalf("locale = %q, want en", j.GetString("locale"))
	}

	// NULL 列得到空映射而不是 nil 解引用
	if err := j.Scan(nil); err != nil {
		t.Fatalf("scan nil: %v", err)
	}
	if j.GetString("locale") != "" {
		t.Fatalf("want empty map after NULL scan")
	}

	if err := j.Scan(42); err == nil {
		t.Fatalf("want unsupported type rejected")
	}
}

func TestJSONBValueNilIsEmptyObject(t *testing.T) {
	var j JSONB
	v, err := j.Value()
	if err != nil {
		t.Fatalf("value: %v", err)
	}
	if v != "{}" {
		t.Fatalf("value = %v, want {}", v)
	}
}
