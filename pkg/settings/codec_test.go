package settings

import (
	"reflect"
	"testing"
)

func TestDecodeScalars(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want interface{}
	}{
		{"string", `s:5:"hello";`, "hello"},
		{"empty string", `s:0:"";`, ""},
		{"string with quotes", `s:8:"say "hi"";`, `say "hi"`},
		{"escaped quotes", `s:5:\"hello\";`, "hello"},
		{"integer", "i:42;", int64(42)},
		{"negative integer", "i:-7;", int64(-7)},
		{"float", "d:3.25;", 3.25},
		{"bool true", "b:1;", true},
		{"bool false", "b:0;", false},
		{"null", "N;", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.raw)
			if err != nil {
				t.Fatalf("Decode(%q) error = %v", tt.raw, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Decode(%q) = %#v, want %#v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestDecodeList(t *testing.T) {
	raw := `a:3:{i:0;s:1:"a";i:1;s:1:"b";i:2;i:9;}`
	got, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	want := []interface{}{"a", "b", int64(9)}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Decode() = %#v, want %#v", got, want)
	}
}

func TestDecodeMap(t *testing.T) {
	raw := `a:2:{s:4:"name";s:7:"Pustaka";s:7:"version";i:9;}`
	got, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	want := map[string]interface{}{"name": "Pustaka", "version": int64(9)}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Decode() = %#v, want %#v", got, want)
	}
}

func TestDecodeNonSequentialIntKeysBecomeMap(t *testing.T) {
	raw := `a:2:{i:1;s:1:"a";i:5;s:1:"b";}`
	got, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	want := map[string]interface{}{"1": "a", "5": "b"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Decode() = %#v, want %#v", got, want)
	}
}

func TestDecodeNested(t *testing.T) {
	raw := `a:1:{s:4:"smtp";a:2:{s:4:"host";s:9:"localhost";s:4:"port";i:25;}}`
	got, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	want := map[string]interface{}{
		"smtp": map[string]interface{}{"host": "localhost", "port": int64(25)},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Decode() = %#v, want %#v", got, want)
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []string{
		"",
		"x:1;",
		"i:forty;",
		`s:99:"short";`,
		"b:2;",
		"a:1:{i:0;",
	}
	for _, raw := range tests {
		if _, err := Decode(raw); err == nil {
			t.Errorf("Decode(%q) succeeded, want error", raw)
		}
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		value interface{}
	}{
		{"string", "hello"},
		{"integer", int64(42)},
		{"float", 3.25},
		{"bool", true},
		{"null", nil},
		{"list", []interface{}{"a", int64(1), false}},
		{"map", map[string]interface{}{"host": "localhost", "port": int64(25)}},
		{"nested", map[string]interface{}{
			"flags": []interface{}{true, false},
			"smtp":  map[string]interface{}{"host": "localhost"},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := Encode(tt.value)
			if err != nil {
				t.Fatalf("Encode() error = %v", err)
			}
			got, err := Decode(raw)
			if err != nil {
				t.Fatalf("Decode(%q) error = %v", raw, err)
			}
			if !reflect.DeepEqual(got, tt.value) {
				t.Errorf("round trip = %#v, want %#v", got, tt.value)
			}
		})
	}
}

func TestEncodeIntegralFloatAsInteger(t *testing.T) {
	raw, err := Encode(float64(25))
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if raw != "i:25;" {
		t.Errorf("Encode(25.0) = %q, want i:25;", raw)
	}
}

func TestEncodeDeterministicMapOrder(t *testing.T) {
	value := map[string]interface{}{"b": int64(2), "a": int64(1)}
	first, err := Encode(value)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := Encode(value)
		if err != nil {
			t.Fatalf("Encode() error = %v", err)
		}
		if again != first {
			t.Fatalf("Encode() not deterministic: %q vs %q", first, again)
		}
	}
	if first != `a:2:{s:1:"a";i:1;s:1:"b";i:2;}` {
		t.Errorf("Encode() = %q, want sorted keys", first)
	}
}
