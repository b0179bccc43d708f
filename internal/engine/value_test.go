package engine

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestValueNarrowing(t *testing.T) {
	tests := []struct {
		name    string
		value   Value
		narrow  func(Value) error
		wantErr bool
	}{
		{name: "string ok", value: String("x"), narrow: func(v Value) error { _, err := v.ExpectString(); return err }},
		{name: "bool ok", value: Bool(true), narrow: func(v Value) error { _, err := v.ExpectBool(); return err }},
		{name: "array ok", value: Array([]Value{String("a")}), narrow: func(v Value) error { _, err := v.ExpectArray(); return err }},
		{name: "record ok", value: Record(map[string]Value{"k": Bool(false)}), narrow: func(v Value) error { _, err := v.ExpectRecord(); return err }},
		{name: "string as bool", value: String("true"), narrow: func(v Value) error { _, err := v.ExpectBool(); return err }, wantErr: true},
		{name: "bool as string", value: Bool(true), narrow: func(v Value) error { _, err := v.ExpectString(); return err }, wantErr: true},
		{name: "none as string", value: None(), narrow: func(v Value) error { _, err := v.ExpectString(); return err }, wantErr: true},
		{name: "none as bool", value: None(), narrow: func(v Value) error { _, err := v.ExpectBool(); return err }, wantErr: true},
		{name: "zero value as record", value: Value{}, narrow: func(v Value) error { _, err := v.ExpectRecord(); return err }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.narrow(tt.value)
			if tt.wantErr {
				var tm *TypeMismatchError
				if !errors.As(err, &tm) {
					t.Fatalf("narrow error = %v, want TypeMismatchError", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("narrow: %v", err)
			}
		})
	}
}

func TestValueEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{name: "equal strings", a: String("x"), b: String("x"), want: true},
		{name: "different strings", a: String("x"), b: String("y"), want: false},
		{name: "string never equals bool", a: String("true"), b: Bool(true), want: false},
		{name: "none equals none", a: None(), b: None(), want: true},
		{name: "none not false", a: None(), b: Bool(false), want: false},
		{name: "equal arrays", a: Array([]Value{String("a"), Bool(true)}), b: Array([]Value{String("a"), Bool(true)}), want: true},
		{name: "array length differs", a: Array([]Value{String("a")}), b: Array(nil), want: false},
		{
			name: "equal records",
			a:    Record(map[string]Value{"x": String("1"), "y": Bool(false)}),
			b:    Record(map[string]Value{"y": Bool(false), "x": String("1")}),
			want: true,
		},
		{
			name: "record field differs",
			a:    Record(map[string]Value{"x": String("1")}),
			b:    Record(map[string]Value{"x": String("2")}),
			want: false,
		},
		{
			name: "equal endpoints",
			a:    EndpointValue(&Endpoint{URL: "https://a", Headers: map[string][]string{"x-env": {"prod"}}}),
			b:    EndpointValue(&Endpoint{URL: "https://a", Headers: map[string][]string{"x-env": {"prod"}}}),
			want: true,
		},
		{
			name: "endpoint header order matters",
			a:    EndpointValue(&Endpoint{URL: "https://a", Headers: map[string][]string{"x": {"1", "2"}}}),
			b:    EndpointValue(&Endpoint{URL: "https://a", Headers: map[string][]string{"x": {"2", "1"}}}),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Equal(tt.b); got != tt.want {
				t.Fatalf("Equal() = %v, want %v", got, tt.want)
			}
			if got := tt.b.Equal(tt.a); got != tt.want {
				t.Fatalf("Equal() not symmetric: reversed = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValueMarshalJSON(t *testing.T) {
	tests := []struct {
		name  string
		value Value
		want  string
	}{
		{name: "none", value: None(), want: `null`},
		{name: "string", value: String("x"), want: `"x"`},
		{name: "bool", value: Bool(true), want: `true`},
		{name: "array", value: Array([]Value{String("a"), Bool(false)}), want: `["a",false]`},
		{name: "record", value: Record(map[string]Value{"k": String("v")}), want: `{"k":"v"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := json.Marshal(tt.value)
			if err != nil {
				t.Fatalf("Marshal failed: %v", err)
			}
			if string(got) != tt.want {
				t.Fatalf("Marshal = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestEndpointMarshalJSON(t *testing.T) {
	ep := &Endpoint{
		URL: "https://svc.us-east-1.example.com",
		Properties: map[string]Value{
			"authSchemes": Array([]Value{Record(map[string]Value{"name": String("sigv4")})}),
		},
		Headers: map[string][]string{"x-region": {"us-east-1"}},
	}

	got, err := json.Marshal(ep)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	want := `{"url":"https://svc.us-east-1.example.com","properties":{"authSchemes":[{"name":"sigv4"}]},"headers":{"x-region":["us-east-1"]}}`
	if string(got) != want {
		t.Fatalf("Marshal = %s, want %s", got, want)
	}
}
