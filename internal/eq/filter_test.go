package eq

import (
	"encoding/json"
	"testing"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		token   string
		want    Kind
		wantErr bool
	}{
		{"PK", Peaking, false},
		{"LS", LowShelf, false},
		{"HS", HighShelf, false},
		{"pk", 0, true},
		{"LP", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			got, err := ParseKind(tt.token)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseKind(%q) error = %v, wantErr %v", tt.token, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseKind(%q) = %v, want %v", tt.token, got, tt.want)
			}
		})
	}
}

func TestShelfHasNoQ(t *testing.T) {
	f := NewShelf(LowShelf, 105, 4.5)
	if _, ok := f.Q(); ok {
		t.Error("shelf reports a Q")
	}
	if f.SetQ(2.0) {
		t.Error("SetQ accepted a Q on a shelf")
	}
}

func TestSetKind(t *testing.T) {
	f := NewPeaking(100, 3, 4.2)

	f.SetKind(HighShelf)
	if _, ok := f.Q(); ok {
		t.Fatal("Q kept after switching to a shelf")
	}

	f.SetKind(Peaking)
	q, ok := f.Q()
	if !ok || q != DefaultQ {
		t.Errorf("Q() = %v, %v after switching back, want %v, true", q, ok, DefaultQ)
	}

	if f.FrequencyHz != 100 || f.GainDB != 3 {
		t.Errorf("frequency/gain changed: %v", f)
	}
}

func TestEnabled(t *testing.T) {
	filters := []Filter{Default(), Default(), NewShelf(HighShelf, 8000, -2)}
	filters[1].Enabled = false

	got := Enabled(filters)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[1].Kind() != HighShelf {
		t.Errorf("order not preserved: %v", got)
	}
}

func TestFilterJSON(t *testing.T) {
	in := []Filter{NewPeaking(63.5, -4.2, 2.5), NewShelf(LowShelf, 105, 6)}
	in[1].Enabled = false

	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var out []Filter
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if len(out) != 2 {
		t.Fatalf("len = %d, want 2", len(out))
	}
	if q, ok := out[0].Q(); !ok || q != 2.5 {
		t.Errorf("out[0].Q() = %v, %v, want 2.5, true", q, ok)
	}
	if out[1].Kind() != LowShelf || out[1].Enabled {
		t.Errorf("out[1] = %v, want disabled LS", out[1])
	}
}

func TestUnmarshalUnknownType(t *testing.T) {
	var f Filter
	if err := json.Unmarshal([]byte(`{"type":"LP","freq":1}`), &f); err == nil {
		t.Error("expected error for unknown type")
	}
}
