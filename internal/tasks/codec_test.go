package tasks

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

func TestEncodeDecode_RoundTrip(t *testing.T) {
	in := []Task{
		{ID: "a", Text: "Buy milk", Completed: true, CreatedAt: time.Date(2024, 7, 1, 9, 5, 0, 123456789, time.UTC)},
		{ID: "b", Text: "Walk dog", Completed: false, CreatedAt: time.Date(2024, 7, 2, 18, 0, 0, 0, time.UTC)},
	}

	data, err := Encode(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	out, err := Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(in, out) {
		t.Fatalf("round trip mismatch:\n in=%+v\nout=%+v", in, out)
	}
}

func TestEncode_WireFormat(t *testing.T) {
	data, err := Encode([]Task{{ID: "1720189800000", Text: "Buy milk", CreatedAt: time.Date(2024, 7, 5, 14, 30, 0, 0, time.UTC)}})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	want := `[{"id":"1720189800000","text":"Buy milk","completed":false,"createdAt":"2024-07-05T14:30:00Z"}]`
	if string(data) != want {
		t.Fatalf("unexpected wire format\n got: %s\nwant: %s", data, want)
	}

	empty, _ := Encode(nil)
	if string(empty) != "[]" {
		t.Fatalf("empty list should encode as [], got %s", empty)
	}
}

func TestDecode_AcceptsMillisecondTimestamps(t *testing.T) {
	// the browser-era format: toISOString() with milliseconds
	list, err := Decode([]byte(`[{"id":"1","text":"x","completed":true,"createdAt":"2024-07-05T14:30:00.250Z"}]`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := time.Date(2024, 7, 5, 14, 30, 0, 250_000_000, time.UTC)
	if !list[0].CreatedAt.Equal(want) {
		t.Fatalf("expected %v, got %v", want, list[0].CreatedAt)
	}
}

func TestDecode_Malformed(t *testing.T) {
	cases := map[string]string{
		"not json":      `{"id":`,
		"object":        `{"id":"1"}`,
		"bad timestamp": `[{"id":"1","text":"x","completed":false,"createdAt":"yesterday"}]`,
		"blank text":    `[{"id":"1","text":"   ","completed":false,"createdAt":"2024-07-05T14:30:00Z"}]`,
		"missing id":    `[{"text":"x","completed":false,"createdAt":"2024-07-05T14:30:00Z"}]`,
		"duplicate id":  `[{"id":"1","text":"x","createdAt":"2024-07-05T14:30:00Z"},{"id":"1","text":"y","createdAt":"2024-07-05T14:30:00Z"}]`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Decode([]byte(raw)); !errors.Is(err, ErrMalformedSnapshot) {
				t.Fatalf("expected ErrMalformedSnapshot, got %v", err)
			}
		})
	}
}
