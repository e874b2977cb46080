package keycodec

import "testing"

func TestEncodeDecodeRoundTrip(t *testing.T) {
	encoded, err := Encode(42, 10)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	if encoded != "0000000042" {
		t.Fatalf("unexpected encoding: %s", encoded)
	}
	decoded, err := Decode(encoded)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if decoded != 42 {
		t.Fatalf("expected 42, got %d", decoded)
	}
}

func TestEncodePreservesNumericOrder(t *testing.T) {
	nine, err := EncodeSequence(9)
	if err != nil {
		t.Fatalf("encode 9 failed: %v", err)
	}
	ten, err := EncodeSequence(10)
	if err != nil {
		t.Fatalf("encode 10 failed: %v", err)
	}
	if !(nine < ten) {
		t.Fatalf("expected %s to sort before %s", nine, ten)
	}
}

func TestEncodeRejectsNegative(t *testing.T) {
	if _, err := Encode(-1, 10); err != ErrNegativeNumber {
		t.Fatalf("expected ErrNegativeNumber, got %v", err)
	}
}

func TestEncodeRejectsOverflowingWidth(t *testing.T) {
	if _, err := Encode(1234, 3); err != ErrWidthExceeded {
		t.Fatalf("expected ErrWidthExceeded, got %v", err)
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	if _, err := Decode("poll-1"); err != ErrNotNumeric {
		t.Fatalf("expected ErrNotNumeric, got %v", err)
	}
}

func TestEscapeSegmentKeepsJoinInjective(t *testing.T) {
	left := Join(EscapeSegment("A#v1"), EscapeSegment("v2"))
	right := Join(EscapeSegment("A"), EscapeSegment("v1#v2"))
	if left == right {
		t.Fatalf("distinct segment lists joined to the same key: %s", left)
	}
}

func TestEscapeSegmentEncodesPercentFirst(t *testing.T) {
	if got := EscapeSegment("50%#done"); got != "50%25%23done" {
		t.Fatalf("unexpected escaping: %s", got)
	}
	if got := EscapeSegment("plain"); got != "plain" {
		t.Fatalf("plain text should pass through, got %s", got)
	}
}

func TestJoinSplit(t *testing.T) {
	key := Join("poll-1", "0000000001", "2024-01-01_2024-01-07")
	segments := Split(key)
	if len(segments) != 3 || segments[1] != "0000000001" {
		t.Fatalf("unexpected segments: %v", segments)
	}
}
