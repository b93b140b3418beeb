package dispatch

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"testing"
)

func TestSign(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
		secret  string
	}{
		{
			name:    "basic payload",
			payload: []byte(`{"event":"course_purchase","data":{"orderId":"o1"}}`),
			secret:  "s3cr3t",
		},
		{
			name:    "empty payload",
			payload: []byte(`{}`),
			secret:  "secret",
		},
		{
			name:    "empty secret",
			payload: []byte(`{"test":true}`),
			secret:  "",
		},
		{
			name:    "unicode payload",
			payload: []byte(`{"name":"café","price":"€10"}`),
			secret:  "unicode-key-日本語",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig := Sign(tt.payload, tt.secret)

			// Verify it's a valid hex string
			decoded, err := hex.DecodeString(sig)
			if err != nil {
				t.Fatalf("signature is not valid hex: %v", err)
			}

			// HMAC-SHA256 should always produce 32 bytes (64 hex chars)
			if len(decoded) != 32 {
				t.Fatalf("expected 32 bytes, got %d", len(decoded))
			}

			// Verify against standard library
			mac := hmac.New(sha256.New, []byte(tt.secret))
			mac.Write(tt.payload)
			expected := hex.EncodeToString(mac.Sum(nil))

			if sig != expected {
				t.Errorf("signature mismatch:\n  got:  %s\n  want: %s", sig, expected)
			}
		})
	}
}

func TestSign_Deterministic(t *testing.T) {
	payload := []byte(`{"event":"test"}`)
	secret := "test-secret"

	sig1 := Sign(payload, secret)
	sig2 := Sign(payload, secret)

	if sig1 != sig2 {
		t.Error("same secret and payload should always produce the same signature")
	}
}

func TestSign_DifferentSecrets(t *testing.T) {
	payload := []byte(`{"event":"test"}`)

	sig1 := Sign(payload, "secret-1")
	sig2 := Sign(payload, "secret-2")

	if sig1 == sig2 {
		t.Error("different secrets should produce different signatures")
	}
}

func TestSign_OneByteChange(t *testing.T) {
	secret := "my-secret"
	payload := []byte(`{"event":"course_purchase"}`)

	sig1 := Sign(payload, secret)

	flipped := append([]byte(nil), payload...)
	flipped[10] ^= 0x01

	sig2 := Sign(flipped, secret)

	if sig1 == sig2 {
		t.Error("changing one byte of the payload should change the signature")
	}
}

func TestEnvelope_FieldOrder(t *testing.T) {
	env := Envelope{
		Event:     "course_purchase",
		Timestamp: "2026-08-28T12:00:00Z",
		Data:      json.RawMessage(`{"orderId":"o1"}`),
		WebhookID: "wh-1",
	}

	body, err := json.Marshal(env)
	if err != nil {
		t.Fatalf("failed to marshal envelope: %v", err)
	}

	want := `{"event":"course_purchase","timestamp":"2026-08-28T12:00:00Z","data":{"orderId":"o1"},"webhook_id":"wh-1"}`
	if string(body) != want {
		t.Errorf("envelope serialization:\n  got:  %s\n  want: %s", body, want)
	}
}
