package lemonsqueezy

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"
)

func sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignatureAcceptsMatchingHMAC(t *testing.T) {
	secret := "whsec-test"
	body := []byte(`{"meta":{"event_name":"order_created"}}`)

	if !VerifySignature(secret, body, sign(secret, body)) {
		t.Fatal("expected matching signature to verify")
	}
}

func TestVerifySignatureRejectsMismatch(t *testing.T) {
	secret := "whsec-test"
	body := []byte(`{"meta":{"event_name":"order_created"}}`)

	if VerifySignature(secret, body, sign("other-secret", body)) {
		t.Fatal("expected wrong-secret signature to fail")
	}
	if VerifySignature(secret, []byte(`{"tampered":true}`), sign(secret, body)) {
		t.Fatal("expected tampered body to fail")
	}
	if VerifySignature(secret, body, "not-hex") {
		t.Fatal("expected garbage signature to fail")
	}
}

func TestVerifySignatureRejectsEmptyInputs(t *testing.T) {
	body := []byte(`{}`)
	if VerifySignature("", body, sign("", body)) {
		t.Fatal("expected empty secret to fail")
	}
	if VerifySignature("whsec-test", body, "") {
		t.Fatal("expected empty signature to fail")
	}
}
