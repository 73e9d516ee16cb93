package infra

import (
	"context"
	"testing"
	"time"
)

func TestJWTVerifierRoundTrip(t *testing.T) {
	v := NewJWTVerifier("s3cret")
	raw, err := v.Sign("user-1", "ADMIN", time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	tok, err := v.VerifyIDToken(context.Background(), raw)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if tok.UID != "user-1" || tok.Role != "ADMIN" {
		t.Fatalf("token = %+v", tok)
	}
}

func TestJWTVerifierRejects(t *testing.T) {
	v := NewJWTVerifier("s3cret")
	expired, _ := v.Sign("user-1", "ADMIN", -time.Minute)
	foreign, _ := NewJWTVerifier("other").Sign("user-1", "ADMIN", time.Minute)

	for name, raw := range map[string]string{"expired": expired, "wrong key": foreign, "garbage": "not-a-jwt"} {
		t.Run(name, func(t *testing.T) {
			if _, err := v.VerifyIDToken(context.Background(), raw); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
