package auth

import (
	"testing"
	"time"
)

func TestRolePermissions(t *testing.T) {
	cases := []struct {
		role       string
		permission string
		want       bool
	}{
		{RoleEmployee, PermTimeOffRead, true},
		{RoleEmployee, PermTimeOffWrite, true},
		{RoleEmployee, PermTimeOffApprove, false},
		{RoleEmployee, PermSettingsWrite, false},
		{RoleManager, PermTimeOffApprove, true},
		{RoleManager, PermTimeOffManage, true},
		{RoleManager, PermTimeOffAdmin, false},
		{RoleAdmin, PermTimeOffAdmin, true},
		{RoleAdmin, PermSettingsWrite, true},
		{"UNKNOWN", PermTimeOffRead, false},
	}
	for _, tc := range cases {
		if got := RoleHasPermission(tc.role, tc.permission); got != tc.want {
			t.Fatalf("%s/%s: got %v, want %v", tc.role, tc.permission, got, tc.want)
		}
	}
}

func TestTokenRoundTrip(t *testing.T) {
	secret := "round-trip-secret"
	token, err := GenerateToken(secret, Claims{UserID: "u1", Role: RoleAdmin}, time.Hour)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	claims, err := ParseToken(secret, token)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if claims.UserID != "u1" || claims.Role != RoleAdmin {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	if _, err := ParseToken("wrong-secret", token); err == nil {
		t.Fatal("expected parse failure with wrong secret")
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	if err := CheckPassword(hash, "s3cret"); err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if err := CheckPassword(hash, "wrong"); err == nil {
		t.Fatal("expected mismatch")
	}
}
