package main

import (
	"testing"

	"reelbase/services/auth"
)

func TestGeneratedPasswordMeetsPolicy(t *testing.T) {
	for i := 0; i < 25; i++ {
		pass, err := generatePassword()
		if err != nil {
			t.Fatalf("generate password: %v", err)
		}
		if err := auth.ValidatePassword(pass); err != nil {
			t.Fatalf("generated password %q violates policy: %v", pass, err)
		}
	}
}
