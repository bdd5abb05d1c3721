package ledger

import "testing"

func TestValidateIdentifier(t *testing.T) {
	cases := []struct {
		name string
		id   string
		ok   bool
	}{
		{"system program", "11111111111111111111111111111111", true},
		{"token program", "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA", true},
		{"wallet", "4Nd1mBQtrMJVYVfKf2PJy9NZUZdTAsp7D4xWLs4gDB4T", true},
		{"empty", "", false},
		{"not base58", "0OIl+/=", false},
		{"too short", "abc", false},
	}

	for _, tc := range cases {
		err := ValidateIdentifier(tc.id)
		if tc.ok && err != nil {
			t.Errorf("%s: unexpected error: %v", tc.name, err)
		}
		if !tc.ok && err == nil {
			t.Errorf("%s: expected error", tc.name)
		}
	}
}

func TestSignerValidate(t *testing.T) {
	if err := (Signer{PublicKey: "4Nd1mBQtrMJVYVfKf2PJy9NZUZdTAsp7D4xWLs4gDB4T"}).Validate(); err != nil {
		t.Errorf("wallet key should validate: %v", err)
	}

	if err := (Signer{PublicKey: ""}).Validate(); err == nil {
		t.Error("empty signer must fail")
	}
	if err := (Signer{PublicKey: "abc"}).Validate(); err == nil {
		t.Error("short signer must fail")
	}
}
