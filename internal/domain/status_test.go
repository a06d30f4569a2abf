package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestNormalizeGatewayStatus(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name        string
		code        string
		status      string
		description string
		want        TransactionStatus
	}{
		{"code 1 wins", "1", "", "", StatusApproved},
		{"code 1 beats denied status", "1", "denied", "", StatusApproved},
		{"approved status", "", "approved", "", StatusApproved},
		{"success status uppercase", "", "SUCCESS", "", StatusApproved},
		{"captured status", "", "captured", "", StatusApproved},
		{"spanish approved description", "", "", "Transaccion aprobada", StatusApproved},
		{"exitosa description", "", "", "Operacion exitosa", StatusApproved},
		{"pending status", "", "pending", "", StatusPending},
		{"review status", "", "review", "", StatusPending},
		{"spanish pending description", "", "", "Transaccion pendiente de revision", StatusPending},
		{"denied status", "51", "denied", "Fondos insuficientes", StatusRejected},
		{"unknown everything", "99", "weird", "???", StatusRejected},
		{"all empty", "", "", "", StatusRejected},
		{"approved description beats pending status", "", "pending", "approved by issuer", StatusApproved},
		{"whitespace code", " 1 ", "", "", StatusApproved},
	}

	for _, tc := range cases {
		if got := NormalizeGatewayStatus(tc.code, tc.status, tc.description); got != tc.want {
			t.Errorf("%s: NormalizeGatewayStatus(%q, %q, %q) = %s, want %s",
				tc.name, tc.code, tc.status, tc.description, got, tc.want)
		}
	}
}

func TestParseStatus(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want TransactionStatus
	}{
		{"aprobado", StatusApproved},
		{" APROBADO ", StatusApproved},
		{"pendiente", StatusPending},
		{"rechazado", StatusRejected},
		{"anything else", StatusRejected},
		{"", StatusRejected},
	}

	for _, tc := range cases {
		if got := ParseStatus(tc.in); got != tc.want {
			t.Errorf("ParseStatus(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestWireAmount(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   decimal.Decimal
		want string
	}{
		{decimal.NewFromFloat(1500.5), "1500.50"},
		{decimal.NewFromInt(2000), "2000.00"},
		{decimal.NewFromFloat(0.1), "0.10"},
		{decimal.RequireFromString("1234.567"), "1234.57"},
		{decimal.RequireFromString("99999999.999"), "100000000.00"},
	}

	for _, tc := range cases {
		if got := WireAmount(tc.in); got != tc.want {
			t.Errorf("WireAmount(%s) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestCustomerMerge(t *testing.T) {
	t.Parallel()

	existing := &Customer{
		NationalID: "1-1111-1111",
		FirstName:  "Ana",
		Email:      "ana@example.com",
	}
	existing.Merge(&Customer{LastName: "Rojas", Phone: "8888-0000"})

	if existing.FirstName != "Ana" || existing.Email != "ana@example.com" {
		t.Error("empty incoming fields cleared stored data")
	}
	if existing.LastName != "Rojas" || existing.Phone != "8888-0000" {
		t.Error("non-empty incoming fields not merged")
	}

	if got := existing.DisplayName(); got != "Ana Rojas" {
		t.Errorf("DisplayName() = %q, want %q", got, "Ana Rojas")
	}

	if got := (&Customer{FirstName: "Solo"}).DisplayName(); got != "Solo" {
		t.Errorf("DisplayName() = %q, want %q", got, "Solo")
	}
}
