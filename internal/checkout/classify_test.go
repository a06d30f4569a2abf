package checkout

import (
	"encoding/json"
	"testing"
)

func boolPtr(b bool) *bool { return &b }

func TestClassify(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name        string
		result      *PaymentResult
		hasRedirect bool
		pageText    string
		want        Class
	}{
		{"empty result with redirect is navigation", &PaymentResult{}, true, "", ClassNavigating},
		{"nil result with redirect is navigation", nil, true, "", ClassNavigating},
		{"nil result without redirect is unknown", nil, false, "", ClassUnknown},
		{"empty result without redirect is unknown", &PaymentResult{}, false, "", ClassUnknown},

		{"approved flag", &PaymentResult{Approved: boolPtr(true)}, false, "", ClassApproved},
		{"approved flag beats denied status", &PaymentResult{Approved: boolPtr(true), Status: "denied"}, false, "", ClassApproved},
		{"redirect url in result", &PaymentResult{RedirectURL: "https://x/r"}, false, "", ClassApproved},
		{"approved status", &PaymentResult{Status: "APPROVED"}, false, "", ClassApproved},
		{"authorized status", &PaymentResult{Status: "authorized"}, false, "", ClassApproved},
		{"result field spelling", &PaymentResult{Result: "success"}, false, "", ClassApproved},

		{"denied status", &PaymentResult{Status: "denied"}, false, "", ClassRejected},
		{"declined status", &PaymentResult{Status: "Declined"}, false, "", ClassRejected},
		{"cancelled status", &PaymentResult{Status: "cancelled"}, false, "", ClassRejected},
		{"approved=false with rejected status", &PaymentResult{Approved: boolPtr(false), Status: "failed"}, false, "", ClassRejected},

		{"timeout status", &PaymentResult{Status: "timeout"}, false, "", ClassTimedOut},

		{"cvv marker in message", &PaymentResult{Message: "CVV is required"}, false, "", ClassValidationFailed},
		{"spanish marker in page text", &PaymentResult{Status: "???"}, false, "Número de tarjeta inválido", ClassValidationFailed},
		{"marker in payload", &PaymentResult{Payload: json.RawMessage(`{"error":"expiry invalid"}`)}, false, "", ClassValidationFailed},

		{"unrecognized status", &PaymentResult{Status: "processing-ish"}, false, "", ClassUnknown},
	}

	for _, tc := range cases {
		if got := Classify(tc.result, tc.hasRedirect, tc.pageText); got != tc.want {
			t.Errorf("%s: got %s, want %s", tc.name, got, tc.want)
		}
	}
}

func TestDetectBrand(t *testing.T) {
	t.Parallel()

	cases := []struct {
		pan  string
		want string
	}{
		{"", ""},
		{"4", ""},
		{"4111111", "visa"},
		{"4111 1111 1111 1111", "visa"},
		{"5111111111111111", "mastercard"},
		{"5511 11", "mastercard"},
		{"2221000000000009", "mastercard"},
		{"3711111", "amex"},
		{"341111111111111", "amex"},
		{"6011000000000004", ""},
		{"9999999", ""},
	}

	for _, tc := range cases {
		if got := DetectBrand(tc.pan); got != tc.want {
			t.Errorf("DetectBrand(%q) = %q, want %q", tc.pan, got, tc.want)
		}
	}
}
