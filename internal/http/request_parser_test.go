package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestRequestBodyParser_JSON(t *testing.T) {
	body := `{"id": "123", "name": "test", "amount": 42.50, "quantity": 3}`
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	parser := NewRequestBodyParser(req)
	err := parser.Parse()
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if !parser.IsJSON() {
		t.Error("Expected IsJSON() to be true")
	}

	if id := parser.Get("id"); id != "123" {
		t.Errorf("Get('id') = %q, want '123'", id)
	}

	if name := parser.Get("name"); name != "test" {
		t.Errorf("Get('name') = %q, want 'test'", name)
	}

	// Numbers keep the digits as sent.
	if amount := parser.Get("amount"); amount != "42.50" {
		t.Errorf("Get('amount') = %q, want '42.50'", amount)
	}

	if qty := parser.Get("quantity"); qty != "3" {
		t.Errorf("Get('quantity') = %q, want '3'", qty)
	}

	if missing := parser.Get("missing"); missing != "" {
		t.Errorf("Get('missing') = %q, want empty", missing)
	}
}

func TestRequestBodyParser_JSONExponentNumbers(t *testing.T) {
	body := `{"amount": 1e3, "price": 1.25E1, "quantity": 2e0}`
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	parser := NewRequestBodyParser(req)
	if err := parser.Parse(); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	want := map[string]string{"amount": "1000", "price": "12.5", "quantity": "2"}
	for field, value := range want {
		if got := parser.Get(field); got != value {
			t.Errorf("Get(%q) = %q, want %q", field, got, value)
		}
	}
}

func TestRequestBodyParser_FormData(t *testing.T) {
	body := "id=456&name=form+test&value=100"
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	parser := NewRequestBodyParser(req)
	err := parser.Parse()
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if parser.IsJSON() {
		t.Error("Expected IsJSON() to be false for form data")
	}

	if id := parser.Get("id"); id != "456" {
		t.Errorf("Get('id') = %q, want '456'", id)
	}

	if name := parser.Get("name"); name != "form test" {
		t.Errorf("Get('name') = %q, want 'form test'", name)
	}
}

func TestRequestBodyParser_EmptyBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(""))

	parser := NewRequestBodyParser(req)
	err := parser.Parse()
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if val := parser.Get("nonexistent"); val != "" {
		t.Errorf("Get('nonexistent') = %q, want empty string", val)
	}
}

func TestRequestBodyParser_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"truncated json", `{"id": `},
		{"oversized body", "id=" + strings.Repeat("x", maxBodyBytes)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(tt.body))
			parser := NewRequestBodyParser(req)
			if err := parser.Parse(); err == nil {
				t.Error("Parse() error = nil, want error")
			}
			// Parse is memoised.
			if err := parser.Parse(); err == nil {
				t.Error("second Parse() error = nil, want error")
			}
		})
	}
}

func TestRequestBodyParser_SanitizesValues(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(`{"description": "  pote\u0000 500g\t "}`))

	parser := NewRequestBodyParser(req)
	if err := parser.Parse(); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got := parser.Get("description"); got != "pote 500g" {
		t.Errorf("Get('description') = %q, want 'pote 500g'", got)
	}
}

func TestParseDateValue(t *testing.T) {
	now := time.Date(2026, 10, 18, 23, 15, 0, 0, time.UTC)

	tests := []struct {
		name    string
		value   string
		want    string
		wantErr bool
	}{
		{"empty is today", "", "2026-10-18", false},
		{"calendar date", "2026-01-05", "2026-01-05", false},
		{"timestamp", "2026-03-04T10:00:00Z", "2026-03-04", false},
		{"wrong layout", "05/01/2026", "", true},
		{"garbage", "yesterday", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseDateValue(tt.value, now)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseDateValue(%q) error = %v, wantErr %v", tt.value, err, tt.wantErr)
			}
			if !tt.wantErr && got.String() != tt.want {
				t.Errorf("parseDateValue(%q) = %s, want %s", tt.value, got, tt.want)
			}
		})
	}
}

func TestParseSaleDate(t *testing.T) {
	got, err := parseSaleDate("")
	if err != nil || !got.IsZero() {
		t.Errorf("parseSaleDate(\"\") = %v, %v; want zero time", got, err)
	}

	got, err = parseSaleDate("2026-10-17")
	if err != nil {
		t.Fatalf("parseSaleDate: %v", err)
	}
	if want := time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("parseSaleDate = %v, want %v", got, want)
	}

	got, err = parseSaleDate("2026-10-17T14:05:00-03:00")
	if err != nil {
		t.Fatalf("parseSaleDate: %v", err)
	}
	if want := time.Date(2026, 10, 17, 17, 5, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("parseSaleDate = %v, want %v", got, want)
	}

	if _, err := parseSaleDate("soon"); err == nil {
		t.Error("parseSaleDate(\"soon\") error = nil, want error")
	}
}

func TestSanitizeInput(t *testing.T) {
	if got := sanitizeInput(" a\x01b\nc "); got != "ab\nc" {
		t.Errorf("sanitizeInput = %q", got)
	}
	if got := firstNonEmpty("", "x", "y"); got != "x" {
		t.Errorf("firstNonEmpty = %q", got)
	}
}
