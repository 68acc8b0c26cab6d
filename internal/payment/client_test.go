package payment

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClient_CreateIntent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/v1/payment_intents" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk_test_123" {
			t.Errorf("unexpected Authorization header %q", got)
		}

		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		if got := r.PostForm.Get("amount"); got != "10000" {
			t.Errorf("expected amount scaled to minor units (10000), got %s", got)
		}
		if got := r.PostForm.Get("currency"); got != "usd" {
			t.Errorf("expected currency usd, got %s", got)
		}
		if got := r.PostForm.Get("payment_method_types[]"); got != "card" {
			t.Errorf("expected payment_method_types[] card, got %s", got)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"pi_123","client_secret":"pi_123_secret_456"}`))
	}))
	defer server.Close()

	client := NewClientWithBaseURL("sk_test_123", server.URL)

	intent, err := client.CreateIntent(context.Background(), 100)
	if err != nil {
		t.Fatalf("CreateIntent failed: %v", err)
	}

	if intent.ClientSecret != "pi_123_secret_456" {
		t.Errorf("unexpected client secret %q", intent.ClientSecret)
	}
}

func TestClient_CreateIntent_ProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		w.Write([]byte(`{"error":{"type":"card_error","message":"Your card was declined."}}`))
	}))
	defer server.Close()

	client := NewClientWithBaseURL("sk_test_123", server.URL)

	_, err := client.CreateIntent(context.Background(), 100)
	if !errors.Is(err, ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
}

func TestClient_CreateIntent_MissingClientSecret(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"pi_123"}`))
	}))
	defer server.Close()

	client := NewClientWithBaseURL("sk_test_123", server.URL)

	_, err := client.CreateIntent(context.Background(), 100)
	if !errors.Is(err, ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
}

func TestClient_CreateIntent_Unreachable(t *testing.T) {
	client := NewClientWithBaseURL("sk_test_123", "http://127.0.0.1:1")

	_, err := client.CreateIntent(context.Background(), 100)
	if !errors.Is(err, ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
}
