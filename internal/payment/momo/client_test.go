package momo

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/isoko-rw/marketplace-backend/internal/cache"
	"github.com/isoko-rw/marketplace-backend/internal/config"
)

// newSandbox fakes the collections API: token exchange, request-to-pay and
// status polling. It counts token exchanges so tests can assert caching.
func newSandbox(t *testing.T, tokenCalls *int) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("/collection/token/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != "api-user" || pass != "api-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.Header.Get("Ocp-Apim-Subscription-Key") != "sub-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		*tokenCalls++
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "bearer-token",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	})

	mux.HandleFunc("/collection/v1_0/requesttopay", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer bearer-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.Header.Get("X-Reference-Id") == "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if r.Header.Get("X-Target-Environment") != "sandbox" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		var body struct {
			Amount     string `json:"amount"`
			Currency   string `json:"currency"`
			ExternalID string `json:"externalId"`
			Payer      struct {
				PartyIDType string `json:"partyIdType"`
				PartyID     string `json:"partyId"`
			} `json:"payer"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if body.Payer.PartyIDType != "MSISDN" || body.Payer.PartyID == "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	})

	mux.HandleFunc("/collection/v1_0/requesttopay/", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer bearer-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{
			"status":                 "SUCCESSFUL",
			"financialTransactionId": "fin-123",
		})
	})

	return httptest.NewServer(mux)
}

func newTestClient(baseURL string) *Client {
	return NewClient(config.MomoConfig{
		BaseURL:         baseURL,
		SubscriptionKey: "sub-key",
		APIUser:         "api-user",
		APIKey:          "api-key",
		TargetEnv:       "sandbox",
	}, cache.NewMemoryCache())
}

func TestRequestToPay(t *testing.T) {
	tokenCalls := 0
	srv := newSandbox(t, &tokenCalls)
	defer srv.Close()

	client := newTestClient(srv.URL)
	err := client.RequestToPay(context.Background(), "ref-1", 4000, "RWF", "250780000001")
	if err != nil {
		t.Fatalf("request-to-pay failed: %v", err)
	}
	if tokenCalls != 1 {
		t.Fatalf("expected 1 token exchange, got %d", tokenCalls)
	}
}

func TestAccessTokenCached(t *testing.T) {
	tokenCalls := 0
	srv := newSandbox(t, &tokenCalls)
	defer srv.Close()

	client := newTestClient(srv.URL)
	if err := client.RequestToPay(context.Background(), "ref-1", 100, "RWF", "250780000001"); err != nil {
		t.Fatalf("first call failed: %v", err)
	}
	if _, err := client.GetTransactionStatus(context.Background(), "ref-1"); err != nil {
		t.Fatalf("status call failed: %v", err)
	}
	if tokenCalls != 1 {
		t.Fatalf("expected cached token to be reused, got %d exchanges", tokenCalls)
	}
}

func TestGetTransactionStatus(t *testing.T) {
	tokenCalls := 0
	srv := newSandbox(t, &tokenCalls)
	defer srv.Close()

	client := newTestClient(srv.URL)
	res, err := client.GetTransactionStatus(context.Background(), "ref-1")
	if err != nil {
		t.Fatalf("status check failed: %v", err)
	}
	if res.Status != "SUCCESSFUL" || res.FinancialTransactionID != "fin-123" {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestRequestToPay_NonAcceptedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/collection/token/" {
			_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "bearer-token", "expires_in": 3600})
			return
		}
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"message":"duplicate reference id"}`))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	err := client.RequestToPay(context.Background(), "ref-1", 100, "RWF", "250780000001")
	if err == nil {
		t.Fatal("expected an error for a non-202 response")
	}
}
