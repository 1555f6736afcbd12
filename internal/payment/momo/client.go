// Package momo implements the MTN MoMo collections API: token exchange,
// request-to-pay, and transaction status checks.
package momo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/isoko-rw/marketplace-backend/internal/cache"
	"github.com/isoko-rw/marketplace-backend/internal/config"
	"github.com/isoko-rw/marketplace-backend/internal/payment"
)

const tokenCacheKey = "momo:access-token"

type Client struct {
	cfg    config.MomoConfig
	client *http.Client
	tokens cache.Cache
}

func NewClient(cfg config.MomoConfig, tokens cache.Cache) *Client {
	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: 30 * time.Second},
		tokens: tokens,
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// accessToken returns a cached bearer token or performs the token exchange.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	if tok, err := c.tokens.Get(ctx, tokenCacheKey); err == nil && tok != "" {
		return tok, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/collection/token/", nil)
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(c.cfg.APIUser, c.cfg.APIKey)
	req.Header.Set("Ocp-Apim-Subscription-Key", c.cfg.SubscriptionKey)

	res, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(res.Body)
		return "", fmt.Errorf("momo token exchange returned %d: %s", res.StatusCode, string(body))
	}

	var tr tokenResponse
	if err := json.NewDecoder(res.Body).Decode(&tr); err != nil {
		return "", err
	}

	// refresh one minute before the provider expires it
	ttl := time.Duration(tr.ExpiresIn) * time.Second
	if ttl > time.Minute {
		ttl -= time.Minute
	}
	// a cold cache only costs an extra token exchange
	_ = c.tokens.Set(ctx, tokenCacheKey, tr.AccessToken, ttl)
	return tr.AccessToken, nil
}

type requestToPayBody struct {
	Amount       string     `json:"amount"`
	Currency     string     `json:"currency"`
	ExternalID   string     `json:"externalId"`
	Payer        payerParty `json:"payer"`
	PayerMessage string     `json:"payerMessage"`
	PayeeNote    string     `json:"payeeNote"`
}

type payerParty struct {
	PartyIDType string `json:"partyIdType"`
	PartyID     string `json:"partyId"`
}

// RequestToPay starts a charge. referenceID is our uuid correlation key,
// passed as X-Reference-Id; the provider keys every later status report on it.
func (c *Client) RequestToPay(ctx context.Context, referenceID string, amount float64, currency, phone string) error {
	token, err := c.accessToken(ctx)
	if err != nil {
		return err
	}

	body := requestToPayBody{
		Amount:     strconv.FormatFloat(amount, 'f', -1, 64),
		Currency:   currency,
		ExternalID: referenceID,
		Payer: payerParty{
			PartyIDType: "MSISDN",
			PartyID:     phone,
		},
		PayerMessage: "Isoko order payment",
		PayeeNote:    "Isoko marketplace",
	}
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/collection/v1_0/requesttopay", bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-Reference-Id", referenceID)
	req.Header.Set("X-Target-Environment", c.cfg.TargetEnv)
	req.Header.Set("Ocp-Apim-Subscription-Key", c.cfg.SubscriptionKey)
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.CallbackURL != "" {
		req.Header.Set("X-Callback-Url", c.cfg.CallbackURL)
	}

	res, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusAccepted {
		payload, _ := io.ReadAll(res.Body)
		return fmt.Errorf("momo request-to-pay returned %d: %s", res.StatusCode, string(payload))
	}
	return nil
}

type statusResponse struct {
	Status                 string `json:"status"`
	FinancialTransactionID string `json:"financialTransactionId"`
	Reason                 string `json:"reason"`
}

// GetTransactionStatus polls a request-to-pay by its reference id.
func (c *Client) GetTransactionStatus(ctx context.Context, referenceID string) (payment.ProviderResult, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return payment.ProviderResult{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/collection/v1_0/requesttopay/"+referenceID, nil)
	if err != nil {
		return payment.ProviderResult{}, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-Target-Environment", c.cfg.TargetEnv)
	req.Header.Set("Ocp-Apim-Subscription-Key", c.cfg.SubscriptionKey)

	res, err := c.client.Do(req)
	if err != nil {
		return payment.ProviderResult{}, err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(res.Body)
		return payment.ProviderResult{}, fmt.Errorf("momo status check returned %d: %s", res.StatusCode, string(payload))
	}

	var sr statusResponse
	if err := json.NewDecoder(res.Body).Decode(&sr); err != nil {
		return payment.ProviderResult{}, err
	}
	return payment.ProviderResult{
		Status:                 sr.Status,
		FinancialTransactionID: sr.FinancialTransactionID,
		Reason:                 sr.Reason,
	}, nil
}
