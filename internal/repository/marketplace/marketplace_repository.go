package marketplace

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/pobyzaarif/goshortcute"

	"marketRepricer/business/repricer"
	"marketRepricer/domain"
	"marketRepricer/pkg/logger"
	"marketRepricer/pkg/metrics"
)

type Config struct {
	BaseURL         string
	ProxyURL        string
	APIKeyEncrypted string
	EncryptionKey   string
	BasicAuthUser   string
}

type Repository struct {
	cfg    Config
	apiKey string
	client *http.Client
}

var _ repricer.MarketplaceClient = (*Repository)(nil)

// NewRepository decrypts the stored API key and builds the HTTP client,
// optionally routed through the configured forward proxy.
func NewRepository(cfg Config) (*Repository, error) {
	apiKey := ""
	if cfg.APIKeyEncrypted != "" {
		decoded := goshortcute.StringtoBase64Decode(cfg.APIKeyEncrypted)
		decrypted, err := goshortcute.AESCBCDecrypt([]byte(decoded), []byte(cfg.EncryptionKey))
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt marketplace api key: %w", err)
		}
		apiKey = decrypted
	}

	transport := http.DefaultTransport
	if cfg.ProxyURL != "" {
		proxyURL, err := url.Parse(cfg.ProxyURL)
		if err != nil {
			return nil, fmt.Errorf("invalid marketplace proxy url: %w", err)
		}
		transport = &http.Transport{Proxy: http.ProxyURL(proxyURL)}
	}

	return &Repository{
		cfg:    cfg,
		apiKey: apiKey,
		client: &http.Client{
			Timeout:   15 * time.Second,
			Transport: transport,
		},
	}, nil
}

type priceUpdate struct {
	MinQty   int    `json:"min_qty"`
	Price    string `json:"price"`
	Active   bool   `json:"active"`
	Comments string `json:"comments,omitempty"`
}

type pushPayload struct {
	VendorID  string        `json:"vendor_id"`
	ProductID string        `json:"product_id"`
	Prices    []priceUpdate `json:"prices"`
}

type rejectionBody struct {
	Message string `json:"message"`
	Errors  []struct {
		MinQty int    `json:"min_qty"`
		Reason string `json:"reason"`
	} `json:"errors"`
}

// PushPrices submits accepted decisions to the marketplace price API.
// A 422 means the marketplace rejected specific breaks; that is logged
// per-break and reported as an error so the product counts as failed.
func (r *Repository) PushPrices(ctx context.Context, vendorID, productID string, decisions []domain.RepriceDecision) error {
	if len(decisions) == 0 {
		return nil
	}

	updates := make([]priceUpdate, 0, len(decisions))
	for _, d := range decisions {
		updates = append(updates, priceUpdate{
			MinQty:   d.MinQty,
			Price:    d.NewPrice.String(),
			Active:   d.Active,
			Comments: d.Explained,
		})
	}

	payload := pushPayload{
		VendorID:  vendorID,
		ProductID: productID,
		Prices:    updates,
	}

	payloadByte, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal price payload: %w", err)
	}

	endpoint := r.cfg.BaseURL + "/v2/prices"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payloadByte))
	if err != nil {
		return err
	}

	buildBasicAuth := goshortcute.StringtoBase64Encode(r.cfg.BasicAuthUser + ":" + r.apiKey)
	req.Header.Add("Content-Type", "application/json")
	req.Header.Add("Authorization", "Basic "+buildBasicAuth)

	res, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach marketplace: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode >= 200 && res.StatusCode <= 299 {
		metrics.PricesPushedTotal.Add(float64(len(updates)))
		return nil
	}

	bodyBytes, _ := io.ReadAll(res.Body)

	if res.StatusCode == http.StatusUnprocessableEntity {
		var rejection rejectionBody
		if err := json.Unmarshal(bodyBytes, &rejection); err == nil {
			for _, e := range rejection.Errors {
				logger.Warn("Marketplace rejected price break",
					"product_id", productID,
					"vendor_id", vendorID,
					"min_qty", e.MinQty,
					"reason", e.Reason,
				)
			}
		}
		metrics.PushRejectionsTotal.WithLabelValues("422").Inc()
		return fmt.Errorf("marketplace rejected price update: %s", rejection.Message)
	}

	metrics.PushRejectionsTotal.WithLabelValues(fmt.Sprintf("%d", res.StatusCode)).Inc()
	logger.Error("Marketplace push failed",
		"product_id", productID,
		"status", res.StatusCode,
		"body", string(bodyBytes),
	)

	return fmt.Errorf("marketplace returned negative response %v", res.StatusCode)
}
