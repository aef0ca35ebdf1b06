// backend/src/services/bolt_api.go
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/username/fleetfolio/backend/src/logger"
	"golang.org/x/oauth2/clientcredentials"
)

// BoltAPIClient talks to the Bolt Fleet Integration gateway. Tokens come
// from the client-credentials flow and are refreshed transparently by the
// oauth2 transport.
type BoltAPIClient struct {
	httpClient *http.Client
	baseURL    string
}

// FleetOrder is one ride in a fleet orders report.
type FleetOrder struct {
	OrderReference string  `json:"order_reference"`
	DriverName     string  `json:"driver_name"`
	DriverUUID     string  `json:"driver_uuid"`
	PaymentMethod  string  `json:"payment_method"`
	OrderStatus    string  `json:"order_status"`
	RidePrice      float64 `json:"ride_price"`
}

// NewBoltAPIClient configures the OAuth2 client. Returns nil when the API
// credentials are not configured; callers treat a nil client as "integration
// disabled".
func NewBoltAPIClient(clientID, clientSecret, authURL, baseURL string) *BoltAPIClient {
	if clientID == "" || clientSecret == "" {
		logger.L.Info("Bolt API credentials not configured, fleet integration disabled")
		return nil
	}

	cc := clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     authURL,
		Scopes:       []string{"fleet-integration:api"},
	}

	httpClient := cc.Client(context.Background())
	httpClient.Timeout = 30 * time.Second

	return &BoltAPIClient{
		httpClient: httpClient,
		baseURL:    baseURL,
	}
}

// GetCompanyID fetches the first company the API credentials can see.
func (c *BoltAPIClient) GetCompanyID(ctx context.Context) (int64, error) {
	url := c.baseURL + "/fleetIntegration/v1/getCompanies"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("build getCompanies request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("fetch companies from Bolt API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("bolt API getCompanies returned status %d", resp.StatusCode)
	}

	var body struct {
		Data struct {
			CompanyIDs []int64 `json:"company_ids"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("decode getCompanies response: %w", err)
	}
	if len(body.Data.CompanyIDs) == 0 {
		return 0, fmt.Errorf("no companies available for these API credentials")
	}
	return body.Data.CompanyIDs[0], nil
}

// GetFleetOrdersForDay fetches all fleet rides for one calendar day (UTC).
func (c *BoltAPIClient) GetFleetOrdersForDay(ctx context.Context, day time.Time) ([]FleetOrder, error) {
	companyID, err := c.GetCompanyID(ctx)
	if err != nil {
		return nil, err
	}

	startOfDay := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	endOfDay := startOfDay.Add(24*time.Hour - time.Second)

	payload := map[string]interface{}{
		"company_id": companyID,
		"start_ts":   startOfDay.Unix(),
		"end_ts":     endOfDay.Unix(),
		"limit":      1000,
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode getFleetOrders payload: %w", err)
	}

	url := c.baseURL + "/fleetIntegration/v1/getFleetOrders"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("build getFleetOrders request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch fleet orders from Bolt API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bolt API getFleetOrders returned status %d", resp.StatusCode)
	}

	var body struct {
		Data struct {
			Orders []FleetOrder `json:"orders"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode getFleetOrders response: %w", err)
	}

	logger.L.Debug("Fetched fleet orders", "day", startOfDay.Format("2006-01-02"), "count", len(body.Data.Orders))
	return body.Data.Orders, nil
}
