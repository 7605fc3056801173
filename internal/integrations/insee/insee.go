package insee

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var ErrNoObservation = errors.New("no index observation found")

// IndexValue is one published value of a reference index.
type IndexValue struct {
	Period string
	Value  decimal.Decimal
}

type Config struct {
	FeedURL string
	Timeout time.Duration
}

// Client reads the rent reference index series published as SDMX XML.
type Client struct {
	url    string
	client *http.Client
	log    *logrus.Logger
}

func NewClient(cfg Config, log *logrus.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		url:    cfg.FeedURL,
		client: &http.Client{Timeout: timeout},
		log:    log,
	}
}

func (c *Client) fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/xml")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	c.log.Debugf("index feed returned %d bytes", len(body))
	return body, nil
}

// parseSeries returns the observation with the most recent TIME_PERIOD.
// Periods are compared as strings, which orders "2024-Q1" style values.
func parseSeries(raw []byte) (IndexValue, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(raw); err != nil {
		return IndexValue{}, fmt.Errorf("failed to parse XML: %w", err)
	}

	var (
		latest IndexValue
		found  bool
	)
	for _, obs := range doc.FindElements("//Obs") {
		period := obs.SelectAttrValue("TIME_PERIOD", "")
		text := obs.SelectAttrValue("OBS_VALUE", "")
		if period == "" || text == "" {
			continue
		}
		value, err := decimal.NewFromString(text)
		if err != nil {
			return IndexValue{}, fmt.Errorf("observation %s: %w", period, err)
		}
		if !found || period > latest.Period {
			latest = IndexValue{Period: period, Value: value}
			found = true
		}
	}
	if !found {
		return IndexValue{}, ErrNoObservation
	}
	return latest, nil
}

// LatestIndex fetches the series and returns its most recent value.
func (c *Client) LatestIndex(ctx context.Context) (IndexValue, error) {
	if c.url == "" {
		return IndexValue{}, errors.New("index feed url is not configured")
	}
	body, err := c.fetch(ctx)
	if err != nil {
		return IndexValue{}, err
	}
	v, err := parseSeries(body)
	if err != nil {
		return IndexValue{}, err
	}
	c.log.WithFields(logrus.Fields{"period": v.Period, "value": v.Value.String()}).Info("retrieved reference index")
	return v, nil
}
