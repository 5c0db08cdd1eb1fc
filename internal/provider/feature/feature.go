// Package feature implements the store interfaces against a hosted feature
// service's REST endpoints (query, addFeatures, updateFeatures).
package feature

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Config holds the feature-service endpoints and credentials.
type Config struct {
	// FacilityURL is the facility layer endpoint, e.g.
	// https://services.example.com/arcgis/rest/services/LTCF_Data/FeatureServer/0
	FacilityURL string `yaml:"facilityURL"`

	// SnapshotURL is the events-by-day table endpoint.
	SnapshotURL string `yaml:"snapshotURL"`

	// Token is the portal access token, if the layers are secured.
	Token string `yaml:"token,omitempty"`

	// TimeoutSeconds bounds each request; defaults to 60.
	TimeoutSeconds int `yaml:"timeoutSeconds,omitempty"`
}

// Provider talks to the hosted feature service.
type Provider struct {
	cfg    Config
	client *http.Client
}

// New creates a feature-service provider.
func New(cfg Config) (*Provider, error) {
	if cfg.FacilityURL == "" {
		return nil, fmt.Errorf("feature.facilityURL is required")
	}
	if cfg.SnapshotURL == "" {
		return nil, fmt.Errorf("feature.snapshotURL is required")
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Provider{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}, nil
}

// Ping issues a minimal query against the facility layer.
func (p *Provider) Ping(ctx context.Context) error {
	form := url.Values{
		"f":               {"json"},
		"where":           {"1=1"},
		"returnCountOnly": {"true"},
	}
	_, err := p.post(ctx, p.cfg.FacilityURL+"/query", form)
	return err
}

// feature is one wire entity: an attribute map plus optional point geometry.
type feature struct {
	Attributes map[string]interface{} `json:"attributes"`
	Geometry   *geometry              `json:"geometry,omitempty"`
}

type geometry struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type editResult struct {
	ObjectID int    `json:"objectId"`
	Success  bool   `json:"success"`
	Error    *struct {
		Code        int    `json:"code"`
		Description string `json:"description"`
	} `json:"error,omitempty"`
}

type serviceError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// post sends a form-encoded request and unwraps the service's error envelope.
// The service reports failures inside a 200 response, so the body is checked
// either way.
func (p *Provider) post(ctx context.Context, endpoint string, form url.Values) ([]byte, error) {
	if p.cfg.Token != "" {
		form.Set("token", p.cfg.Token)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("feature service request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading feature service response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feature service status %d: %s", resp.StatusCode, body)
	}

	var envelope struct {
		Error *serviceError `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error != nil {
		return nil, fmt.Errorf("feature service error %d: %s", envelope.Error.Code, envelope.Error.Message)
	}
	return body, nil
}

// query returns the full extent of a layer.
func (p *Provider) query(ctx context.Context, layerURL string, returnGeometry bool) ([]feature, error) {
	form := url.Values{
		"f":              {"json"},
		"where":          {"1=1"},
		"outFields":      {"*"},
		"returnGeometry": {fmt.Sprintf("%t", returnGeometry)},
	}
	body, err := p.post(ctx, layerURL+"/query", form)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Features []feature `json:"features"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decoding query response: %w", err)
	}
	return parsed.Features, nil
}

// applyEdits posts features to addFeatures or updateFeatures and verifies
// every per-feature result succeeded.
func (p *Provider) applyEdits(ctx context.Context, layerURL, op string, feats []feature) error {
	if len(feats) == 0 {
		return nil
	}
	payload, err := json.Marshal(feats)
	if err != nil {
		return fmt.Errorf("encoding features: %w", err)
	}

	form := url.Values{
		"f":        {"json"},
		"features": {string(payload)},
	}
	body, err := p.post(ctx, layerURL+"/"+op, form)
	if err != nil {
		return err
	}

	var parsed struct {
		AddResults    []editResult `json:"addResults"`
		UpdateResults []editResult `json:"updateResults"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return fmt.Errorf("decoding %s response: %w", op, err)
	}

	results := parsed.AddResults
	if op == "updateFeatures" {
		results = parsed.UpdateResults
	}
	for _, r := range results {
		if !r.Success {
			msg := "unknown error"
			if r.Error != nil {
				msg = r.Error.Description
			}
			return fmt.Errorf("%s rejected for objectId %d: %s", op, r.ObjectID, msg)
		}
	}
	return nil
}
