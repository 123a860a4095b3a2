// Package attester fetches signed guardian messages for wormhole emitters.
package attester

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mayanlabs/swap-watcher/chain"
	"github.com/mayanlabs/swap-watcher/gerror"
	"github.com/mayanlabs/swap-watcher/log"
	"github.com/mayanlabs/swap-watcher/metrics"
	"github.com/pkg/errors"
)

// Config is the attestation api configuration.
type Config struct {
	// URL is the guardian api base, e.g. "https://api.wormholescan.io".
	URL string `mapstructure:"URL"`
}

// Client fetches signed messages from the guardian api.
type Client struct {
	url  string
	http *http.Client
}

// NewClient creates an attestation client.
func NewClient(cfg Config) *Client {
	return &Client{url: cfg.URL, http: &http.Client{}}
}

type signedVaaResponse struct {
	VaaBytes string `json:"vaaBytes"`
}

// GetSignedMessage fetches the signed message of an emitter and sequence.
// Messages the guardians have not signed yet come back as
// ErrDataUnavailable.
func (c *Client) GetSignedMessage(ctx context.Context, emitterChain chain.ID, emitterAddr chain.Address, sequence int64) ([]byte, error) {
	start := time.Now()
	url := fmt.Sprintf("%s/v1/signed_vaa/%d/%s/%d", c.url, emitterChain, hex.EncodeToString(emitterAddr[:]), sequence)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "fetching signed message")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode == http.StatusNotFound {
		return nil, errors.Wrapf(gerror.ErrDataUnavailable, "%s/%d not signed yet", emitterChain.Name(), sequence)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		log.Warnf("guardian api returned %d: %s", resp.StatusCode, string(body))
		return nil, errors.Errorf("guardian api status %d", resp.StatusCode)
	}

	var parsed signedVaaResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, errors.Wrap(err, "decoding signed message response")
	}
	raw, err := base64.StdEncoding.DecodeString(parsed.VaaBytes)
	if err != nil {
		return nil, errors.Wrap(gerror.ErrDecode, err.Error())
	}
	if len(raw) == 0 {
		return nil, errors.Wrapf(gerror.ErrDataUnavailable, "%s/%d empty message", emitterChain.Name(), sequence)
	}
	metrics.RecordAttestationLatency(emitterChain.Name(), time.Since(start))
	return raw, nil
}
