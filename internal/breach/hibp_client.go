// Package breach implements the external breach-count oracle using the
// k-anonymity range API: only the first five characters of the password's
// SHA-1 digest leave the process.
package breach

import (
	"bufio"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

const rangePrefixLength = 5

// ErrOracleUnavailable wraps transport and non-200 failures from the range
// endpoint.
var ErrOracleUnavailable = errors.New("breach oracle unavailable")

// Client queries a HaveIBeenPwned-compatible range endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a breach oracle client against the given base URL
// (e.g. "https://api.pwnedpasswords.com").
func NewClient(baseURL string, logger *zap.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

// CheckPasswordExposure returns how many times the password appears in known
// breaches. Zero means not found. The plaintext never leaves the process;
// only a five-character digest prefix is sent.
func (c *Client) CheckPasswordExposure(ctx context.Context, password string) (int, error) {
	if password == "" {
		return 0, nil
	}

	sum := sha1.Sum([]byte(password))
	digest := strings.ToUpper(hex.EncodeToString(sum[:]))
	prefix := digest[:rangePrefixLength]
	suffix := digest[rangePrefixLength:]

	url := fmt.Sprintf("%s/range/%s", c.baseURL, prefix)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrOracleUnavailable, err)
	}
	req.Header.Set("Add-Padding", "true")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrOracleUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("Breach oracle returned non-200 status", zap.Int("status", resp.StatusCode))
		return 0, fmt.Errorf("%w: status %d", ErrOracleUnavailable, resp.StatusCode)
	}

	// Response lines are "SUFFIX:COUNT". Padded entries carry a zero count.
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 {
			continue
		}
		if strings.EqualFold(parts[0], suffix) {
			count, err := strconv.Atoi(strings.TrimSpace(parts[1]))
			if err != nil {
				return 0, fmt.Errorf("%w: malformed count %q", ErrOracleUnavailable, parts[1])
			}
			return count, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrOracleUnavailable, err)
	}

	return 0, nil
}
