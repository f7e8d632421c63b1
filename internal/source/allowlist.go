package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/mealscan/entitled/internal/model"
)

// allowlistRequest is the JSON body of the remote allow-list callable.
type allowlistRequest struct {
	Email     string `json:"email"`
	Timestamp int64  `json:"timestamp"` // unix ms
}

// allowlistResponse is the callable's reply. Absent or malformed fields
// decode to zero values and are treated as "not a beta tester".
type allowlistResponse struct {
	IsBetaTester bool   `json:"isBetaTester"`
	BetaProgram  string `json:"betaProgram"`
}

// Allowlist queries the remote allow-list over HTTPS.
type Allowlist struct {
	url    string
	client *http.Client
	now    func() time.Time
}

// NewAllowlist constructs the allow-list source. timeout bounds each call;
// if zero, 5s is used.
func NewAllowlist(url string, timeout time.Duration) *Allowlist {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Allowlist{
		url:    url,
		client: &http.Client{Timeout: timeout},
		now:    time.Now,
	}
}

func (s *Allowlist) Name() string { return "allowlist" }

// Check posts {email, timestamp} and confirms only on
// {isBetaTester:true, betaProgram:"internal_testing"}.
// Users without an email are never on the allow-list.
func (s *Allowlist) Check(ctx context.Context, id model.Identity) (Verdict, error) {
	if id.Email == "" {
		return NotConfirmed, nil
	}
	body, err := json.Marshal(allowlistRequest{Email: id.Email, Timestamp: s.now().UnixMilli()})
	if err != nil {
		return Unavailable, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return Unavailable, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return Unavailable, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Unavailable, fmt.Errorf("allowlist: status %d", resp.StatusCode)
	}

	var out allowlistResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		// Malformed reply is "not confirmed", not an outage.
		return NotConfirmed, nil
	}
	if out.IsBetaTester && out.BetaProgram == ProgramInternalTesting {
		return Confirmed, nil
	}
	return NotConfirmed, nil
}

var _ Source = (*Allowlist)(nil)
