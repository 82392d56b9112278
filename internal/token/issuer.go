package token

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// learnerTokenPath is appended to the tenant host.
const learnerTokenPath = "/oauth/o/learnerToken"

// DefaultExpiryBuffer is subtracted from the remote expiry so tokens are refreshed early.
const DefaultExpiryBuffer = time.Hour

var (
	ErrMalformedResponse = errors.New("token: malformed issuer response")
	ErrIssuerStatus      = errors.New("token: issuer returned non-success status")

	errExpiredOnArrival = errors.New("token: issued token already expired")
)

// Credentials identify a tenant to the learner-token endpoint.
type Credentials struct {
	HostName     string
	ClientID     string
	ClientSecret string
	RefreshToken string
}

type IssuerOptions struct {
	Client *http.Client
	Now    func() time.Time
	Buffer time.Duration
}

type Issuer struct {
	client *http.Client
	now    func() time.Time
	buffer time.Duration
	log    *zap.SugaredLogger
}

func NewIssuer(log *zap.SugaredLogger, opts IssuerOptions) *Issuer {
	i := &Issuer{client: opts.Client, now: opts.Now, buffer: opts.Buffer, log: log}
	if i.client == nil {
		i.client = &http.Client{Timeout: 10 * time.Second}
	}
	if i.now == nil {
		i.now = time.Now
	}
	if i.buffer <= 0 {
		i.buffer = DefaultExpiryBuffer
	}
	return i
}

type issueRequest struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	RefreshToken string `json:"refresh_token"`
}

// Issue mints a learner access token for email.
func (i *Issuer) Issue(ctx context.Context, c Credentials, email string, force bool) (Token, error) {
	u := strings.TrimRight(c.HostName, "/") + learnerTokenPath +
		"?learner_email=" + url.QueryEscape(email) + "&force=" + strconv.FormatBool(force)
	body, err := json.Marshal(issueRequest{ClientID: c.ClientID, ClientSecret: c.ClientSecret, RefreshToken: c.RefreshToken})
	if err != nil {
		return Token{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return Token{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	i.log.Debugw("requesting learner token", "host", c.HostName, "force", force)
	resp, err := i.client.Do(req)
	if err != nil {
		return Token{}, fmt.Errorf("token: issue: %w", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Token{}, fmt.Errorf("token: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Token{}, fmt.Errorf("%w: %d", ErrIssuerStatus, resp.StatusCode)
	}
	return i.parse(raw)
}

// parse reads {access_token, expires_in}; expires_in may be a number or a quoted number.
func (i *Issuer) parse(raw []byte) (Token, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return Token{}, fmt.Errorf("%w: empty body", ErrMalformedResponse)
	}
	var doc struct {
		AccessToken *string      `json:"access_token"`
		ExpiresIn   *json.Number `json:"expires_in"`
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return Token{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if doc.AccessToken == nil || doc.ExpiresIn == nil {
		return Token{}, fmt.Errorf("%w: missing access_token or expires_in", ErrMalformedResponse)
	}
	secs, err := doc.ExpiresIn.Int64()
	if err != nil {
		f, ferr := doc.ExpiresIn.Float64()
		if ferr != nil {
			return Token{}, fmt.Errorf("%w: expires_in %q", ErrMalformedResponse, doc.ExpiresIn.String())
		}
		secs = int64(f)
	}
	return Token{
		AccessToken:     *doc.AccessToken,
		ExpiresAtMillis: secs*1000 + i.now().UnixMilli() - i.buffer.Milliseconds(),
	}, nil
}
