package meross

import (
	"bytes"
	"context"
	"crypto/md5"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	defaultEndpoint = "https://iotx.meross.com"

	signInPath  = "/v1/Auth/signIn"
	devListPath = "/v1/Device/devList"
	logOutPath  = "/v1/Profile/logOut"

	// Shared application secret used to sign API requests; baked into every
	// vendor client build.
	appSecret = "23x17ahWarFH6w29"
)

// HTTPClient is the real vendor adapter. It speaks the current signed-params
// HTTP dialect and accepts every login call shape, mapping each to the same
// sign-in request.
type HTTPClient struct {
	http     *http.Client
	endpoint string
}

func NewHTTPClient() *HTTPClient {
	return &HTTPClient{
		http:     &http.Client{Timeout: 30 * time.Second},
		endpoint: defaultEndpoint,
	}
}

func (c *HTTPClient) Login(ctx context.Context, opts LoginOptions) (Session, error) {
	return c.signIn(ctx, opts.Endpoint, opts.Email, opts.Password)
}

func (c *HTTPClient) LoginAt(ctx context.Context, endpoint, email, password string) (Session, error) {
	return c.signIn(ctx, endpoint, email, password)
}

func (c *HTTPClient) LoginBasic(ctx context.Context, email, password string) (Session, error) {
	return c.signIn(ctx, "", email, password)
}

// apiEnvelope is the outer shape of every vendor HTTP response.
type apiEnvelope struct {
	APIStatus int             `json:"apiStatus"`
	Info      string          `json:"info"`
	Data      json.RawMessage `json:"data"`
}

type cloudCredential struct {
	Token      string `json:"token"`
	Key        string `json:"key"`
	UserID     string `json:"userid"`
	Email      string `json:"email"`
	Domain     string `json:"domain"`
	Region     string `json:"region"`
	MQTTDomain string `json:"mqttDomain"`
	MQTTPort   int    `json:"mqttPort"`
}

func (c *HTTPClient) signIn(ctx context.Context, endpoint, email, password string) (Session, error) {
	if endpoint == "" {
		endpoint = c.endpoint
	}

	// The vendor never sees the raw password, only its MD5 digest.
	digest := md5.Sum([]byte(password))
	data, err := c.call(ctx, endpoint, signInPath, "", map[string]any{
		"email":    email,
		"password": hex.EncodeToString(digest[:]),
	})
	if err != nil {
		return nil, err
	}

	var creds cloudCredential
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("%w: sign-in data: %v", ErrMalformedResponse, err)
	}
	if creds.Token == "" {
		return nil, fmt.Errorf("%w: sign-in data carries no token", ErrMalformedResponse)
	}

	return &httpSession{client: c, endpoint: endpoint, creds: creds}, nil
}

// call performs one signed request and unwraps the envelope. Envelope-level
// problems are malformed responses; transport and API rejections are plain
// errors.
func (c *HTTPClient) call(ctx context.Context, endpoint, path, token string, params map[string]any) (json.RawMessage, error) {
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal params: %w", err)
	}
	encoded := base64.StdEncoding.EncodeToString(paramsJSON)

	nonce, err := randomNonce()
	if err != nil {
		return nil, err
	}
	timestamp := time.Now().UnixMilli()
	sign := md5.Sum([]byte(fmt.Sprintf("%s%d%s%s", appSecret, timestamp, nonce, encoded)))

	body, err := json.Marshal(map[string]any{
		"params":    encoded,
		"sign":      hex.EncodeToString(sign[:]),
		"timestamp": timestamp,
		"nonce":     nonce,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Basic "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("vendor request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read vendor response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("vendor returned HTTP %d", resp.StatusCode)
	}

	var envelope apiEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if envelope.APIStatus != 0 {
		return nil, fmt.Errorf("vendor rejected request (code %d)", envelope.APIStatus)
	}
	if len(envelope.Data) == 0 {
		return nil, fmt.Errorf("%w: envelope carries no data", ErrMalformedResponse)
	}
	return envelope.Data, nil
}

func randomNonce() (string, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// httpSession is the live session produced by HTTPClient.
type httpSession struct {
	client   *HTTPClient
	endpoint string
	creds    cloudCredential
}

var _ CredentialProvider = (*httpSession)(nil)

func (s *httpSession) ListDevices(ctx context.Context) ([]any, error) {
	data, err := s.client.call(ctx, s.endpoint, devListPath, s.creds.Token, map[string]any{})
	if err != nil {
		return nil, err
	}

	var devices []any
	if err := json.Unmarshal(data, &devices); err != nil {
		return nil, fmt.Errorf("%w: device list: %v", ErrMalformedResponse, err)
	}
	return devices, nil
}

func (s *httpSession) Logout(ctx context.Context) error {
	if s.creds.Token == "" {
		return nil
	}
	_, err := s.client.call(ctx, s.endpoint, logOutPath, s.creds.Token, map[string]any{})
	if err != nil {
		return err
	}
	s.creds.Token = ""
	return nil
}

func (s *httpSession) Close(ctx context.Context) error {
	s.client.http.CloseIdleConnections()
	return nil
}

func (s *httpSession) CredentialFields() map[string]any {
	fields := make(map[string]any)
	put := func(key, value string) {
		if value != "" {
			fields[key] = value
		}
	}
	put("token", s.creds.Token)
	put("key", s.creds.Key)
	put("userid", s.creds.UserID)
	put("email", s.creds.Email)
	put("domain", s.creds.Domain)
	put("region", s.creds.Region)
	put("mqttDomain", s.creds.MQTTDomain)
	if s.creds.MQTTPort != 0 {
		fields["mqttPort"] = s.creds.MQTTPort
	}
	return fields
}
