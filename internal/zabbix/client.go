package zabbix

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io/ioutil"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"
)

const (
	endpointFile = "api_jsonrpc.php"
	contentType  = "application/json-rpc"

	methodVersion = "apiinfo.version"
	methodLogin   = "user.login"
	methodLogout  = "user.logout"
)

// SessionStore keeps auth tokens between invocations
type SessionStore interface {
	GetSession(key string) (string, error)
	PutSession(key, token string) error
	DeleteSession(key string) error
}

// Client talks JSON-RPC 2.0 to the Zabbix API.
// It is safe for concurrent use.
type Client struct {
	cfg      Config
	endpoint string
	http     *http.Client
	sessions SessionStore
	lastID   int64

	// guards token and tokenCached
	lock        sync.Mutex
	token       string
	tokenCached bool

	versionLock sync.Mutex
	version     *Version
}

// Option configures a Client
type Option func(*Client)

// WithTransport replaces the HTTP transport (used by tests and proxies)
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		c.http.Transport = rt
	}
}

// WithSessionStore caches login tokens in s
func WithSessionStore(s SessionStore) Option {
	return func(c *Client) {
		c.sessions = s
	}
}

type rpcRequest struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params"`
	ID      int64       `json:"id"`
	Auth    string      `json:"auth,omitempty"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result"`
	Error   *APIError       `json:"error"`
}

// NewClient creates a client for the API described by cfg
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	endpoint, err := Endpoint(cfg.URL, cfg.URLPath)
	if err != nil {
		return nil, err
	}
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	c := &Client{
		cfg:      cfg,
		endpoint: endpoint,
		http: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy:           http.ProxyFromEnvironment,
				TLSClientConfig: &tls.Config{InsecureSkipVerify: !cfg.ValidateCerts},
			},
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Endpoint builds the api_jsonrpc.php URL from the server URL and the web UI path
// example: ("https://zbx.example.org", "zabbixeu") -> https://zbx.example.org/zabbixeu/api_jsonrpc.php
func Endpoint(server, path string) (string, error) {
	if server == "" {
		return "", errors.New("Zabbix server url is required")
	}
	u, err := url.Parse(server)
	if err != nil {
		return "", fmt.Errorf("Invalid zabbix server url %q: %v", server, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("Unsupported scheme %q in zabbix server url", u.Scheme)
	}
	base := strings.TrimRight(u.String(), "/")
	path = strings.Trim(path, "/")
	if path == "" {
		return base + "/" + endpointFile, nil
	}
	return base + "/" + path + "/" + endpointFile, nil
}

// URL returns the API endpoint
func (c *Client) URL() string {
	return c.endpoint
}

// Version returns the server version, asking the server once
func (c *Client) Version(ctx context.Context) (Version, error) {
	c.versionLock.Lock()
	defer c.versionLock.Unlock()
	if c.version != nil {
		return *c.version, nil
	}
	raw, err := c.send(ctx, methodVersion, map[string]interface{}{}, "", Version{})
	if err != nil {
		return Version{}, err
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return Version{}, fmt.Errorf("Unexpected %s result: %v", methodVersion, err)
	}
	v, err := ParseVersion(s)
	if err != nil {
		return Version{}, err
	}
	log.Debugf("Zabbix API version %s at %s", v, c.endpoint)
	c.version = &v
	return v, nil
}

// Do calls method with params and returns the decoded "result" member.
// Numbers are kept as json.Number so the result is reported verbatim.
func (c *Client) Do(ctx context.Context, method string, params interface{}) (interface{}, error) {
	raw, err := c.call(ctx, method, params)
	if err != nil {
		return nil, err
	}
	return decodeResult(raw)
}

func (c *Client) call(ctx context.Context, method string, params interface{}) (json.RawMessage, error) {
	if params == nil {
		params = map[string]interface{}{}
	}
	if method == methodVersion {
		return c.send(ctx, method, params, "", Version{})
	}

	v, err := c.Version(ctx)
	if err != nil {
		return nil, err
	}
	token, cached, err := c.authToken(ctx, v)
	if err != nil {
		return nil, err
	}

	raw, err := c.send(ctx, method, params, token, v)
	var apiErr *APIError
	if err != nil && cached && errors.As(err, &apiErr) && apiErr.sessionExpired() {
		log.Infof("Cached zabbix session rejected, logging in again")
		c.dropToken(token)
		if token, _, err = c.authToken(ctx, v); err != nil {
			return nil, err
		}
		raw, err = c.send(ctx, method, params, token, v)
	}
	return raw, err
}

// Login forces a new user.login and caches the token
func (c *Client) Login(ctx context.Context) error {
	v, err := c.Version(ctx)
	if err != nil {
		return err
	}
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.loginLocked(ctx, v)
}

// Logout ends the session opened by Login. API tokens are left untouched.
func (c *Client) Logout(ctx context.Context) error {
	if c.cfg.AuthKey != "" {
		return nil
	}
	c.lock.Lock()
	token := c.token
	c.lock.Unlock()
	if token == "" {
		return nil
	}
	v, err := c.Version(ctx)
	if err != nil {
		return err
	}
	_, err = c.send(ctx, methodLogout, []interface{}{}, token, v)
	c.dropToken(token)
	return err
}

func (c *Client) authToken(ctx context.Context, v Version) (string, bool, error) {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.token != "" {
		return c.token, c.tokenCached, nil
	}
	if c.cfg.AuthKey != "" {
		c.token = c.cfg.AuthKey
		return c.token, false, nil
	}
	if c.sessions != nil {
		tok, err := c.sessions.GetSession(c.sessionKey())
		if err == nil && tok != "" {
			log.Debugf("Reusing cached zabbix session for %s", c.cfg.User)
			c.token = tok
			c.tokenCached = true
			return tok, true, nil
		}
		if err != nil && !errors.Is(err, ErrSessionNotFound) {
			log.Warnf("Failed to read cached zabbix session: %v", err)
		}
	}
	if err := c.loginLocked(ctx, v); err != nil {
		return "", false, err
	}
	return c.token, false, nil
}

func (c *Client) loginLocked(ctx context.Context, v Version) error {
	if c.cfg.User == "" {
		return errors.New("Zabbix user or auth key is required")
	}
	params := map[string]interface{}{
		v.loginUserField(): c.cfg.User,
		"password":         c.cfg.Password,
	}
	raw, err := c.send(ctx, methodLogin, params, "", v)
	if err != nil {
		return fmt.Errorf("Login to zabbix failed: %w", err)
	}
	var tok string
	if err := json.Unmarshal(raw, &tok); err != nil {
		return fmt.Errorf("Unexpected %s result: %v", methodLogin, err)
	}
	c.token = tok
	c.tokenCached = false
	if c.sessions != nil {
		if err := c.sessions.PutSession(c.sessionKey(), tok); err != nil {
			log.Warnf("Failed to cache zabbix session: %v", err)
		}
	}
	log.Debugf("Logged in to zabbix as %s", c.cfg.User)
	return nil
}

// dropToken forgets token if it is still the current one
func (c *Client) dropToken(token string) {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.token != token {
		return
	}
	c.token = ""
	c.tokenCached = false
	if c.sessions != nil && c.cfg.AuthKey == "" {
		if err := c.sessions.DeleteSession(c.sessionKey()); err != nil && !errors.Is(err, ErrSessionNotFound) {
			log.Warnf("Failed to drop cached zabbix session: %v", err)
		}
	}
}

func (c *Client) sessionKey() string {
	return c.endpoint + "|" + c.cfg.User
}

// send posts a single JSON-RPC request
func (c *Client) send(ctx context.Context, method string, params interface{}, token string, v Version) (json.RawMessage, error) {
	req := rpcRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      atomic.AddInt64(&c.lastID, 1),
	}
	if token != "" && !v.bearerAuth() {
		req.Auth = token
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("Failed to encode %s request: %v", method, err)
	}

	hreq, err := http.NewRequest(http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	hreq = hreq.WithContext(ctx)
	hreq.Header.Set("Content-Type", contentType)
	if token != "" && v.bearerAuth() {
		hreq.Header.Set("Authorization", "Bearer "+token)
	}
	if c.cfg.HTTPLoginUser != "" {
		hreq.SetBasicAuth(c.cfg.HTTPLoginUser, c.cfg.HTTPLoginPassword)
	}

	log.Debugf("Zabbix request %s (id %d)", method, req.ID)
	resp, err := c.http.Do(hreq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	data, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: string(data)}
	}

	var rr rpcResponse
	if err := json.Unmarshal(data, &rr); err != nil {
		return nil, fmt.Errorf("Invalid JSON-RPC response: %v", err)
	}
	if rr.Error != nil {
		return nil, rr.Error
	}
	if rr.Result == nil {
		return nil, errors.New("Invalid JSON-RPC response: no result")
	}
	return rr.Result, nil
}

func decodeResult(raw json.RawMessage) (interface{}, error) {
	var v interface{}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("Failed to decode result: %v", err)
	}
	return v, nil
}
