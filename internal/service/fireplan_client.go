package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/MichielDePaepe/RadioAssetManagement/internal/config"
)

// ErrBadCredentials the legacy system rejected the configured login.
var ErrBadCredentials = errors.New("login rejected by legacy system")

// FireplanClient session-authenticated client for the fireplan fleet
// management system. Fireplan has no API tokens; the client performs the
// same CSRF form login a browser would and keeps the session cookie.
type FireplanClient struct {
	httpClient *resty.Client
	cfg        config.FireplanConfig
	logger     *zap.Logger
}

func NewFireplanClient(cfg config.FireplanConfig, logger *zap.Logger) *FireplanClient {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetRetryCount(2).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(5 * time.Second)

	return &FireplanClient{httpClient: client, cfg: cfg, logger: logger}
}

// Login fetches the login form, extracts the CSRF token and posts the
// credentials. The session cookie lives in the underlying cookie jar.
func (c *FireplanClient) Login() error {
	page, err := c.httpClient.R().Get("/fr/login")
	if err != nil {
		return fmt.Errorf("failed to fetch login page: %w", err)
	}

	csrf, err := extractInputValue(page.String(), "_csrf_token")
	if err != nil {
		return fmt.Errorf("failed to extract CSRF token: %w", err)
	}

	resp, err := c.httpClient.R().
		SetFormData(map[string]string{
			"auth_login[login]":    c.cfg.Username,
			"auth_login[password]": c.cfg.Password,
			"_csrf_token":          csrf,
			"auth_login[submit]":   "Se connecter",
		}).
		Post("/fr/login")
	if err != nil {
		return fmt.Errorf("login request failed: %w", err)
	}

	if strings.Contains(resp.String(), "Identifiants invalides") {
		return ErrBadCredentials
	}

	c.logger.Info("fireplan session established", zap.String("base_url", c.cfg.BaseURL))
	return nil
}

// PostJSON posts a JSON payload within the logged-in session and decodes
// the response into result.
func (c *FireplanClient) PostJSON(path string, payload any, result any) error {
	resp, err := c.httpClient.R().
		SetHeader("Content-Type", "application/json").
		SetBody(payload).
		SetResult(result).
		Post(path)
	if err != nil {
		return fmt.Errorf("fireplan request failed: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("fireplan returned %d for %s", resp.StatusCode(), path)
	}
	return nil
}

// GetJSON performs a GET within the logged-in session and decodes the
// response into result.
func (c *FireplanClient) GetJSON(path string, params map[string]string, result any) error {
	resp, err := c.httpClient.R().
		SetQueryParams(params).
		SetResult(result).
		Get(path)
	if err != nil {
		return fmt.Errorf("fireplan request failed: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("fireplan returned %d for %s", resp.StatusCode(), path)
	}
	return nil
}

// ResourcesoffClient client for the resourcesoff vector feed. Plain form
// login, no CSRF; a failed login bounces back to the login page.
type ResourcesoffClient struct {
	httpClient *resty.Client
	cfg        config.ResourcesoffConfig
	logger     *zap.Logger
}

func NewResourcesoffClient(cfg config.ResourcesoffConfig, logger *zap.Logger) *ResourcesoffClient {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetRetryCount(2).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(5 * time.Second)

	return &ResourcesoffClient{httpClient: client, cfg: cfg, logger: logger}
}

func (c *ResourcesoffClient) Login() error {
	resp, err := c.httpClient.R().
		SetFormData(map[string]string{
			"username": c.cfg.Username,
			"password": c.cfg.Password,
		}).
		Post("/php/login_resources.php")
	if err != nil {
		return fmt.Errorf("login request failed: %w", err)
	}

	// the login page title leaks through on failure
	if strings.Contains(resp.String(), "Login") {
		return ErrBadCredentials
	}

	c.logger.Info("resourcesoff session established", zap.String("base_url", c.cfg.BaseURL))
	return nil
}

// GetJSON fetches a resourcesoff ajax endpoint within the session.
func (c *ResourcesoffClient) GetJSON(path string, params map[string]string, result any) error {
	resp, err := c.httpClient.R().
		SetQueryParams(params).
		SetResult(result).
		Get(path)
	if err != nil {
		return fmt.Errorf("resourcesoff request failed: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("resourcesoff returned %d for %s", resp.StatusCode(), path)
	}
	return nil
}

// extractInputValue finds the value attribute of <input name="..."> in an
// HTML document.
func extractInputValue(doc, name string) (string, error) {
	root, err := html.Parse(strings.NewReader(doc))
	if err != nil {
		return "", err
	}

	var value string
	var found bool
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if found {
			return
		}
		if n.Type == html.ElementNode && n.Data == "input" {
			var nameAttr, valueAttr string
			for _, attr := range n.Attr {
				switch attr.Key {
				case "name":
					nameAttr = attr.Val
				case "value":
					valueAttr = attr.Val
				}
			}
			if nameAttr == name {
				value = valueAttr
				found = true
				return
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(root)

	if !found {
		return "", fmt.Errorf("no input named %q in document", name)
	}
	return value, nil
}
