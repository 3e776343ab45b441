// MIT License
//
// Copyright (c) 2025 Advanced Micro Devices, Inc.
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/eventplane/topic-operator/api/v1alpha1"
)

const applicationsPath = "/api/registry/v1alpha1/apps/"

// Options configure the registry client.
type Options struct {
	// URL is the base URL of the registry.
	URL string
	// TokenURL, ClientID and ClientSecret enable OAuth2 client credentials when ClientID is set.
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scopes       []string
	// Timeout bounds every request. Zero disables the bound.
	Timeout time.Duration
}

// Client reads and writes applications in the registry.
type Client struct {
	baseURL *url.URL
	http    *http.Client
}

// StatusError is returned for non-success registry responses.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("registry returned %d %s", e.Code, http.StatusText(e.Code))
	}
	return fmt.Sprintf("registry returned %d %s: %s", e.Code, http.StatusText(e.Code), e.Message)
}

// StatusCode returns the HTTP status code of the response.
func (e *StatusError) StatusCode() int {
	return e.Code
}

// IsNotFound reports whether err is a registry 404.
func IsNotFound(err error) bool {
	return hasStatus(err, http.StatusNotFound)
}

// IsConflict reports whether err is a registry 409, returned when the resource version is stale.
func IsConflict(err error) bool {
	return hasStatus(err, http.StatusConflict)
}

func hasStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == code
}

// NewClient creates a registry client. With a client ID set, requests carry an OAuth2 token
// obtained through the client credentials flow.
func NewClient(ctx context.Context, opts Options) (*Client, error) {
	base, err := url.Parse(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid registry URL %q: %w", opts.URL, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid registry URL %q: scheme and host are required", opts.URL)
	}

	httpClient := &http.Client{Timeout: opts.Timeout}
	if opts.ClientID != "" {
		cc := clientcredentials.Config{
			ClientID:     opts.ClientID,
			ClientSecret: opts.ClientSecret,
			TokenURL:     opts.TokenURL,
			Scopes:       opts.Scopes,
		}
		ctx = context.WithValue(ctx, oauth2.HTTPClient, &http.Client{Timeout: opts.Timeout})
		httpClient = cc.Client(ctx)
		httpClient.Timeout = opts.Timeout
	}

	return &Client{baseURL: base, http: httpClient}, nil
}

// GetApplication fetches an application by name.
func (c *Client) GetApplication(ctx context.Context, name string) (*v1alpha1.Application, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.applicationURL(name), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to get application %s: %w", name, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := checkResponse(resp); err != nil {
		return nil, err
	}

	app := &v1alpha1.Application{}
	if err := json.NewDecoder(resp.Body).Decode(app); err != nil {
		return nil, fmt.Errorf("failed to decode application %s: %w", name, err)
	}
	return app, nil
}

// UpdateApplication writes app back. The registry rejects the write with a conflict when
// app.ResourceVersion is stale.
func (c *Client) UpdateApplication(ctx context.Context, app *v1alpha1.Application) error {
	body, err := json.Marshal(app)
	if err != nil {
		return fmt.Errorf("failed to encode application %s: %w", app.Name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.applicationURL(app.Name), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to update application %s: %w", app.Name, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := checkResponse(resp); err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func (c *Client) applicationURL(name string) string {
	return c.baseURL.JoinPath(applicationsPath, name).String()
}

func checkResponse(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return &StatusError{Code: resp.StatusCode, Message: string(bytes.TrimSpace(msg))}
}
