// Package captcha verifies reCAPTCHA responses against the siteverify API.
package captcha

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/noah-isme/taskhive-api/pkg/config"
	appErrors "github.com/noah-isme/taskhive-api/pkg/errors"
)

// Verifier checks captcha responses. Disabled when no secret is configured,
// in which case every check passes.
type Verifier struct {
	secret    string
	verifyURL string
	client    *http.Client
}

// New builds a Verifier from config.
func New(cfg config.CaptchaConfig) *Verifier {
	return &Verifier{
		secret:    cfg.SecretKey,
		verifyURL: cfg.VerifyURL,
		client:    &http.Client{Timeout: 5 * time.Second},
	}
}

// Enabled reports whether captcha checking is active.
func (v *Verifier) Enabled() bool {
	return v != nil && v.secret != ""
}

type siteverifyResponse struct {
	Success    bool     `json:"success"`
	ErrorCodes []string `json:"error-codes"`
}

// Verify validates the client-provided captcha response token.
func (v *Verifier) Verify(ctx context.Context, response string) error {
	if !v.Enabled() {
		return nil
	}
	if response == "" {
		return appErrors.Clone(appErrors.ErrValidation, "captcha response required")
	}

	form := url.Values{}
	form.Set("secret", v.secret)
	form.Set("response", response)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.verifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build captcha request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.client.Do(req)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "captcha verification unavailable")
	}
	defer resp.Body.Close()

	var result siteverifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "captcha verification unreadable")
	}

	if !result.Success {
		return appErrors.Clone(appErrors.ErrValidation, "captcha verification failed")
	}
	return nil
}
