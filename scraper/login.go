package scraper

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

const (
	usernameSelector = `input[name="username"]`
	passwordSelector = `input[name="password"]`
	submitSelector   = `button[type="submit"]`

	// loginMarker is looked for in the post-submit URL.
	loginMarker = "login"
)

// Credentials for the data site.
type Credentials struct {
	Username string
	Password string
}

// LoginOptions controls the login form submission.
type LoginOptions struct {
	URL string
	// Timeout bounds the wait for the login form.
	Timeout time.Duration
	// Settle is how long to wait after submitting before checking the URL.
	Settle time.Duration
}

// Login submits the login form once. It returns ErrLoginFailed when the
// browser is still on a login URL after the submit.
func Login(ctx context.Context, s Session, creds Credentials, opts LoginOptions) error {
	log := zap.L().With(zap.String("url", opts.URL))
	log.Info("logging in")

	if err := s.Navigate(ctx, opts.URL); err != nil {
		return eris.Wrap(err, "scraper: open login page")
	}
	if !s.WaitFor(ctx, usernameSelector, opts.Timeout) {
		return eris.Wrap(ErrLoginFailed, "login form did not load")
	}
	if err := s.Fill(ctx, usernameSelector, creds.Username); err != nil {
		return eris.Wrap(err, "scraper: enter username")
	}
	if err := s.Fill(ctx, passwordSelector, creds.Password); err != nil {
		return eris.Wrap(err, "scraper: enter password")
	}
	if err := s.Click(ctx, submitSelector); err != nil {
		return eris.Wrap(err, "scraper: submit login")
	}
	if err := sleep(ctx, opts.Settle); err != nil {
		return eris.Wrap(err, "scraper: wait after login")
	}

	loc, err := s.Location(ctx)
	if err != nil {
		return eris.Wrap(err, "scraper: read location after login")
	}
	if strings.Contains(strings.ToLower(loc), loginMarker) {
		return eris.Wrapf(ErrLoginFailed, "still on %s", loc)
	}

	log.Info("login successful")
	return nil
}
