package config

import (
	"errors"
	"fmt"
)

var (
	ErrNoEnabledSources     = errors.New("at least one source must be enabled")
	ErrMyJobMagMissingURL   = errors.New("sources.myjobmag.base_url is required")
	ErrEmailMissingHost     = errors.New("sources.email.imap_host is required")
	ErrEmailMissingUser     = errors.New("sources.email.username is required")
	ErrRewriteMissingURL    = errors.New("rewrite.endpoint is required")
	ErrRewriteMissingModel  = errors.New("rewrite.model is required")
	ErrWordPressMissingURL  = errors.New("wordpress.api_url is required")
	ErrWordPressMissingUser = errors.New("wordpress.user is required")
	ErrInvalidStatus        = errors.New("wordpress.status must be 'publish' or 'draft'")
)

func (c *Config) Validate() error {
	if !c.Sources.MyJobMag.Enabled && !c.Sources.Email.Enabled {
		return ErrNoEnabledSources
	}
	if c.Sources.MyJobMag.Enabled && c.Sources.MyJobMag.BaseURL == "" {
		return ErrMyJobMagMissingURL
	}
	if c.Sources.Email.Enabled {
		if c.Sources.Email.IMAPHost == "" {
			return ErrEmailMissingHost
		}
		if c.Sources.Email.Username == "" {
			return ErrEmailMissingUser
		}
	}
	if c.Rewrite.Endpoint == "" {
		return ErrRewriteMissingURL
	}
	if c.Rewrite.Model == "" {
		return ErrRewriteMissingModel
	}
	if c.WordPress.APIURL == "" {
		return ErrWordPressMissingURL
	}
	if c.WordPress.User == "" {
		return ErrWordPressMissingUser
	}
	if c.WordPress.Status != "publish" && c.WordPress.Status != "draft" {
		return fmt.Errorf("%w: got %q", ErrInvalidStatus, c.WordPress.Status)
	}
	return nil
}
