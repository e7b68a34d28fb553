package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

const minJWTSecretLen = 32

// Validate revisa combinaciones que cleanenv no puede expresar con tags.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port out of range: %d", c.Server.Port))
	}

	switch strings.ToLower(strings.TrimSpace(c.Log.Format)) {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("log.format must be json or text, got %q", c.Log.Format))
	}

	if c.Database.DSN != "" && c.Database.MinConns > c.Database.MaxConns {
		errs = append(errs, errors.New("database.min_conns must be <= database.max_conns"))
	}

	switch c.Auth.Mode {
	case AuthModeDev:
	case AuthModeJWT:
		if len(c.Auth.JWTSecret) < minJWTSecretLen {
			errs = append(errs, fmt.Errorf("auth.jwt_secret must be at least %d chars", minJWTSecretLen))
		}
	case AuthModeRemote:
		if err := validURL(c.Auth.RemoteBaseURL); err != nil {
			errs = append(errs, fmt.Errorf("auth.remote_base_url: %w", err))
		}
		if strings.TrimSpace(c.Auth.RemoteAPIKey) == "" {
			errs = append(errs, errors.New("auth.remote_api_key is required in remote mode"))
		}
	default:
		errs = append(errs, fmt.Errorf("auth.mode must be dev, jwt or remote, got %q", c.Auth.Mode))
	}

	if c.Storage.BaseURL != "" {
		if err := validURL(c.Storage.BaseURL); err != nil {
			errs = append(errs, fmt.Errorf("storage.base_url: %w", err))
		}
		if strings.TrimSpace(c.Storage.Bucket) == "" {
			errs = append(errs, errors.New("storage.bucket is required when storage.base_url is set"))
		}
	}

	if c.Kafka.Brokers != "" && strings.TrimSpace(c.Kafka.Topic) == "" {
		errs = append(errs, errors.New("kafka.topic is required when kafka.brokers is set"))
	}

	if c.Photos.MaxBytes <= 0 {
		errs = append(errs, errors.New("photos.max_bytes must be positive"))
	}

	return errors.Join(errs...)
}

func validURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return errors.New("is required")
	}
	u, err := url.ParseRequestURI(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	return nil
}
