package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadWithDefaults(t *testing.T) {
	env := map[string]string{
		"API_FIRESTORE_PROJECT_ID": "bookcourier-dev",
	}

	cfg, err := Load(context.Background(), WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 15*time.Second {
		t.Errorf("unexpected read timeout: %s", cfg.Server.ReadTimeout)
	}
	if cfg.Environment != "local" {
		t.Errorf("expected default environment local, got %s", cfg.Environment)
	}
	if cfg.PSP.DefaultCurrency != "usd" {
		t.Errorf("expected default currency usd, got %s", cfg.PSP.DefaultCurrency)
	}
	if cfg.PubSub.ProjectID != "bookcourier-dev" {
		t.Errorf("expected pubsub project to default to firestore project, got %s", cfg.PubSub.ProjectID)
	}
	if cfg.PubSub.OrderTopic != "" {
		t.Errorf("expected publishing disabled by default, got topic %s", cfg.PubSub.OrderTopic)
	}
	if len(cfg.CORS.AllowedOrigins) != 0 {
		t.Errorf("expected no allowed origins, got %v", cfg.CORS.AllowedOrigins)
	}
}

func TestLoadWithOverridesAndSecrets(t *testing.T) {
	env := map[string]string{
		"API_ENVIRONMENT":             "Prod",
		"API_SERVER_PORT":             "9090",
		"API_SERVER_READ_TIMEOUT":     "20s",
		"API_SERVER_WRITE_TIMEOUT":    "25s",
		"API_SERVER_IDLE_TIMEOUT":     "2m",
		"API_FIRESTORE_PROJECT_ID":    "bookcourier-prod",
		"API_FIRESTORE_EMULATOR_HOST": "localhost:8200",
		"API_PSP_STRIPE_API_KEY":      "secret://stripe/api",
		"API_PSP_DEFAULT_CURRENCY":    "EUR",
		"API_PUBSUB_PROJECT_ID":       "bookcourier-events",
		"API_PUBSUB_ORDER_TOPIC":      "order-events",
		"API_CORS_ALLOWED_ORIGINS":    "https://bookcourier.example, https://staging.bookcourier.example",
	}

	resolver := SecretResolverFunc(func(_ context.Context, ref string) (string, error) {
		if ref == "secret://stripe/api" {
			return "sk_test_123", nil
		}
		return "", &SecretError{Ref: ref, Err: errSecretResolverNotConfigured}
	})

	cfg, err := Load(context.Background(), WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""), WithSecretResolver(resolver))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Environment != "prod" {
		t.Errorf("expected environment lowered to prod, got %s", cfg.Environment)
	}
	if cfg.Server.Port != "9090" {
		t.Errorf("unexpected port: %s", cfg.Server.Port)
	}
	if cfg.Server.IdleTimeout != 2*time.Minute {
		t.Errorf("unexpected idle timeout: %s", cfg.Server.IdleTimeout)
	}
	if cfg.PSP.StripeAPIKey != "sk_test_123" {
		t.Errorf("expected resolved stripe key, got %q", cfg.PSP.StripeAPIKey)
	}
	if cfg.PSP.DefaultCurrency != "eur" {
		t.Errorf("expected currency lowered to eur, got %s", cfg.PSP.DefaultCurrency)
	}
	if cfg.PubSub.ProjectID != "bookcourier-events" {
		t.Errorf("unexpected pubsub project: %s", cfg.PubSub.ProjectID)
	}
	if len(cfg.CORS.AllowedOrigins) != 2 || cfg.CORS.AllowedOrigins[0] != "https://bookcourier.example" {
		t.Errorf("unexpected cors origins: %v", cfg.CORS.AllowedOrigins)
	}
}

func TestLoadDotEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	contents := "# local overrides\nexport API_FIRESTORE_PROJECT_ID=\"bookcourier-local\"\nAPI_SERVER_PORT=7070\n"
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}

	cfg, err := Load(context.Background(), WithoutSystemEnv(), WithEnvFile(path))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Firestore.ProjectID != "bookcourier-local" {
		t.Errorf("unexpected firestore project: %s", cfg.Firestore.ProjectID)
	}
	if cfg.Server.Port != "7070" {
		t.Errorf("unexpected port: %s", cfg.Server.Port)
	}
}

func TestLoadValidationFailure(t *testing.T) {
	_, err := Load(context.Background(), WithEnvMap(map[string]string{}), WithoutSystemEnv(), WithEnvFile(""))
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	fields := validationErr.Fields()
	if len(fields) != 1 || fields[0] != "Firestore.ProjectID" {
		t.Errorf("unexpected missing fields: %v", fields)
	}
}

func TestLoadMissingRequiredSecret(t *testing.T) {
	env := map[string]string{
		"API_FIRESTORE_PROJECT_ID": "bookcourier-dev",
	}

	_, err := Load(context.Background(), WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""), WithRequiredSecrets("PSP.StripeAPIKey"))
	var missing *MissingSecretsError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingSecretsError, got %v", err)
	}
	names := missing.Names()
	if len(names) != 1 || names[0] != "PSP.StripeAPIKey" {
		t.Errorf("unexpected missing secret names: %v", names)
	}
}

func TestLoadUnresolvableSecretReference(t *testing.T) {
	env := map[string]string{
		"API_FIRESTORE_PROJECT_ID": "bookcourier-dev",
		"API_PSP_STRIPE_API_KEY":   "sm://stripe-api-key",
	}

	_, err := Load(context.Background(), WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""))
	var secretErr *SecretError
	if !errors.As(err, &secretErr) {
		t.Fatalf("expected SecretError, got %v", err)
	}
	if secretErr.Ref != "secret://stripe-api-key" {
		t.Errorf("expected normalised ref, got %q", secretErr.Ref)
	}
}
