package config

import "testing"

func TestValidate_RejectsMissingRequiredFields(t *testing.T) {
	cfg := &Config{}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected Validate to reject a zero-value Config")
	}
}

func TestValidate_AcceptsMinimalCompleteConfig(t *testing.T) {
	cfg := &Config{
		DatabaseURL:                    "postgres://localhost/hush",
		StackerPublicSigningAddress:    "addr-1",
		StackerPrivateSigningKey:       "key-1",
		MempoolMaxDrainBatch:           1000,
		ReactionsMerkleRootGracePeriod: 3,
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected a minimal complete config to validate, got %v", err)
	}
}

func TestValidate_RequiresFirebaseProjectIDWhenFirestoreEnabled(t *testing.T) {
	cfg := &Config{
		DatabaseURL:                    "postgres://localhost/hush",
		StackerPublicSigningAddress:    "addr-1",
		StackerPrivateSigningKey:       "key-1",
		MempoolMaxDrainBatch:           1000,
		ReactionsMerkleRootGracePeriod: 3,
		FirestoreEnabled:               true,
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected Validate to require FirebaseProjectID when FirestoreEnabled is true")
	}
}

func TestLoad_AppliesDefaultsWhenEnvUnset(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DBPort != 5432 {
		t.Errorf("expected default DB_PORT 5432, got %d", cfg.DBPort)
	}
	if cfg.MempoolMaxDrainBatch != 1000 {
		t.Errorf("expected default mempool drain batch 1000, got %d", cfg.MempoolMaxDrainBatch)
	}
}
