package config

import "testing"

func TestValidate_InvalidBudgetAction(t *testing.T) {
	cfg := Config{
		Store: StoreConfig{Driver: "memory"},
		Embedding: EmbeddingConfig{
			Providers: map[string]ProviderConfig{
				"nebius": {
					APIKey:  "test-key",
					BaseURL: "https://api.example.com/v1/",
					Budget: BudgetConfig{
						DailyTokenLimit: 1000000,
						Action:          "invalid_action",
					},
				},
			},
		},
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for invalid budget action")
	}

	expected := `embedding.providers.nebius.budget.action must be "warn" or "reject", got "invalid_action"`
	if err.Error() != expected {
		t.Errorf("unexpected error message:\ngot:  %q\nwant: %q", err.Error(), expected)
	}
}

func TestValidate_ValidBudgetActions(t *testing.T) {
	validActions := []string{"", "warn", "reject"}

	for _, action := range validActions {
		t.Run("action="+action, func(t *testing.T) {
			cfg := Config{
				Store: StoreConfig{Driver: "memory"},
				Embedding: EmbeddingConfig{
					Providers: map[string]ProviderConfig{
						"nebius": {
							APIKey: "test-key",
							Budget: BudgetConfig{
								Action: action,
							},
						},
					},
				},
			}

			err := cfg.Validate()
			if err != nil {
				t.Fatalf("unexpected error for valid action %q: %v", action, err)
			}
		})
	}
}

func TestValidate_UnknownDriver(t *testing.T) {
	cfg := Config{
		Store: StoreConfig{Driver: "postgres"},
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestValidate_RedisNeedsAddrs(t *testing.T) {
	cfg := Config{
		Store: StoreConfig{Driver: "redis"},
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for missing redis addrs")
	}
}

func TestValidate_BoltNeedsPath(t *testing.T) {
	cfg := Config{
		Store: StoreConfig{Driver: "bolt"},
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for missing bolt path")
	}
}

func TestValidate_UnknownVectorizerProvider(t *testing.T) {
	cfg := Config{
		Store: StoreConfig{Driver: "memory"},
		Embedding: EmbeddingConfig{
			Providers: map[string]ProviderConfig{
				"openai": {APIKey: "test-key"},
			},
			Vectorizers: map[string]VectorizerConfig{
				"default": {Provider: "missing", Model: "text-embedding-3-small"},
			},
		},
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for undeclared vectorizer provider")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.Store.Driver != "memory" {
		t.Errorf("expected Driver=memory, got %q", cfg.Store.Driver)
	}
	if cfg.Store.ReadinessTimeout != 10 {
		t.Errorf("expected ReadinessTimeout=10, got %d", cfg.Store.ReadinessTimeout)
	}
	if cfg.Index.Algorithm != "hnsw" {
		t.Errorf("expected Algorithm=hnsw, got %q", cfg.Index.Algorithm)
	}
	if cfg.Index.HNSWM != 32 {
		t.Errorf("expected HNSWM=32, got %d", cfg.Index.HNSWM)
	}
	if cfg.Index.HNSWEFConstruct != 400 {
		t.Errorf("expected HNSWEFConstruct=400, got %d", cfg.Index.HNSWEFConstruct)
	}
	if cfg.Pipeline.BatchSize != 96 {
		t.Errorf("expected BatchSize=96, got %d", cfg.Pipeline.BatchSize)
	}
	if cfg.Pipeline.Concurrency != 1 {
		t.Errorf("expected Concurrency=1, got %d", cfg.Pipeline.Concurrency)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		Store:    StoreConfig{Driver: "redis", ReadinessTimeout: 15},
		Index:    IndexConfig{Algorithm: "flat", HNSWM: 16, HNSWEFConstruct: 200},
		Pipeline: PipelineConfig{BatchSize: 32, Concurrency: 4},
	}
	cfg.ApplyDefaults()

	if cfg.Store.Driver != "redis" {
		t.Errorf("expected Driver=redis, got %q", cfg.Store.Driver)
	}
	if cfg.Index.Algorithm != "flat" {
		t.Errorf("expected Algorithm=flat, got %q", cfg.Index.Algorithm)
	}
	if cfg.Index.HNSWM != 16 {
		t.Errorf("expected HNSWM=16, got %d", cfg.Index.HNSWM)
	}
	if cfg.Pipeline.BatchSize != 32 {
		t.Errorf("expected BatchSize=32, got %d", cfg.Pipeline.BatchSize)
	}
	if cfg.Pipeline.Concurrency != 4 {
		t.Errorf("expected Concurrency=4, got %d", cfg.Pipeline.Concurrency)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("EMVEX_TEST_API_KEY", "sk-live")

	in := []byte("api_key: ${EMVEX_TEST_API_KEY}\naddr: ${EMVEX_TEST_ADDR:-localhost:6379}\n")
	out := string(expandEnvVars(in))

	want := "api_key: sk-live\naddr: localhost:6379\n"
	if out != want {
		t.Errorf("unexpected expansion:\ngot:  %q\nwant: %q", out, want)
	}
}
