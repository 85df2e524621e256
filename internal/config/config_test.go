package config

import (
	"math"
	"testing"
)

func TestAutoExecuteEnabledRequiresBothFlags(t *testing.T) {
	cases := []struct {
		name     string
		approval bool
		model    string
		want     bool
	}{
		{"both set", true, ApprovalModelAutoExecute, true},
		{"approval only", true, "manual", false},
		{"model only", false, ApprovalModelAutoExecute, false},
		{"neither", false, "", false},
	}
	for _, tc := range cases {
		p := PipelineConfig{WrittenApprovalReceived: tc.approval, ApprovalModel: tc.model}
		if got := p.AutoExecuteEnabled(); got != tc.want {
			t.Fatalf("%s: AutoExecuteEnabled = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestSourceWeightsRankOrder(t *testing.T) {
	p := PipelineConfig{SourcePriority: []string{
		"Venture Capital Careers",
		"Company career pages (direct)",
		"Wellfound",
		"Y Combinator Work at a Startup",
		"IMF recruitment",
		"World Bank careers",
		"Devex",
		"Built In",
		"LinkedIn",
	}}
	weights := p.SourceWeights()

	want := map[string]float64{
		"venture_capital_careers": 20.0,
		"company_site":            17.78,
		"wellfound":               15.56,
		"linkedin":                2.22,
		"impactpool":              3.0,
		"un":                      3.0,
		"adb":                     3.0,
	}
	for source, expected := range want {
		got, ok := weights[source]
		if !ok {
			t.Fatalf("no weight for %s", source)
		}
		if math.Abs(got-expected) > 1e-9 {
			t.Fatalf("weight[%s] = %v, want %v", source, got, expected)
		}
	}
	if weights["venture_capital_careers"] <= weights["company_site"] {
		t.Fatalf("rank 0 must outweigh rank 1")
	}
}

func TestSourceWeightsEmptyPriorityFallsBackToFlat(t *testing.T) {
	weights := PipelineConfig{}.SourceWeights()
	for source, weight := range weights {
		if weight != 3.0 {
			t.Fatalf("weight[%s] = %v, want flat 3.0 without a priority list", source, weight)
		}
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.API.Port != 8080 {
		t.Fatalf("api port = %d, want 8080", cfg.API.Port)
	}
	if cfg.Worker.CycleCron != "0 7 * * *" {
		t.Fatalf("cycle cron = %q", cfg.Worker.CycleCron)
	}
	if cfg.Pipeline.AutoExecuteEnabled() {
		t.Fatalf("auto execution must be off by default")
	}
	if cfg.Pipeline.RateLimitWindow != RateLimitWindowDaily {
		t.Fatalf("rate limit window = %q, want daily", cfg.Pipeline.RateLimitWindow)
	}
	if len(cfg.Pipeline.SourcePriority) != 9 {
		t.Fatalf("source priority entries = %d, want 9", len(cfg.Pipeline.SourcePriority))
	}
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("API_PORT", "9191")
	t.Setenv("PIPELINE_WRITTEN_APPROVAL_RECEIVED", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.API.Port != 9191 {
		t.Fatalf("api port = %d, want 9191", cfg.API.Port)
	}
	if !cfg.Pipeline.WrittenApprovalReceived {
		t.Fatalf("written approval flag not read from environment")
	}
	if !cfg.Pipeline.AutoExecuteEnabled() {
		t.Fatalf("approval flag plus the default model should enable auto execution")
	}
}

func TestLoadRejectsUnknownRateLimitWindow(t *testing.T) {
	t.Setenv("PIPELINE_RATE_LIMIT_WINDOW", "hourly")
	if _, err := Load(); err == nil {
		t.Fatalf("expected an error for an unknown rate limit window")
	}
}

func TestHolderReloadSwapsOnSuccessOnly(t *testing.T) {
	initial, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	holder := NewHolder(initial)
	if holder.Current() != initial {
		t.Fatalf("Current must return the wrapped configuration")
	}

	t.Setenv("API_PORT", "9292")
	reloaded, err := holder.Reload()
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.API.Port != 9292 || holder.Current() != reloaded {
		t.Fatalf("reload did not swap the active configuration")
	}

	t.Setenv("PIPELINE_RATE_LIMIT_WINDOW", "bogus")
	if _, err := holder.Reload(); err == nil {
		t.Fatalf("expected reload to fail on invalid settings")
	}
	if holder.Current() != reloaded {
		t.Fatalf("failed reload must keep the previous configuration active")
	}
}
