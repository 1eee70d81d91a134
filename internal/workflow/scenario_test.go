package workflow

import (
	"errors"
	"testing"

	"stableswapDeployer/internal/model"
	"stableswapDeployer/internal/terraswap"
)

func TestScenarioValidate(t *testing.T) {
	if err := testScenario().Validate(); err != nil {
		t.Fatalf("default test scenario invalid: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Scenario)
	}{
		{"missing token wasm", func(s *Scenario) { s.TokenWasm = "" }},
		{"single token", func(s *Scenario) { s.Tokens = s.Tokens[:1]; s.Liquidity = s.Liquidity[:1] }},
		{"duplicate symbol", func(s *Scenario) { s.Tokens[1].Symbol = s.Tokens[0].Symbol }},
		{"liquidity count", func(s *Scenario) { s.Liquidity = s.Liquidity[:2] }},
		{"negative amount", func(s *Scenario) { s.SwapAmount = "-1" }},
		{"index out of range", func(s *Scenario) { s.SwapAskIndex = 3 }},
		{"same swap assets", func(s *Scenario) { s.SwapAskIndex = s.SwapOfferIndex }},
		{"bad amplification", func(s *Scenario) { s.Amplification = "sixty" }},
		{"fee without gas", func(s *Scenario) { s.Fees.Swap = model.Fee{} }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sc := testScenario()
			sc.Tokens = DefaultTokens()
			tc.mutate(&sc)
			if err := sc.Validate(); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestScenarioGuardsHaveNoDefault(t *testing.T) {
	for _, mutate := range []func(*Guards){
		func(g *Guards) { g.Provide = "" },
		func(g *Guards) { g.WithdrawSingle = " " },
		func(g *Guards) { g.Swap = "" },
	} {
		sc := testScenario()
		mutate(&sc.Guards)
		if err := sc.Validate(); !errors.Is(err, terraswap.ErrMissingMinOut) {
			t.Fatalf("expected ErrMissingMinOut, got %v", err)
		}
	}
}
