package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/shelfside/bookrun/internal/domain"
)

func newEvaluateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Evaluate one book from a JSON file",
		Long: `Reads an evaluation request (attributes plus per-platform market signals)
from a JSON file, runs the full pipeline, and prints the result as JSON.
Use "-" to read the request from stdin.`,
		RunE: runEvaluate,
	}

	cmd.Flags().String("input", "-", "Path to the request JSON, or - for stdin")
	cmd.Flags().Float64("cost", 0, "Purchase cost override in dollars")
	cmd.Flags().String("profile", "", "Threshold profile (balanced|conservative|aggressive)")
	cmd.Flags().String("condition", "", "Condition override (New|Like New|Very Good|Good|Acceptable|Poor)")

	return cmd
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	inputPath, _ := cmd.Flags().GetString("input")
	cost, _ := cmd.Flags().GetFloat64("cost")
	profile, _ := cmd.Flags().GetString("profile")
	condition, _ := cmd.Flags().GetString("condition")
	configDir, _ := cmd.Flags().GetString("config")

	var raw []byte
	var err error
	if inputPath == "-" {
		raw, err = io.ReadAll(os.Stdin)
	} else {
		raw, err = os.ReadFile(inputPath)
	}
	if err != nil {
		return fmt.Errorf("read request: %w", err)
	}

	var in domain.EvaluationInput
	if err := json.Unmarshal(raw, &in); err != nil {
		return fmt.Errorf("parse request: %w", err)
	}
	if cost > 0 {
		in.PurchaseCost = cost
	}
	if profile != "" {
		in.Profile = profile
	}
	if condition != "" {
		in.Attributes.Condition = domain.NormalizeCondition(condition)
	}

	evaluator, err := buildEvaluator(configDir)
	if err != nil {
		return err
	}

	result, err := evaluator.Evaluate(cmd.Context(), in)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
