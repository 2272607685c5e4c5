package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/felixbrock/careerprep/internal/app"
	"github.com/felixbrock/careerprep/internal/domain"
	"github.com/spf13/cobra"
)

var (
	genRole       string
	genExperience string
	genGoal       string
	genAPIURL     string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Request career guidance once and print it",
	Long:  `Submit a role, experience and goal to the guidance service and print the resume feedback, interview questions and learning roadmap.`,
	RunE:  runGenerate,
}

func init() {
	generateCmd.Flags().StringVar(&genRole, "role", "", "Target role")
	generateCmd.Flags().StringVar(&genExperience, "experience", "", "Your experience")
	generateCmd.Flags().StringVar(&genGoal, "goal", "", "Career goal")
	generateCmd.Flags().StringVar(&genAPIURL, "api-url", "", "Base URL of the guidance service (default $API_URL)")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	cfg := config()
	if genAPIURL != "" {
		cfg.APIURL = genAPIURL
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	form := app.NewGuidanceForm(newRepo(cfg), app.LastCompletedWins, newLogger())
	form.SetInput(domain.FormInput{Role: genRole, Experience: genExperience, Goal: genGoal})

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	return generate(ctx, form, cmd.OutOrStdout())
}

func generate(ctx context.Context, form *app.GuidanceForm, out io.Writer) error {
	form.Submit(ctx)
	form.Wait()

	switch s := form.State().(type) {
	case app.Ready:
		printGuidance(out, s.Result)
		return nil
	case app.Errored:
		return errors.New(s.Message)
	default:
		return fmt.Errorf("unexpected form state %T", s)
	}
}

//nolint:errcheck // writing to stdout; errors are not recoverable
func printGuidance(out io.Writer, g domain.GuidanceResult) {
	fmt.Fprintln(out, "Resume Feedback")
	fmt.Fprintln(out, strings.Repeat("─", 15))
	fmt.Fprintln(out, g.ResumeFeedback)

	sections := []struct {
		title string
		items []string
	}{
		{"Interview Questions", g.InterviewQuestions},
		{"Learning Roadmap", g.LearningRoadmap},
	}

	for _, s := range sections {
		fmt.Fprintln(out)
		fmt.Fprintln(out, s.title)
		fmt.Fprintln(out, strings.Repeat("─", len(s.title)))
		for i, item := range s.items {
			fmt.Fprintf(out, "%d. %s\n", i+1, item)
		}
	}
}
