package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/eduforge/internal/content"
	"github.com/abhisek/eduforge/internal/pipeline"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate, review and (if needed) refine content for one grade and topic",
	Example: `  eduforge generate --grade 4 --topic Photosynthesis
  eduforge generate -g 7 -t Fractions --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		grade, _ := cmd.Flags().GetInt("grade")
		topic, _ := cmd.Flags().GetString("topic")
		asJSON, _ := cmd.Flags().GetBool("json")
		timeout, _ := cmd.Flags().GetDuration("timeout")

		// Reject bad input before touching config or the network.
		if err := (content.Request{Grade: grade, Topic: topic}).Validate(); err != nil {
			return err
		}

		rt, err := newRuntime(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()

		ctx := cmd.Context()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		id, res, err := rt.recorder.Run(ctx, grade, topic)
		if err != nil {
			if id != "" {
				fmt.Fprintf(os.Stderr, "run %s failed (%s)\n", id, content.Kind(err))
			}
			return err
		}

		if asJSON {
			return writeJSON(cmd.OutOrStdout(), res)
		}
		printResult(cmd.OutOrStdout(), id, res)
		return nil
	},
}

func writeJSON(w io.Writer, v any) error {
	enc := jsonEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func jsonEncoder(w io.Writer) *json.Encoder {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc
}

func printResult(w io.Writer, id string, res *pipeline.Result) {
	sep := strings.Repeat("─", 60)

	fmt.Fprintf(w, "Grade %d · %s\n", res.Grade, res.Topic)
	if id != "" {
		fmt.Fprintf(w, "Run:     %s\n", id)
	}
	fmt.Fprintf(w, "Review:  %s", strings.ToUpper(string(res.ReviewResult.Status)))
	if res.WasRefined {
		fmt.Fprint(w, " (refined)")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, sep)
	fmt.Fprintln(w, "INITIAL CONTENT")
	fmt.Fprintln(w, sep)
	printContent(w, res.InitialContent)

	fmt.Fprintln(w, sep)
	fmt.Fprintln(w, "REVIEW FEEDBACK")
	fmt.Fprintln(w, sep)
	if len(res.ReviewResult.Feedback) == 0 {
		fmt.Fprintln(w, "(none)")
	}
	for _, f := range res.ReviewResult.Feedback {
		fmt.Fprintf(w, "- %s\n", f)
	}

	if res.RefinedContent != nil {
		fmt.Fprintln(w, sep)
		fmt.Fprintln(w, "REFINED CONTENT")
		fmt.Fprintln(w, sep)
		printContent(w, *res.RefinedContent)
	}
}

func printContent(w io.Writer, c content.Content) {
	fmt.Fprintln(w, c.Explanation)
	fmt.Fprintln(w)
	for i, q := range c.Questions {
		fmt.Fprintf(w, "%d. %s\n", i+1, q.Question)
		for j, opt := range q.Options {
			mark := " "
			if j == q.AnswerIndex() {
				mark = "*"
			}
			fmt.Fprintf(w, "  %s %s\n", mark, opt)
		}
		fmt.Fprintln(w)
	}
}

func init() {
	generateCmd.Flags().IntP("grade", "g", 0, "Grade level (1-12)")
	generateCmd.Flags().StringP("topic", "t", "", "Topic to teach")
	generateCmd.Flags().Bool("json", false, "Print the result as JSON")
	generateCmd.Flags().Duration("timeout", 3*time.Minute, "Abort the run after this long (0 disables)")
	_ = generateCmd.MarkFlagRequired("grade")
	_ = generateCmd.MarkFlagRequired("topic")
}
