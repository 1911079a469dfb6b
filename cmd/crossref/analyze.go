package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/davidleathers/account-intelligence-backend/internal/batch"
)

func newAnalyzeCmd(root *rootOptions) *cobra.Command {
	var (
		output    string
		sessionID string
	)

	cmd := &cobra.Command{
		Use:   "analyze <timeline.json>",
		Short: "Analyze a single account timeline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd.Context(), root)
			if err != nil {
				return err
			}
			defer a.close()

			tl, err := batch.LoadFile(args[0])
			if err != nil {
				return err
			}
			if sessionID == "" {
				sessionID = uuid.NewString()
			}

			opts := a.cfg.AnalysisOptions()
			result, err := a.analyzer.Analyze(cmd.Context(), sessionID, tl, &opts)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if output != "" && output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return err
				}
				defer f.Close()
				out = f
			}
			if err := writeJSON(out, result); err != nil {
				return err
			}

			a.logger.Debug("analysis written",
				zap.String("customer_id", result.CustomerID),
				zap.String("output", output))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "-", "Write the result to this file instead of stdout")
	cmd.Flags().StringVar(&sessionID, "session-id", "", "Session identifier to stamp on the result (default: random UUID)")
	return cmd
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
