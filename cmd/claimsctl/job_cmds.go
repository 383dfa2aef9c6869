package main

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/reniita09/Humaein/internal/model"
	"github.com/reniita09/Humaein/internal/results"
)

var (
	technicalFlag string
	medicalFlag   string
	claimsFlag    string
	exportFlag    bool
	outDirFlag    string
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Upload rule files and a claims spreadsheet, starting a validation job",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := gate.Require("claimsctl validate"); err != nil {
			return err
		}

		var set model.UploadSet
		var err error

		if technicalFlag != "" {
			if set.TechnicalRules, err = readFileInput(technicalFlag); err != nil {
				return err
			}
		}
		if medicalFlag != "" {
			if set.MedicalRules, err = readFileInput(medicalFlag); err != nil {
				return err
			}
		}
		if claimsFlag != "" {
			if set.Claims, err = readFileInput(claimsFlag); err != nil {
				return err
			}
		}

		jobID, err := orchestrator.Run(cmd.Context(), set)
		if err != nil {
			return err
		}

		fmt.Println("Validation started, job id:", jobID)
		fmt.Printf("Fetch results with: claimsctl results %s\n", jobID)
		return nil
	},
}

var resultsCmd = &cobra.Command{
	Use:   "results <job-id>",
	Short: "Fetch all validation rows and metrics for a job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := gate.Require("claimsctl results"); err != nil {
			return err
		}
		jobID := args[0]

		report, err := aggregator.FetchReport(cmd.Context(), jobID)
		if err != nil {
			return err
		}

		printReport(report)

		if exportFlag {
			path, err := aggregator.Export(cmd.Context(), jobID, exportDir())
			if err != nil {
				return err
			}
			fmt.Println("\nExport written to", path)
		}
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export <job-id>",
	Short: "Download the CSV export for a job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := gate.Require("claimsctl export"); err != nil {
			return err
		}

		path, err := aggregator.Export(cmd.Context(), args[0], exportDir())
		if err != nil {
			return err
		}
		fmt.Println("Export written to", path)
		return nil
	},
}

func exportDir() string {
	if outDirFlag != "" {
		return outDirFlag
	}
	if cfg.Results.ExportDir != "" {
		return cfg.Results.ExportDir
	}
	return "."
}

func readFileInput(path string) (*model.FileInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return &model.FileInput{Name: filepath.Base(path), Data: data}, nil
}

func printReport(report *results.Report) {
	fmt.Printf("Results for job %s (%d claims)\n\n", report.JobID, len(report.Claims))

	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CLAIM ID\tENCOUNTER\tSERVICE\tFACILITY\tPAID (AED)\tERROR TYPE\tSTATUS")
	for _, claim := range report.Claims {
		paid := "-"
		if claim.PaidAmountAED != nil {
			paid = fmt.Sprintf("%.2f", *claim.PaidAmountAED)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			claim.ClaimID, orDash(claim.EncounterType), orDash(claim.ServiceCode),
			orDash(claim.FacilityID), paid, claim.ErrorType, claim.Status)
	}
	w.Flush()

	if report.Metrics == nil {
		return
	}
	fmt.Println("\nClaims by error type:")
	for errorType, count := range report.Metrics.ClaimsByErrorType {
		paid := report.Metrics.PaidAmountByErrorType[errorType]
		fmt.Printf("  %-18s %6d claims  %12.2f AED\n", errorType, count, paid)
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func init() {
	validateCmd.Flags().StringVar(&technicalFlag, "technical", "", "Technical rules file (.pdf or .json, optional)")
	validateCmd.Flags().StringVar(&medicalFlag, "medical", "", "Medical rules file (.pdf or .json, optional)")
	validateCmd.Flags().StringVar(&claimsFlag, "claims", "", "Claims spreadsheet (.xlsx, required)")
	resultsCmd.Flags().BoolVar(&exportFlag, "export", false, "Also download the CSV export")
	resultsCmd.Flags().StringVar(&outDirFlag, "out", "", "Directory for the exported CSV")
	exportCmd.Flags().StringVar(&outDirFlag, "out", "", "Directory for the exported CSV")
}
