package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/mindline-health/psychrec/internal/assessment"
	"github.com/mindline-health/psychrec/internal/config"
	"github.com/mindline-health/psychrec/internal/db"
	"github.com/mindline-health/psychrec/internal/export"
	"github.com/mindline-health/psychrec/internal/patient"
	"github.com/mindline-health/psychrec/internal/scale"
)

type exportFlags struct {
	driver    string
	dsn       string
	patientID string
	format    string
	out       string
}

func newExportCmd() *cobra.Command {
	f := &exportFlags{}
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export one patient's chart as JSON or a directory of CSV files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(f)
		},
	}
	cmd.Flags().StringVar(&f.driver, "driver", "", "Database driver: sqlite or postgres (default from DB_DRIVER)")
	cmd.Flags().StringVar(&f.dsn, "dsn", "", "Database DSN (default from DB_DSN)")
	cmd.Flags().StringVar(&f.patientID, "patient", "", "Patient ID (required)")
	cmd.Flags().StringVar(&f.format, "format", "json", "Output format: json or csv")
	cmd.Flags().StringVar(&f.out, "out", "", "JSON: output file (default stdout); CSV: output directory (required)")
	_ = cmd.MarkFlagRequired("patient")
	return cmd
}

func runExport(f *exportFlags) error {
	_ = godotenv.Load()
	cfg := config.FromEnv()
	if f.driver == "" {
		f.driver = cfg.DBDriver
	}
	if f.dsn == "" {
		f.dsn = cfg.DBDSN
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(f.driver), f.dsn)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer dbh.Close()

	catalog, err := scale.NewCatalog()
	if err != nil {
		return err
	}
	ex := &export.Exporter{
		Patients:    patient.NewSQLStore(dbh),
		Assessments: assessment.NewSQLStore(dbh, catalog),
	}
	b, err := ex.Collect(ctx, f.patientID)
	if err != nil {
		return err
	}

	switch f.format {
	case "json":
		w := os.Stdout
		if f.out != "" {
			fh, err := os.Create(f.out)
			if err != nil {
				return err
			}
			defer fh.Close()
			w = fh
		}
		return b.WriteJSON(w)
	case "csv":
		if f.out == "" {
			return fmt.Errorf("--out directory required for csv format")
		}
		if err := b.WriteCSV(f.out); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "wrote CSV files to %s\n", f.out)
		return nil
	default:
		return fmt.Errorf("unknown format: %s", f.format)
	}
}
