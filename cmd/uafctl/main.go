package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"uaftools-backend/lib/exporter"
	"uaftools-backend/lib/scrapers/attendance"
	"uaftools-backend/lib/scrapers/lms"
	"uaftools-backend/lib/transcript"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	lmsHost       string
	attendanceUrl string
	strictTLS     bool
	jsonOut       bool
	xlsxOut       string
	showGpa       bool
)

var rootCmd = &cobra.Command{
	Use:   "uafctl",
	Short: "Scrape UAF transcripts from the command line",
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape <registration-number>",
	Short: "Fetch and merge results from the lms and attendance portals",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		registration := args[0]
		ctx := context.Background()

		lmsClient, err := lms.NewClient(lms.ClientOptions{
			Host:      lmsHost,
			StrictTLS: strictTLS,
		})
		if err != nil {
			return err
		}
		lmsOut := lmsClient.FetchTranscript(ctx, registration)

		attOut := transcript.Failure("attendance portal not queried")
		if attendanceUrl != "" {
			attClient, err := attendance.NewClient(attendance.ClientOptions{
				BaseUrl: attendanceUrl,
			})
			if err != nil {
				return err
			}
			attOut = attClient.FetchAttendance(ctx, registration)
		}

		merged := transcript.Merge(lmsOut, attOut)
		if !merged.Success {
			return fmt.Errorf("%s", merged.Message)
		}

		if jsonOut {
			return json.NewEncoder(os.Stdout).Encode(merged)
		}
		if xlsxOut != "" {
			f, err := os.Create(xlsxOut)
			if err != nil {
				return err
			}
			defer f.Close()
			if err := exporter.WriteXlsx(f, merged.Records); err != nil {
				return err
			}
			fmt.Printf("wrote %d records to %s\n", len(merged.Records), xlsxOut)
			return nil
		}

		renderTable(merged.Records)
		if showGpa {
			renderGpa(transcript.SummarizeGPA(merged.Records))
		}
		return nil
	},
}

func renderTable(records []transcript.CourseRecord) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Semester", "Code", "Title", "Credits", "Mid", "Asg", "Final", "Prac", "Total", "Grade"})
	for _, r := range records {
		t.AppendRow(table.Row{
			r.Semester, r.CourseCode, r.CourseTitle, r.CreditHours,
			r.Mid, r.Assignment, r.Final, r.Practical, r.Total, r.Grade,
		})
	}
	t.SetStyle(table.StyleLight)
	t.Render()
}

func renderGpa(summary transcript.GPASummary) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Semester", "Credits", "GPA"})
	for _, s := range summary.Semesters {
		t.AppendRow(table.Row{s.Semester, s.CreditHours, fmt.Sprintf("%.3f", s.GPA)})
	}
	t.AppendFooter(table.Row{"CGPA", summary.CreditHours, fmt.Sprintf("%.3f", summary.CGPA)})
	t.SetStyle(table.StyleLight)
	t.Render()
}

func main() {
	scrapeCmd.Flags().StringVar(&lmsHost, "lms-host", lms.DefaultHost, "lms portal host")
	scrapeCmd.Flags().StringVar(&attendanceUrl, "attendance-url", "", "attendance portal base url")
	scrapeCmd.Flags().BoolVar(&strictTLS, "strict-tls", false, "fail on invalid portal certificates")
	scrapeCmd.Flags().BoolVar(&jsonOut, "json", false, "print the merged outcome as json")
	scrapeCmd.Flags().StringVar(&xlsxOut, "xlsx", "", "write the records to an xlsx file instead of printing")
	scrapeCmd.Flags().BoolVar(&showGpa, "gpa", true, "print the gpa summary below the results")
	rootCmd.AddCommand(scrapeCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
