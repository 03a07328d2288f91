package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"kwdetect/internal/detector"
	"kwdetect/internal/store"
)

const (
	ansiBold  = "\033[1m"
	ansiReset = "\033[0m"
)

// featureLabel turns "file-name" into "File Name".
func featureLabel(f detector.Feature) string {
	return cases.Title(language.English).String(strings.ReplaceAll(f.String(), "-", " "))
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func heading(w io.Writer, line string) {
	if shouldColorize(w) {
		line = ansiBold + line + ansiReset
	}
	fmt.Fprintln(w, line)
}

// histogramReport is the JSON shape of a rendered histogram.
type histogramReport struct {
	Feature           detector.Feature `json:"feature"`
	SearchesProcessed int64            `json:"searches_processed"`
	DistinctTokens    int              `json:"distinct_tokens"`
	TotalCount        int              `json:"total_count"`
	Entries           []detector.Entry `json:"entries"`
}

func newHistogramReport(feature detector.Feature, processed int64, entries []detector.Entry, top int) histogramReport {
	report := histogramReport{
		Feature:           feature,
		SearchesProcessed: processed,
		DistinctTokens:    len(entries),
		Entries:           detector.Top(entries, top),
	}
	for _, e := range entries {
		report.TotalCount += e.Count
	}
	return report
}

func writeHistogram(w io.Writer, report histogramReport) {
	heading(w, fmt.Sprintf("%s (%d searches, %d distinct tokens)", featureLabel(report.Feature), report.SearchesProcessed, report.DistinctTokens))
	if len(report.Entries) == 0 {
		fmt.Fprintln(w, "No keywords recorded")
		return
	}

	rows := make([][]string, 0, len(report.Entries))
	for i, e := range report.Entries {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			e.Token,
			strconv.Itoa(e.Count),
			fmt.Sprintf("%.1f%%", 100*float64(e.Count)/float64(report.TotalCount)),
		})
	}
	fmt.Fprintln(w, renderTable(
		[]string{"#", "Token", "Count", "Share"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignRight, alignRight},
	))
}

func writeSnapshotList(w io.Writer, snapshots []store.Snapshot) {
	if len(snapshots) == 0 {
		fmt.Fprintln(w, "No snapshots stored")
		return
	}
	rows := make([][]string, 0, len(snapshots))
	for _, s := range snapshots {
		rows = append(rows, []string{
			s.ID,
			s.Feature.String(),
			s.TakenAt.Local().Format(time.DateTime),
			strconv.FormatInt(s.SearchesProcessed, 10),
			strconv.Itoa(s.DistinctTokens),
			strconv.Itoa(s.TotalCount),
		})
	}
	fmt.Fprintln(w, renderTable(
		[]string{"ID", "Feature", "Taken", "Searches", "Tokens", "Total"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight},
	))
}
