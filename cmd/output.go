package cmd

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/MShoaei/HeadlineMiner/bots"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

func renderTable(w io.Writer, terms []string, result bots.CrawlResult) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Term", "Posted", "Headline", "Link"})

	total := 0
	for _, term := range terms {
		tr := result[term]
		if tr == nil {
			continue
		}
		for _, a := range tr.Articles {
			t.AppendRow(table.Row{term, a.PostedAt.Local().Format("2006-01-02 15:04"), text.Trim(a.Headline, 70), a.Link})
		}
		status := fmt.Sprintf("%d articles, %d pages", len(tr.Articles), tr.Pages)
		if tr.Err != nil {
			status += ", error: " + tr.Err.Error()
		}
		t.AppendRow(table.Row{term, "", status, ""})
		t.AppendSeparator()
		total += len(tr.Articles)
	}
	t.AppendFooter(table.Row{"", "", fmt.Sprintf("total %d", total), ""})
	t.Render()
}

func writeCSV(path string, terms []string, result bots.CrawlResult) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"term", "headline", "posted", "text", "link"}); err != nil {
		return err
	}
	for _, term := range terms {
		tr := result[term]
		if tr == nil {
			continue
		}
		for _, a := range tr.Articles {
			if err := w.Write([]string{term, a.Headline, a.PostedAt.Format(time.RFC3339), a.Body, a.Link}); err != nil {
				return err
			}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}

func writeJSON(path string, result bots.CrawlResult) error {
	data, err := json.MarshalIndent(result.Articles(), "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
