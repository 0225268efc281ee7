package table

import (
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"
)

// Render 以终端表格形式输出当前可见页
// 参数: w 输出目标
func (t *Table) Render(w io.Writer) {
	if t.title != "" {
		fmt.Fprintln(w, t.title)
	}

	if t.loading {
		fmt.Fprintln(w, "Loading...")
		return
	}

	page := t.View()
	fmt.Fprintln(w, t.Summary())
	if len(page.Rows) == 0 {
		fmt.Fprintln(w, "No data found")
		return
	}

	header := []string{"ID"}
	for _, col := range t.columns {
		header = append(header, col.Label)
	}
	actionLabels := make([]string, 0, len(t.actions))
	for _, a := range t.actions {
		actionLabels = append(actionLabels, a.Key)
	}
	if len(actionLabels) > 0 {
		header = append(header, "Actions")
	}

	tw := tablewriter.NewWriter(w)
	tw.SetHeader(header)
	for _, rec := range page.Rows {
		id, _ := rec.ID()
		row := []string{id}
		for _, col := range t.columns {
			row = append(row, col.Cell(rec))
		}
		if len(actionLabels) > 0 {
			row = append(row, strings.Join(actionLabels, " | "))
		}
		tw.Append(row)
	}

	tw.SetAutoWrapText(false)
	tw.SetBorder(false)
	tw.SetCenterSeparator("|")
	tw.SetColumnSeparator("|")
	tw.SetRowSeparator("-")
	tw.SetHeaderAlignment(tablewriter.ALIGN_CENTER)
	tw.SetAlignment(tablewriter.ALIGN_LEFT)
	tw.Render()

	fmt.Fprintln(w, RangeText(page))
	if page.TotalPages > 1 {
		fmt.Fprintf(w, "Page %d of %d  %s\n", page.CurrentPage, page.TotalPages, windowText(page))
	}
}

// windowText 页码导航文本，当前页用方括号标出
func windowText(p Page) string {
	parts := []string{}
	for _, n := range PageWindow(p.CurrentPage, p.TotalPages) {
		if n == p.CurrentPage {
			parts = append(parts, fmt.Sprintf("[%d]", n))
			continue
		}
		parts = append(parts, fmt.Sprint(n))
	}
	return strings.Join(parts, " ")
}
