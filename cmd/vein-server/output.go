package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/pluslatte/gt6-vein-manager/internal/veins/types"
)

func printJSON(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	return nil
}

func printKV(rows [][2]string) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, row := range rows {
		_, _ = fmt.Fprintf(w, "%s\t%s\n", row[0], row[1])
	}
	_ = w.Flush()
}

func printTable(headers []string, rows [][]string) {
	if len(rows) == 0 {
		fmt.Println("no results")
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, strings.Join(headers, "\t"))
	for _, row := range rows {
		_, _ = fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	_ = w.Flush()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02 15:04:05")
}

func formatY(y *int) string {
	if y == nil {
		return "?"
	}
	return strconv.Itoa(*y)
}

func flag(b bool, label string) string {
	if b {
		return label
	}
	return ""
}

func printVeins(items []types.ResolvedVein) {
	rows := make([][]string, 0, len(items))
	for _, v := range items {
		status := strings.Join(nonEmpty(
			flag(v.Confirmed, "confirmed"),
			flag(v.Depleted, "depleted"),
			flag(v.Revoked, "revoked"),
			flag(v.IsBedrock, "bedrock"),
		), ",")
		note := "-"
		if v.Note != nil {
			note = *v.Note
		}
		rows = append(rows, []string{
			v.ID,
			v.Name,
			fmt.Sprintf("%d/%s/%d", v.X, formatY(v.Y), v.Z),
			status,
			note,
			formatTime(v.CreatedAt),
		})
	}
	printTable([]string{"ID", "NAME", "X/Y/Z", "STATUS", "NOTE", "CREATED"}, rows)
}

func printHistory(h types.VeinHistory) {
	printKV([][2]string{
		{"id", h.Vein.ID},
		{"name", h.Vein.Name},
		{"coords", fmt.Sprintf("%d/%s/%d", h.Vein.X, formatY(h.Vein.Y), h.Vein.Z)},
		{"created", formatTime(h.Vein.CreatedAt)},
	})
	fmt.Println()

	var rows [][]string
	for _, dim := range types.Dimensions {
		for _, e := range *h.Entries(dim) {
			rows = append(rows, []string{formatTime(e.CreatedAt), dim.Key(), strconv.FormatBool(e.Value)})
		}
	}
	for _, n := range h.Notes {
		rows = append(rows, []string{formatTime(n.CreatedAt), "note", n.Note})
	}
	printTable([]string{"AT", "LOG", "VALUE"}, rows)
}

func printInvitation(inv types.InvitationResponse) {
	email := "-"
	if inv.Email != nil {
		email = *inv.Email
	}
	printKV([][2]string{
		{"url", inv.InvitationURL},
		{"email", email},
		{"expires", inv.ExpiresAt.Format(time.RFC3339)},
	})
}

func nonEmpty(parts ...string) []string {
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
