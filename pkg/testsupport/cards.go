package testsupport

import "github.com/goliatone/go-cardgen/pkg/card"

// DashboardCard returns a document touching most payload kinds, aliases
// included ("stats" resolves to analytics). Fresh copy per call, safe to
// mutate.
func DashboardCard() *card.Card {
	return &card.Card{
		ID:            "acme-q3",
		Title:         "Acme Quarterly",
		Subtitle:      "Q3 operating review",
		Type:          card.TypeDashboard,
		SchemaVersion: card.SchemaVersion,
		Sections: []card.Section{
			{
				Type:  "overview",
				Title: "Summary",
				Text:  "Steady growth across all regions.",
			},
			{
				Type:  "stats",
				Title: "Key figures",
				Fields: []card.Field{
					{Label: "ARR", Value: "$12.4M", Trend: card.TrendUp},
					{Label: "Churn", Value: "2.1%", Trend: card.TrendDown},
				},
			},
			{
				Type:  "chart",
				Title: "Signups",
				Chart: &card.ChartData{
					Kind:   card.ChartBar,
					Labels: []string{"Jul", "Aug", "Sep"},
					Series: []card.ChartSeries{{Name: "Signups", Values: []float64{820, 940, 1210}}},
				},
			},
			{
				Type:  "table",
				Title: "Top accounts",
				Table: &card.TableData{
					Columns: []string{"Account", "MRR"},
					Rows:    [][]string{{"Globex", "$18k"}, {"Initech", "$11k"}},
				},
			},
		},
		Actions: []card.Action{
			{ID: "export", Label: "Export", Href: "/export", Style: card.StylePrimary},
		},
	}
}

// MinimalCard returns the smallest useful document: one text section.
func MinimalCard() *card.Card {
	return &card.Card{
		ID:    "note",
		Title: "Note",
		Sections: []card.Section{
			{Type: "info", Text: "hello"},
		},
	}
}
