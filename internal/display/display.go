// Package display renders transcript entries for the terminal: markdown
// display nodes, attachment chips and the market-intelligence panel.
package display

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/sagealpha/sagecli/internal/api"
	"github.com/sagealpha/sagecli/internal/chat"
	"github.com/sagealpha/sagecli/internal/markdown"
)

// RenderEntry formats one transcript entry.
func RenderEntry(e chat.Entry) string {
	var b strings.Builder

	switch {
	case e.Role == chat.RoleUser:
		b.WriteString(userStyle.Render("You: "))
		b.WriteString(e.Content)
		for _, att := range e.Attachments {
			b.WriteString("\n")
			b.WriteString(attachmentStyle.Render(fmt.Sprintf("  %s %s", fileIcon(att.MIMEType), att.Filename)))
		}

	case e.Pending():
		b.WriteString(pendingStyle.Render("⏳ " + e.Content))

	case e.Intelligence != nil:
		b.WriteString(RenderIntelligence(e.Intelligence, e.Ticker))

	case e.UsageLimit:
		b.WriteString(limitStyle.Render("⚠️  " + e.Content))

	case e.Status == chat.StatusFailed:
		b.WriteString(errorStyle.Render("❌ " + e.Content))

	default:
		b.WriteString(RenderNodes(markdown.Render(e.Content)))
	}

	return b.String()
}

// RenderMessage formats one read-only backend message, used by the shared
// chat and session views.
func RenderMessage(m api.Message) string {
	entry := chat.Entry{
		Role:        chat.Role(m.Role),
		Status:      chat.StatusResolved,
		Content:     m.Content,
		Attachments: m.Attachments,
	}
	return RenderEntry(entry)
}

// RenderNodes flattens display nodes into styled terminal text.
func RenderNodes(nodes []markdown.Node) string {
	var parts []string
	for _, n := range nodes {
		switch n.Kind {
		case markdown.NodeHeading:
			parts = append(parts, headingStyle.Render(strings.Repeat("#", n.Level)+" "+renderSpans(n.Spans)))
		case markdown.NodeList:
			var items []string
			for _, item := range n.Items {
				items = append(items, "  • "+renderSpans(item))
			}
			parts = append(parts, strings.Join(items, "\n"))
		case markdown.NodeRule:
			parts = append(parts, ruleStyle.Render(strings.Repeat("─", 40)))
		case markdown.NodeBreak:
			parts = append(parts, "")
		default:
			parts = append(parts, renderSpans(n.Spans))
		}
	}
	return strings.Join(parts, "\n")
}

func renderSpans(spans []markdown.Span) string {
	var b strings.Builder
	for _, s := range spans {
		switch s.Kind {
		case markdown.SpanBold:
			b.WriteString(boldStyle.Render(s.Text))
		case markdown.SpanLink:
			b.WriteString(linkStyle.Render(s.Text))
			b.WriteString(mutedStyle.Render(" (" + s.URL + ")"))
		case markdown.SpanDownload:
			b.WriteString(downloadStyle.Render("⬇ " + s.Text))
			if s.ReportID != "" {
				b.WriteString(mutedStyle.Render(" [report " + s.ReportID + "]"))
			}
		default:
			b.WriteString(s.Text)
		}
	}
	return b.String()
}

// DownloadIDs collects the report ids behind download controls in a message
// body, in reading order.
func DownloadIDs(content string) []string {
	var ids []string
	for _, n := range markdown.Render(content) {
		spanLists := [][]markdown.Span{n.Spans}
		spanLists = append(spanLists, n.Items...)
		for _, spans := range spanLists {
			for _, s := range spans {
				if s.Kind == markdown.SpanDownload && s.ReportID != "" {
					ids = append(ids, s.ReportID)
				}
			}
		}
	}
	return ids
}

// RenderIntelligence draws the market-intelligence panel.
func RenderIntelligence(data *api.Intelligence, ticker string) string {
	if data == nil {
		return mutedStyle.Render("No market intelligence data available.")
	}
	if ticker == "" {
		ticker = data.Ticker
	}

	var b strings.Builder
	b.WriteString(headingStyle.Render("Market Intelligence: " + ticker))
	if data.AnalysisDate != "" {
		b.WriteString(mutedStyle.Render("   Analysis Date: " + data.AnalysisDate))
	}
	b.WriteString("\n\n")

	if !data.DataQuality.FinancialsAvailable {
		reason := data.DataQuality.Reason
		if reason == "" {
			reason = "Some insights are based on limited financial data. Please verify important information from official sources."
		}
		b.WriteString(noticeStyle.Render("⚠ Limited Financial Data"))
		b.WriteString("\n")
		b.WriteString(reason)
		b.WriteString("\n")
		for _, s := range data.DataQuality.Suggestions {
			b.WriteString("  • " + s + "\n")
		}
		b.WriteString("\n")
	}

	label := strings.ToUpper(data.Sentiment.Label)
	if label == "" {
		label = "NEUTRAL"
	}
	b.WriteString(sentimentStyle(label).Render(label))
	b.WriteString(mutedStyle.Render("   Score: " + FormatScore(data.Sentiment.Score)))
	b.WriteString("\n")
	if data.Sentiment.Summary != "" {
		b.WriteString(data.Sentiment.Summary)
		b.WriteString("\n")
	}
	b.WriteString("\n")

	risk := strings.ToUpper(data.RiskAssessment.OverallRisk)
	if risk == "" {
		risk = "UNKNOWN"
	}
	b.WriteString("Risk Assessment: ")
	b.WriteString(riskStyle(risk).Render(risk + " RISK"))
	b.WriteString("\n")
	if suit := data.RiskAssessment.Suitability; suit != nil {
		explanation := suit.Explanation
		if explanation == "" {
			explanation = "Risk assessment completed"
		}
		b.WriteString(explanation)
		b.WriteString("\n")
		if suit.Warning != "" {
			b.WriteString(noticeStyle.Render("⚠️ " + suit.Warning))
			b.WriteString("\n")
		}
	}
	b.WriteString("\n")

	if data.BullCase.Summary != "" || len(data.BullCase.Signals) > 0 {
		b.WriteString(bullishStyle.Render("📈 Bull Case"))
		b.WriteString("\n")
		if data.BullCase.Summary != "" {
			b.WriteString(data.BullCase.Summary)
			b.WriteString("\n")
		}
		for _, s := range data.BullCase.Signals {
			b.WriteString("  • " + s + "\n")
		}
		b.WriteString("\n")
	}

	if data.BearCase.Summary != "" || len(data.BearCase.Risks) > 0 {
		b.WriteString(bearishStyle.Render("📉 Bear Case"))
		b.WriteString("\n")
		if data.BearCase.Summary != "" {
			b.WriteString(data.BearCase.Summary)
			b.WriteString("\n")
		}
		for _, r := range data.BearCase.Risks {
			b.WriteString("  • " + r + "\n")
		}
		b.WriteString("\n")
	}

	if data.Metadata.ProcessingTimeMs > 0 {
		secs := decimal.NewFromInt(data.Metadata.ProcessingTimeMs).
			Div(decimal.NewFromInt(1000)).
			Round(2)
		b.WriteString(mutedStyle.Render("Processing time: " + secs.String() + "s"))
		b.WriteString("\n")
	}
	if data.Metadata.IngestionTriggered {
		b.WriteString(mutedStyle.Render("Fresh data ingestion was triggered for this ticker."))
		b.WriteString("\n")
	}

	return panelStyle.Render(strings.TrimRight(b.String(), "\n"))
}

// FormatScore renders a unit-interval sentiment score as a percentage.
func FormatScore(score float64) string {
	return decimal.NewFromFloat(score).
		Mul(decimal.NewFromInt(100)).
		Round(1).
		String() + "%"
}

// FormatFileSize renders a byte count in the nearest binary unit.
func FormatFileSize(bytes int64) string {
	if bytes == 0 {
		return "0 Bytes"
	}
	units := []string{"Bytes", "KB", "MB", "GB"}
	value := decimal.NewFromInt(bytes)
	k := decimal.NewFromInt(1024)
	idx := 0
	for idx < len(units)-1 && value.GreaterThanOrEqual(k) {
		value = value.Div(k)
		idx++
	}
	return value.Round(2).String() + " " + units[idx]
}

func sentimentStyle(label string) lipgloss.Style {
	switch label {
	case "BULLISH", "POSITIVE":
		return bullishStyle
	case "BEARISH", "NEGATIVE":
		return bearishStyle
	default:
		return neutralStyle
	}
}

func riskStyle(risk string) lipgloss.Style {
	switch risk {
	case "LOW":
		return lowRiskStyle
	case "HIGH":
		return highRiskStyle
	default:
		return mediumRiskStyle
	}
}

func fileIcon(mimeType string) string {
	switch {
	case strings.HasPrefix(mimeType, "image/"):
		return "🖼"
	case strings.HasPrefix(mimeType, "audio/"):
		return "🎵"
	case strings.HasPrefix(mimeType, "application/"):
		return "📄"
	default:
		return "📎"
	}
}
