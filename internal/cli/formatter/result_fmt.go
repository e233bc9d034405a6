package formatter

import (
	"fmt"
	"strings"

	"github.com/gdkelly153/Nuudle-MVP-sub000/internal/assist"
	"github.com/gdkelly153/Nuudle-MVP-sub000/internal/domain"
)

// FormatResult renders an assistance result with its usage footer.
func FormatResult(res *assist.Result) string {
	var b strings.Builder

	switch res.Kind {
	case assist.KindSuccess:
		b.WriteString(RenderBox(string(res.Stage), strings.TrimSpace(res.Response)))
		b.WriteString("\n")
		fmt.Fprintf(&b, "%s  %s  %s\n",
			Dim(fmt.Sprintf("#%d", res.InteractionID)),
			Dim(fmt.Sprintf("%d tokens", res.TokensUsed)),
			StyleBlue.Render(FormatCost(res.Cost)),
		)
	case assist.KindNoAssistance:
		b.WriteString(Dim("No assistance is available for this step."))
		b.WriteString("\n")
	default:
		b.WriteString(KindIndicator(res.Kind) + "  " + StyleFg.Render(res.Error) + "\n")
		if res.Fallback != "" {
			b.WriteString(Dim(res.Fallback) + "\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(FormatUsageLine(res.Usage))
	return b.String()
}

// FormatUsageLine is the one-line quota footer.
func FormatUsageLine(u domain.UsageSnapshot) string {
	return fmt.Sprintf("%s %s   %s %s\n",
		Dim("session"), RenderQuota(u.SessionRequests, u.SessionLimit, 10),
		Dim("today"), RenderQuota(u.DailyRequests, u.DailyLimit, 10),
	)
}

// FormatUsage renders the full usage snapshot.
func FormatUsage(u domain.UsageSnapshot) string {
	var b strings.Builder
	b.WriteString(Header("Assistant usage"))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "%-9s %s\n", "Session", RenderQuota(u.SessionRequests, u.SessionLimit, 20))
	fmt.Fprintf(&b, "%-9s %s  %s\n", "Today", RenderQuota(u.DailyRequests, u.DailyLimit, 20), StyleBlue.Render(FormatCost(u.DailyCost)))

	if len(u.StageUsage) > 0 {
		b.WriteString("\n")
		rows := make([][]string, 0, len(u.StageUsage))
		for _, stage := range domain.Stages() {
			n, ok := u.StageUsage[stage]
			if !ok {
				continue
			}
			rows = append(rows, []string{string(stage), RenderQuota(n, u.StageLimit, 10)})
		}
		b.WriteString(RenderTable([]string{"STEP", "USED"}, rows))
	}
	return b.String()
}

// FormatSummary renders a structured session summary.
func FormatSummary(s *domain.Summary) string {
	var b strings.Builder
	b.WriteString(Header(s.Title))
	b.WriteString("\n\n")
	b.WriteString(StyleFg.Render(s.ProblemOverview))
	b.WriteString("\n")

	if len(s.KeyInsights) > 0 {
		b.WriteString("\n" + Bold("Key insights") + "\n")
		for _, in := range s.KeyInsights {
			b.WriteString("  • " + in + "\n")
		}
	}

	b.WriteString("\n" + Bold("Action plan") + "\n")
	b.WriteString("  " + StyleGreen.Render(s.ActionPlan.PrimaryAction) + "\n")
	for _, a := range s.ActionPlan.SupportingActions {
		b.WriteString("  • " + a + "\n")
	}
	if s.ActionPlan.Timeline != "" {
		b.WriteString("  " + Dim("Timeline: "+s.ActionPlan.Timeline) + "\n")
	}

	b.WriteString("\n" + Bold("Strengths") + "\n  " + s.Feedback.Strengths + "\n")
	b.WriteString("\n" + Bold("Room to grow") + "\n  " + s.Feedback.AreasForGrowth + "\n")
	if s.Conclusion != "" {
		b.WriteString("\n" + StylePurple.Render(s.Conclusion) + "\n")
	}
	return b.String()
}
