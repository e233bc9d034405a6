package formatter

import (
	"fmt"
	"strings"
)

const (
	filledBlock = "█"
	emptyBlock  = "░"
)

// RenderQuota renders a quota meter like [████░░░░] 2/5.
// The bar turns yellow past two thirds and red when the ceiling is reached.
func RenderQuota(used, limit, width int) string {
	if width < 2 {
		width = 2
	}
	if limit <= 0 {
		return fmt.Sprintf("[%s] %d/%d", StyleDim.Render(strings.Repeat(emptyBlock, width)), used, limit)
	}

	pct := min(max(float64(used)/float64(limit), 0), 1)
	filled := min(int(pct*float64(width)), width)
	bar := strings.Repeat(filledBlock, filled) + strings.Repeat(emptyBlock, width-filled)

	style := StyleGreen
	switch {
	case used >= limit:
		style = StyleRed
	case pct > 0.66:
		style = StyleYellow
	}
	return fmt.Sprintf("[%s] %d/%d", style.Render(bar), used, limit)
}
