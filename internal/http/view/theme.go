package view

import (
	"fmt"
	"html/template"
	"regexp"
	"strings"

	"github.com/sifan077/PowerLink/internal/app/model"
)

var hexColor = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6}|[0-9a-fA-F]{8})$`)

// tailwindPalette maps the gradient stop classes offered in the settings page.
var tailwindPalette = map[string]string{
	"slate-500":   "#64748b",
	"gray-900":    "#111827",
	"red-500":     "#ef4444",
	"orange-500":  "#f97316",
	"amber-500":   "#f59e0b",
	"yellow-400":  "#facc15",
	"lime-500":    "#84cc16",
	"green-500":   "#22c55e",
	"emerald-500": "#10b981",
	"teal-500":    "#14b8a6",
	"cyan-500":    "#06b6d4",
	"sky-500":     "#0ea5e9",
	"blue-500":    "#3b82f6",
	"blue-600":    "#2563eb",
	"indigo-500":  "#6366f1",
	"violet-500":  "#8b5cf6",
	"purple-500":  "#a855f7",
	"purple-600":  "#9333ea",
	"fuchsia-500": "#d946ef",
	"pink-500":    "#ec4899",
	"rose-500":    "#f43f5e",
	"black":       "#000000",
	"white":       "#ffffff",
}

var fontStacks = map[string]string{
	"sans":  `ui-sans-serif, system-ui, -apple-system, "Segoe UI", sans-serif`,
	"serif": `ui-serif, Georgia, Cambria, "Times New Roman", serif`,
	"mono":  `ui-monospace, SFMono-Regular, Menlo, Consolas, monospace`,
}

var buttonRadius = map[string]string{
	"rounded-none": "0",
	"rounded-md":   "6px",
	"rounded-lg":   "12px",
	"rounded-xl":   "16px",
	"rounded-full": "999px",
}

// PageStyle is the CSS derived from a profile theme. Every value is built from a
// whitelist or a validated hex colour, so it is safe to emit unescaped.
type PageStyle struct {
	Background      template.CSS
	BackgroundImage string
	TextColor       template.CSS
	FontFamily      template.CSS
	ButtonRadius    template.CSS
	ButtonOutline   bool
	ButtonColor     template.CSS
	ButtonTextColor template.CSS
}

// StyleFor computes the page style of theme, falling back to defaults field by field.
func StyleFor(theme *model.Theme) PageStyle {
	t := theme.WithDefaults()
	def := model.DefaultTheme()

	style := PageStyle{
		TextColor:       template.CSS(color(t.TextColor, def.TextColor)),
		FontFamily:      template.CSS(lookup(fontStacks, t.FontFamily, def.FontFamily)),
		ButtonRadius:    template.CSS(lookup(buttonRadius, t.ButtonStyle, def.ButtonStyle)),
		ButtonOutline:   t.ButtonType == "outline",
		ButtonColor:     template.CSS(color(t.ButtonBackgroundColor, def.ButtonBackgroundColor)),
		ButtonTextColor: template.CSS(color(t.ButtonTextColor, def.ButtonTextColor)),
	}

	switch t.BackgroundType {
	case model.BackgroundSolid:
		style.Background = template.CSS(color(t.BackgroundColor, def.BackgroundColor))
	case model.BackgroundImage:
		style.Background = template.CSS(color(t.BackgroundColor, def.BackgroundColor))
		if t.BackgroundImage != nil {
			style.BackgroundImage = *t.BackgroundImage
		}
	default:
		style.Background = template.CSS(gradient(t.BackgroundGradient, def.BackgroundGradient))
	}
	return style
}

func color(value, fallback string) string {
	if hexColor.MatchString(value) {
		return value
	}
	return fallback
}

func lookup(table map[string]string, key, fallback string) string {
	if v, ok := table[key]; ok {
		return v
	}
	return table[fallback]
}

// gradient turns "from-x via-y to-z" classes into a linear-gradient.
func gradient(classes, fallback string) string {
	stops := gradientStops(classes)
	if len(stops) < 2 {
		stops = gradientStops(fallback)
	}
	return fmt.Sprintf("linear-gradient(135deg, %s)", strings.Join(stops, ", "))
}

func gradientStops(classes string) []string {
	var from, via, to string
	for _, class := range strings.Fields(classes) {
		name, value, ok := strings.Cut(class, "-")
		if !ok {
			continue
		}
		hex, known := tailwindPalette[value]
		if !known {
			continue
		}
		switch name {
		case "from":
			from = hex
		case "via":
			via = hex
		case "to":
			to = hex
		}
	}

	var stops []string
	for _, stop := range []string{from, via, to} {
		if stop != "" {
			stops = append(stops, stop)
		}
	}
	return stops
}
