package view

import (
	"strings"
	"testing"

	"github.com/sifan077/PowerLink/internal/app/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderProfilePage(t *testing.T) {
	bio := "hello <world>"
	icon := "https://cdn.example/icon.png"
	profile := &model.PublicProfile{
		User: model.User{
			Name:     "Ana",
			Username: "ana",
			Bio:      &bio,
			Theme:    &model.Theme{BackgroundType: model.BackgroundSolid, BackgroundColor: "#123456", ButtonType: "outline"},
		},
		Links: []model.Link{
			{ID: 3, Title: "Blog", Icon: &icon},
			{ID: 5, Title: "Shop"},
		},
	}

	html, err := RenderProfilePage(NewProfilePageData(profile))
	require.NoError(t, err)

	assert.Contains(t, html, `href="/ana/go/3"`)
	assert.Contains(t, html, `href="/ana/go/5"`)
	assert.Contains(t, html, "background: #123456")
	assert.Contains(t, html, "hello &lt;world&gt;")
	assert.Contains(t, html, icon)
	assert.Less(t, strings.Index(html, "Blog"), strings.Index(html, "Shop"))
	assert.NotContains(t, html, "ZgotmplZ")
}

func TestRenderProfilePage_Empty(t *testing.T) {
	html, err := RenderProfilePage(NewProfilePageData(&model.PublicProfile{User: model.User{Username: "bob"}}))
	require.NoError(t, err)
	assert.Contains(t, html, "No links yet.")
	assert.Contains(t, html, "linear-gradient(135deg, #6366f1, #a855f7, #ec4899)")
}

func TestStyleFor(t *testing.T) {
	tests := []struct {
		name  string
		theme *model.Theme
		check func(t *testing.T, s PageStyle)
	}{
		{
			name:  "defaults",
			theme: nil,
			check: func(t *testing.T, s PageStyle) {
				assert.Equal(t, "#ffffff", string(s.TextColor))
				assert.Equal(t, "999px", string(s.ButtonRadius))
				assert.False(t, s.ButtonOutline)
				assert.Contains(t, string(s.FontFamily), "sans-serif")
			},
		},
		{
			name:  "injection is replaced by default",
			theme: &model.Theme{BackgroundType: model.BackgroundSolid, BackgroundColor: "red;}</style><script>", TextColor: "expression(alert(1))"},
			check: func(t *testing.T, s PageStyle) {
				assert.Equal(t, "#4f46e5", string(s.Background))
				assert.Equal(t, "#ffffff", string(s.TextColor))
			},
		},
		{
			name:  "custom gradient",
			theme: &model.Theme{BackgroundGradient: "from-blue-500 to-emerald-500"},
			check: func(t *testing.T, s PageStyle) {
				assert.Equal(t, "linear-gradient(135deg, #3b82f6, #10b981)", string(s.Background))
			},
		},
		{
			name:  "image background and serif",
			theme: &model.Theme{BackgroundType: model.BackgroundImage, BackgroundImage: ptr("https://s/bg.jpg"), FontFamily: "serif", ButtonStyle: "rounded-none"},
			check: func(t *testing.T, s PageStyle) {
				assert.Equal(t, "https://s/bg.jpg", s.BackgroundImage)
				assert.Contains(t, string(s.FontFamily), "Georgia")
				assert.Equal(t, "0", string(s.ButtonRadius))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, StyleFor(tt.theme))
		})
	}
}

func TestRenderNotFoundPage(t *testing.T) {
	html, err := RenderNotFoundPage("<ghost>")
	require.NoError(t, err)
	assert.Contains(t, html, "@&lt;ghost&gt;")
}

func ptr(s string) *string { return &s }
