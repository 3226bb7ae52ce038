package view

import (
	"bytes"
	"fmt"
	"html/template"
	"net/url"

	"github.com/sifan077/PowerLink/internal/app/model"
)

// ProfilePageData provides the dynamic fields required by the profile template.
type ProfilePageData struct {
	Name      string
	Username  string
	Bio       string
	AvatarURL string
	Links     []ProfileLink
	Style     PageStyle
}

// ProfileLink is one button on the profile page.
type ProfileLink struct {
	Title       string
	Description string
	IconURL     string
	Href        string
}

// NewProfilePageData prepares profile for rendering. Link buttons go through the
// click-through route so visits can be counted.
func NewProfilePageData(profile *model.PublicProfile) ProfilePageData {
	user := profile.User
	data := ProfilePageData{
		Name:     user.Name,
		Username: user.Username,
		Style:    StyleFor(user.Theme),
	}
	if data.Name == "" {
		data.Name = user.Username
	}
	if user.Bio != nil {
		data.Bio = *user.Bio
	}
	if user.Avatar != nil {
		data.AvatarURL = *user.Avatar
	}

	data.Links = make([]ProfileLink, 0, len(profile.Links))
	for _, l := range profile.Links {
		link := ProfileLink{
			Title: l.Title,
			Href:  fmt.Sprintf("/%s/go/%d", url.PathEscape(user.Username), l.ID),
		}
		if l.Description != nil {
			link.Description = *l.Description
		}
		if l.Icon != nil {
			link.IconURL = *l.Icon
		}
		data.Links = append(data.Links, link)
	}
	return data
}

var profilePageTmpl = template.Must(template.New("profile_page").Parse(`
<!DOCTYPE html>
<html lang="en">
<head>
	<meta charset="utf-8" />
	<meta name="viewport" content="width=device-width, initial-scale=1" />
	<title>{{.Name}} (@{{.Username}})</title>
	<style>
		* { box-sizing: border-box; }
		body {
			margin: 0;
			min-height: 100vh;
			display: flex;
			flex-direction: column;
			align-items: center;
			padding: 64px 16px;
			background: {{.Style.Background}};
			color: {{.Style.TextColor}};
			font-family: {{.Style.FontFamily}};
		}
		.bg {
			position: fixed;
			inset: 0;
			width: 100%;
			height: 100%;
			object-fit: cover;
			z-index: -1;
		}
		.header {
			display: flex;
			flex-direction: column;
			align-items: center;
			text-align: center;
			width: min(560px, 100%);
			margin-bottom: 40px;
		}
		.avatar {
			width: 96px;
			height: 96px;
			border-radius: 50%;
			object-fit: cover;
			border: 3px solid rgba(255, 255, 255, 0.6);
		}
		h1 { font-size: 1.5rem; margin: 16px 0 4px; }
		.bio { opacity: 0.85; margin: 8px 0 0; white-space: pre-line; }
		.links {
			display: flex;
			flex-direction: column;
			gap: 14px;
			width: min(560px, 100%);
		}
		a.link {
			display: flex;
			align-items: center;
			gap: 12px;
			padding: 14px 20px;
			border-radius: {{.Style.ButtonRadius}};
			text-decoration: none;
			transition: transform 0.15s ease, opacity 0.15s ease;
		{{- if .Style.ButtonOutline}}
			background: transparent;
			border: 2px solid {{.Style.ButtonColor}};
			color: {{.Style.ButtonColor}};
		{{- else}}
			background: {{.Style.ButtonColor}};
			border: 2px solid {{.Style.ButtonColor}};
			color: {{.Style.ButtonTextColor}};
		{{- end}}
		}
		a.link:hover { transform: translateY(-1px); opacity: 0.92; }
		.icon { width: 36px; height: 36px; border-radius: 8px; object-fit: cover; }
		.title { font-weight: 600; }
		.description { font-size: 0.85rem; opacity: 0.8; }
		.empty { opacity: 0.75; text-align: center; }
		footer { margin-top: 48px; font-size: 0.8rem; opacity: 0.7; }
	</style>
</head>
<body>
	{{if .Style.BackgroundImage}}<img class="bg" src="{{.Style.BackgroundImage}}" alt="" />{{end}}
	<div class="header">
		{{if .AvatarURL}}<img class="avatar" src="{{.AvatarURL}}" alt="{{.Name}}" />{{end}}
		<h1>{{.Name}}</h1>
		<div>@{{.Username}}</div>
		{{if .Bio}}<p class="bio">{{.Bio}}</p>{{end}}
	</div>

	<div class="links">
		{{range .Links}}
		<a class="link" href="{{.Href}}" rel="noopener">
			{{if .IconURL}}<img class="icon" src="{{.IconURL}}" alt="" />{{end}}
			<div>
				<div class="title">{{.Title}}</div>
				{{if .Description}}<div class="description">{{.Description}}</div>{{end}}
			</div>
		</a>
		{{else}}
		<p class="empty">No links yet.</p>
		{{end}}
	</div>

	<footer>PowerLink</footer>
</body>
</html>
`))

var notFoundPageTmpl = template.Must(template.New("not_found_page").Parse(`
<!DOCTYPE html>
<html lang="en">
<head>
	<meta charset="utf-8" />
	<meta name="viewport" content="width=device-width, initial-scale=1" />
	<title>Profile not found</title>
	<style>
		body {
			margin: 0;
			min-height: 100vh;
			display: flex;
			align-items: center;
			justify-content: center;
			background: #ebf5ee;
			color: #000;
			font-family: ui-sans-serif, system-ui, sans-serif;
		}
		.card { text-align: center; padding: 32px; }
		h1 { color: #01d49f; }
	</style>
</head>
<body>
	<div class="card">
		<h1>404</h1>
		<p>There is no profile called <strong>@{{.}}</strong>.</p>
	</div>
</body>
</html>
`))

// RenderProfilePage expands the profile page template with the provided data.
func RenderProfilePage(data ProfilePageData) (string, error) {
	var buf bytes.Buffer
	if err := profilePageTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RenderNotFoundPage renders the page shown for an unknown username.
func RenderNotFoundPage(username string) (string, error) {
	var buf bytes.Buffer
	if err := notFoundPageTmpl.Execute(&buf, username); err != nil {
		return "", err
	}
	return buf.String(), nil
}
