package model

import "time"

// User is the authenticated account as returned by the backend.
type User struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	Avatar    *string   `json:"avatar"`
	Bio       *string   `json:"bio"`
	IsActive  bool      `json:"is_active"`
	LinkLimit int       `json:"link_limit"`
	Theme     *Theme    `json:"theme"`
	Links     []Link    `json:"links,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Theme describes how the public profile page is styled.
type Theme struct {
	BackgroundType        string  `json:"backgroundType,omitempty"`
	BackgroundColor       string  `json:"backgroundColor,omitempty"`
	BackgroundGradient    string  `json:"backgroundGradient,omitempty"`
	BackgroundImage       *string `json:"backgroundImage,omitempty"`
	TextColor             string  `json:"textColor,omitempty"`
	FontFamily            string  `json:"fontFamily,omitempty"`
	ButtonStyle           string  `json:"buttonStyle,omitempty"`
	ButtonType            string  `json:"buttonType,omitempty"`
	ButtonBackgroundColor string  `json:"buttonBackgroundColor,omitempty"`
	ButtonTextColor       string  `json:"buttonTextColor,omitempty"`
}

const (
	BackgroundSolid    = "solid"
	BackgroundGradient = "gradient"
	BackgroundImage    = "image"
)

// DefaultTheme returns the styling used when a profile leaves a field unset.
func DefaultTheme() Theme {
	return Theme{
		BackgroundType:        BackgroundGradient,
		BackgroundColor:       "#4f46e5",
		BackgroundGradient:    "from-indigo-500 via-purple-500 to-pink-500",
		TextColor:             "#ffffff",
		FontFamily:            "sans",
		ButtonStyle:           "rounded-full",
		ButtonType:            "solid",
		ButtonBackgroundColor: "#00ff88",
		ButtonTextColor:       "#f5f5f0",
	}
}

// WithDefaults fills every empty field of t from DefaultTheme.
func (t *Theme) WithDefaults() Theme {
	out := DefaultTheme()
	if t == nil {
		return out
	}
	if t.BackgroundType != "" {
		out.BackgroundType = t.BackgroundType
	}
	if t.BackgroundColor != "" {
		out.BackgroundColor = t.BackgroundColor
	}
	if t.BackgroundGradient != "" {
		out.BackgroundGradient = t.BackgroundGradient
	}
	if t.BackgroundImage != nil && *t.BackgroundImage != "" {
		img := *t.BackgroundImage
		out.BackgroundImage = &img
	}
	if t.TextColor != "" {
		out.TextColor = t.TextColor
	}
	if t.FontFamily != "" {
		out.FontFamily = t.FontFamily
	}
	if t.ButtonStyle != "" {
		out.ButtonStyle = t.ButtonStyle
	}
	if t.ButtonType != "" {
		out.ButtonType = t.ButtonType
	}
	if t.ButtonBackgroundColor != "" {
		out.ButtonBackgroundColor = t.ButtonBackgroundColor
	}
	if t.ButtonTextColor != "" {
		out.ButtonTextColor = t.ButtonTextColor
	}
	return out
}

// PublicProfile is the unauthenticated view of a user and their links.
type PublicProfile struct {
	User  User   `json:"user"`
	Links []Link `json:"links"`
}

// ProfileUpdate carries the profile and theme fields to change. Nil means unchanged.
type ProfileUpdate struct {
	Name             *string
	Bio              *string
	Avatar           *Upload
	Theme            *Theme
	BackgroundImage  *Upload
	RemoveBackground bool
}

// Credentials are the login form fields.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration are the sign-up form fields.
type Registration struct {
	Name                 string `json:"name"`
	Username             string `json:"username"`
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}
