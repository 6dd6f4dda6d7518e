package session

// Theme is the persisted color scheme preference
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Valid reports whether t is a known theme.
func (t Theme) Valid() bool {
	return t == ThemeLight || t == ThemeDark
}

// Opposite returns the other theme.
func (t Theme) Opposite() Theme {
	if t == ThemeDark {
		return ThemeLight
	}
	return ThemeDark
}

// Session is the locally remembered login state. Any credentials are accepted;
// the username is only a display name.
type Session struct {
	Username string `json:"username"`
	LoggedIn bool   `json:"logged_in"`
}

// Profile describes the user shown on the dashboard and in exports
type Profile struct {
	Name  string `json:"name"`
	Role  string `json:"role"`
	Email string `json:"email"`
}
