package medium

// Keys shared by the services that persist into a Medium.
const (
	ProjectsKey           = "ip_projects_v1"
	ProjectsQuarantineKey = "ip_projects_v1_quarantine"
	ThemeKey              = "ip_theme"
	UsernameKey           = "ip_username"
	LoggedInKey           = "ip_logged_in"
)
