// Package common provides shared types and components for UI features.
package common

// NavItem is one link in the top navigation.
type NavItem struct {
	Label string
	Href  string
}

// ShellData holds data needed for the page shell rendering.
type ShellData struct {
	Title       string
	CurrentPath string
	// UpdatesURL is the SSE endpoint the page subscribes to on load.
	UpdatesURL string
	IsDev      bool
}

// Nav lists the top-level pages.
var Nav = []NavItem{
	{Label: "Preview", Href: "/"},
	{Label: "History", Href: "/history"},
}
