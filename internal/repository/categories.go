package repository

import "github.com/sakif/ysws-hunt/internal/model"

// DefaultCategories is the reference data every store seeds on migration.
var DefaultCategories = []model.Category{
	{ID: "ai-ml", Name: "AI & ML", Slug: "ai-ml", Color: "#eab308"},
	{ID: "developer-tools", Name: "Developer Tools", Slug: "developer-tools", Color: "#10b981"},
	{ID: "games", Name: "Games", Slug: "games", Color: "#a855f7"},
	{ID: "hardware", Name: "Hardware", Slug: "hardware", Color: "#f97316"},
	{ID: "mobile", Name: "Mobile", Slug: "mobile", Color: "#ec4899"},
	{ID: "web-apps", Name: "Web Apps", Slug: "web-apps", Color: "#3b82f6"},
}
