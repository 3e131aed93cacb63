package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

type seedCategory struct {
	name, slug, description, icon string
	parent                        string // parent slug, empty for roots
}

// seedCategories lists roots before children so parents exist when a child
// is inserted.
var seedCategories = []seedCategory{
	{"Frontend", "frontend", "Rules for frontend development", "🎨", ""},
	{"Backend", "backend", "Rules for backend development", "⚙️", ""},
	{"Mobile", "mobile", "Rules for mobile development", "📱", ""},
	{"DevOps", "devops", "Rules for DevOps and deployment", "🚀", ""},
	{"Database", "database", "Rules for databases and data modelling", "🗄️", ""},
	{"General", "general", "General development rules and best practices", "📋", ""},

	{"React", "react", "Rules for the React framework", "⚛️", "frontend"},
	{"Vue", "vue", "Rules for the Vue framework", "💚", "frontend"},
	{"Next.js", "nextjs", "Rules for the Next.js framework", "▲", "frontend"},
	{"TypeScript", "typescript", "Rules for TypeScript", "🔷", "frontend"},
	{"Tailwind CSS", "tailwind", "Rules for Tailwind CSS styling", "🎨", "frontend"},
	{"Svelte", "svelte", "Rules for the Svelte framework", "🧡", "frontend"},

	{"Node.js", "nodejs", "Rules for Node.js backends", "💚", "backend"},
	{"Python", "python", "Rules for Python", "🐍", "backend"},
	{"FastAPI", "fastapi", "Rules for the FastAPI framework", "⚡", "backend"},
	{"Go", "go", "Rules for Go", "🐹", "backend"},
}

var seedTags = []struct{ name, color string }{
	{"TypeScript", "#3178c6"},
	{"JavaScript", "#f7df1e"},
	{"React", "#61dafb"},
	{"Vue", "#4fc08d"},
	{"Python", "#3776ab"},
	{"Node.js", "#339933"},
	{"CSS", "#1572b6"},
	{"HTML", "#e34f26"},
	{"FastAPI", "#009688"},
	{"Next.js", "#000000"},
	{"Tailwind", "#06b6d4"},
	{"Svelte", "#ff3e00"},
}

type seedRule struct {
	title, description, content string
	category                    string
	views, likes, downloads     int
	tags                        []string
}

var seedRules = []seedRule{
	{
		title:       "React Component Best Practices",
		description: "Naming, structure and performance guidelines for React components",
		content: "# React Component Rules\n\n## Naming\n- Name components in PascalCase\n- Match the file name to the component name\n\n" +
			"## Structure\n- Keep each component to a single responsibility\n- Prefer function components and Hooks\n- Avoid deep component nesting\n\n" +
			"## Performance\n- Wrap pure components in React.memo\n- Use useMemo and useCallback deliberately\n- Do not create objects or functions during render\n",
		category: "react", views: 156, likes: 89, downloads: 234,
		tags: []string{"React", "JavaScript", "TypeScript"},
	},
	{
		title:       "Vue 3 Composition API Guide",
		description: "Conventions for the Vue 3 Composition API",
		content: "# Vue 3 Composition API Rules\n\n## setup\n- Use `<script setup>` to cut boilerplate\n- Group reactive state by feature\n\n" +
			"## Reactivity\n- Use ref and reactive\n- Know when toRefs is needed\n\n" +
			"## Lifecycle\n- Use the composition lifecycle hooks: onMounted, onUpdated, onUnmounted\n",
		category: "vue", views: 98, likes: 67, downloads: 145,
		tags: []string{"Vue", "JavaScript"},
	},
	{
		title:       "Node.js Backend Conventions",
		description: "Project layout, error handling and security for Node.js services",
		content: "# Node.js Backend Rules\n\n## Project layout\n- Separate routes, controllers and services\n\n" +
			"## Error handling\n- Use one error-handling middleware\n- Return accurate HTTP status codes\n\n" +
			"## Security\n- Validate and sanitise all input\n- Serve over HTTPS\n- Implement authentication and authorisation\n",
		category: "nodejs", views: 203, likes: 134, downloads: 189,
		tags: []string{"Node.js", "JavaScript"},
	},
	{
		title:       "Python Code Style Guide",
		description: "Python style rules following PEP 8",
		content: "# Python Style Rules\n\n## PEP 8\n- Indent with 4 spaces\n- Keep lines under 79 characters\n- Two blank lines between top-level definitions\n\n" +
			"## Naming\n- snake_case for variables and functions\n- PascalCase for classes\n- UPPER_CASE for constants\n\n" +
			"## Docstrings\n- Document every public function\n- Use Google or NumPy style\n",
		category: "python", views: 167, likes: 92, downloads: 156,
		tags: []string{"Python"},
	},
	{
		title:       "TypeScript Type Definition Best Practices",
		description: "Using the TypeScript type system effectively",
		content: "# TypeScript Type Rules\n\n## Definitions\n- Prefer interface over type for object shapes\n- Use generics to share logic\n\n" +
			"## Strictness\n- Enable strict mode\n- Avoid any\n\n" +
			"## Utility types\n- Know Partial, Required, Pick and Omit\n- Write custom utility types where they pay off\n",
		category: "typescript", views: 189, likes: 112, downloads: 201,
		tags: []string{"TypeScript"},
	},
	{
		title:       "Next.js Full-Stack Guide",
		description: "Routing, data fetching and performance in Next.js",
		content: "# Next.js Rules\n\n## Routing\n- Use file-system routing\n- Use dynamic routes sparingly\n\n" +
			"## Data fetching\n- Static generation where possible\n- Server rendering for per-request data\n- SWR for client-side fetching\n\n" +
			"## Performance\n- Optimise images with next/image\n- Split code and lazy-load heavy modules\n",
		category: "react", views: 145, likes: 78, downloads: 167,
		tags: []string{"Next.js", "React", "TypeScript"},
	},
}

// Seed populates an empty catalog with the starter categories, tags and
// approved sample rules. It is a no-op when any category already exists,
// so it is safe to call on every start.
func Seed(ctx context.Context, db *sql.DB) error {
	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM categories").Scan(&count); err != nil {
		return fmt.Errorf("seed check categories: %w", err)
	}

	if count > 0 {
		slog.Info("database already seeded, skipping")
		return nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("seed begin: %w", err)
	}
	defer tx.Rollback()

	categoryIDs := make(map[string]uuid.UUID, len(seedCategories))
	for _, c := range seedCategories {
		var parentID *uuid.UUID
		if c.parent != "" {
			id, ok := categoryIDs[c.parent]
			if !ok {
				return fmt.Errorf("seed category %s: unknown parent %s", c.slug, c.parent)
			}
			parentID = &id
		}

		var id uuid.UUID
		err := tx.QueryRowContext(ctx, `
			INSERT INTO categories (name, slug, description, icon, parent_id)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id
		`, c.name, c.slug, c.description, c.icon, parentID).Scan(&id)
		if err != nil {
			return fmt.Errorf("seed category %s: %w", c.slug, err)
		}
		categoryIDs[c.slug] = id
	}

	tagIDs := make(map[string]uuid.UUID, len(seedTags))
	for _, t := range seedTags {
		var id uuid.UUID
		err := tx.QueryRowContext(ctx,
			`INSERT INTO tags (name, color) VALUES ($1, $2) RETURNING id`, t.name, t.color,
		).Scan(&id)
		if err != nil {
			return fmt.Errorf("seed tag %s: %w", t.name, err)
		}
		tagIDs[t.name] = id
	}

	for _, r := range seedRules {
		var id uuid.UUID
		err := tx.QueryRowContext(ctx, `
			INSERT INTO rules (title, content, description, category_id, status, views, likes, downloads)
			VALUES ($1, $2, $3, $4, 'approved', $5, $6, $7)
			RETURNING id
		`, r.title, r.content, r.description, categoryIDs[r.category], r.views, r.likes, r.downloads).Scan(&id)
		if err != nil {
			return fmt.Errorf("seed rule %q: %w", r.title, err)
		}
		for _, name := range r.tags {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO rule_tags (rule_id, tag_id) VALUES ($1, $2)`, id, tagIDs[name],
			); err != nil {
				return fmt.Errorf("seed rule tag %s: %w", name, err)
			}
		}
	}

	// Keep the denormalized column in step with the computed counts.
	if _, err := tx.ExecContext(ctx, `
		UPDATE categories c SET rule_count = (
			SELECT COUNT(*) FROM rules r WHERE r.category_id = c.id AND r.status = 'approved'
		)
	`); err != nil {
		return fmt.Errorf("seed rule counts: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed commit: %w", err)
	}

	slog.Info("database seeded",
		"categories", len(seedCategories),
		"tags", len(seedTags),
		"rules", len(seedRules),
	)
	return nil
}
