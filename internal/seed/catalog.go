package seed

import (
	_ "embed"
	"fmt"
	"strings"
	"time"

	"respawn/internal/models"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:embed catalog.yml
var catalogYAML []byte

// CatalogGame is one entry of the built-in game catalog.
type CatalogGame struct {
	Slug        string   `yaml:"slug"`
	Title       string   `yaml:"title"`
	Developer   string   `yaml:"developer"`
	Publisher   string   `yaml:"publisher"`
	ReleaseDate string   `yaml:"releaseDate"`
	ESRBRating  string   `yaml:"esrbRating"`
	CriticScore *int     `yaml:"criticScore"`
	Genres      []string `yaml:"genres"`
	Tags        []string `yaml:"tags"`
	Platforms   []string `yaml:"platforms"`
	Description string   `yaml:"description"`
}

// Model converts the catalog entry into a persistable game.
func (g CatalogGame) Model() (models.Game, error) {
	game := models.Game{
		Slug:          g.Slug,
		Title:         g.Title,
		DescriptionMD: strings.TrimSpace(g.Description),
		Developer:     g.Developer,
		Publisher:     g.Publisher,
		Genres:        g.Genres,
		Tags:          g.Tags,
		Platforms:     g.Platforms,
		ESRBRating:    g.ESRBRating,
		CriticScore:   g.CriticScore,
		CoverURL:      fmt.Sprintf("https://picsum.photos/seed/%s/600/800", g.Slug),
	}
	if g.ReleaseDate != "" {
		released, err := time.Parse(time.DateOnly, g.ReleaseDate)
		if err != nil {
			return models.Game{}, fmt.Errorf("game %s: invalid releaseDate %q: %w", g.Slug, g.ReleaseDate, err)
		}
		game.ReleaseDate = &released
	}
	return game, nil
}

// LoadCatalog parses the embedded catalog.
func LoadCatalog() ([]CatalogGame, error) {
	return parseCatalog(catalogYAML)
}

func parseCatalog(raw []byte) ([]CatalogGame, error) {
	var doc struct {
		Games []CatalogGame `yaml:"games"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	seen := make(map[string]struct{}, len(doc.Games))
	for i, g := range doc.Games {
		if g.Slug == "" || g.Title == "" {
			return nil, fmt.Errorf("catalog entry %d: slug and title are required", i)
		}
		if _, dup := seen[g.Slug]; dup {
			return nil, fmt.Errorf("catalog entry %d: duplicate slug %q", i, g.Slug)
		}
		seen[g.Slug] = struct{}{}
	}
	return doc.Games, nil
}

// Catalog inserts every catalog game whose slug is not already present and
// returns how many rows were created. Existing games are left untouched.
func Catalog(db *gorm.DB) (int, error) {
	entries, err := LoadCatalog()
	if err != nil {
		return 0, err
	}

	games := make([]models.Game, 0, len(entries))
	for _, entry := range entries {
		game, err := entry.Model()
		if err != nil {
			return 0, err
		}
		games = append(games, game)
	}

	result := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "slug"}},
		DoNothing: true,
	}).Create(&games)
	if result.Error != nil {
		return 0, fmt.Errorf("insert catalog games: %w", result.Error)
	}
	return int(result.RowsAffected), nil
}
