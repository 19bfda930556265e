// Package l10n resolves user-facing alert strings by key.
package l10n

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yaml
var builtin embed.FS

// Keys used by the alert presenter
const (
	KeyDashboardUpdateTimeout = "dashboardUpdateTimeout"
	KeyClusterNotResponding   = "clusterNotResponding"
	KeySessionTimeout         = "sessionTimeout"
	KeyLoginButton            = "loginButton"
	KeyServerErrorMessage     = "serverErrorMessage"
	KeyUnexpectedError        = "unexpectedError"
	KeyServerUnreachable      = "serverUnreachable"
	KeyJSONParserError        = "JSONParserError"
)

// Args are placeholder values substituted into a string as {name}
type Args map[string]any

// Catalog holds the strings of one locale
type Catalog struct {
	tag     language.Tag
	strings map[string]string
	logger  zerolog.Logger
}

// Load picks the catalog best matching locale. Catalogs found in dir, if any,
// are merged over the built-in ones key by key.
func Load(locale, dir string, logger zerolog.Logger) (*Catalog, error) {
	all, err := readCatalogs(builtin, "locales")
	if err != nil {
		return nil, fmt.Errorf("reading built-in catalogs: %w", err)
	}

	if dir != "" {
		extra, err := readCatalogs(os.DirFS(dir), ".")
		if err != nil {
			return nil, fmt.Errorf("reading catalogs from %s: %w", dir, err)
		}
		for tag, strs := range extra {
			if _, ok := all[tag]; !ok {
				all[tag] = make(map[string]string)
			}
			for k, v := range strs {
				all[tag][k] = v
			}
		}
	}

	want, err := language.Parse(locale)
	if err != nil {
		return nil, fmt.Errorf("invalid locale %q: %w", locale, err)
	}

	tags := make([]language.Tag, 0, len(all))
	names := make([]string, 0, len(all))
	for name := range all {
		names = append(names, name)
	}
	// en-US first so it is the matcher's fallback
	sort.Slice(names, func(i, j int) bool {
		if names[i] == "en-US" || names[j] == "en-US" {
			return names[i] == "en-US"
		}
		return names[i] < names[j]
	})
	for _, name := range names {
		tags = append(tags, language.MustParse(name))
	}

	_, idx, _ := language.NewMatcher(tags).Match(want)
	chosen := names[idx]

	return &Catalog{
		tag:     tags[idx],
		strings: all[chosen],
		logger:  logger.With().Str("component", "l10n").Str("locale", chosen).Logger(),
	}, nil
}

func readCatalogs(fsys fs.FS, dir string) (map[string]map[string]string, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, err
	}

	out := make(map[string]map[string]string)
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".yaml" {
			continue
		}
		name := strings.TrimSuffix(e.Name(), ".yaml")
		tag, err := language.Parse(name)
		if err != nil {
			return nil, fmt.Errorf("%s: not a locale name: %w", e.Name(), err)
		}

		data, err := fs.ReadFile(fsys, filepath.ToSlash(filepath.Join(dir, e.Name())))
		if err != nil {
			return nil, err
		}
		strs := make(map[string]string)
		if err := yaml.Unmarshal(data, &strs); err != nil {
			return nil, fmt.Errorf("%s: %w", e.Name(), err)
		}
		out[tag.String()] = strs
	}
	return out, nil
}

// Tag returns the locale actually in use
func (c *Catalog) Tag() language.Tag {
	return c.tag
}

// Lookup returns the string for key with args substituted. Unknown keys
// resolve to the key itself.
func (c *Catalog) Lookup(key string, args Args) string {
	s, ok := c.strings[key]
	if !ok {
		c.logger.Debug().Str("key", key).Msg("missing string")
		return key
	}
	if len(args) == 0 {
		return s
	}

	pairs := make([]string, 0, len(args)*2)
	for name, v := range args {
		pairs = append(pairs, "{"+name+"}", fmt.Sprint(v))
	}
	return strings.NewReplacer(pairs...).Replace(s)
}
