package cluster

import (
	"errors"
	"slices"
	"sort"
	"strings"
)

// ErrInvalidLabel indicates a label that cannot be shown to users.
var ErrInvalidLabel = errors.New("invalid cluster label")

// Label is the human-readable name of a cluster.
type Label struct {
	title       string
	description string
}

// NewLabel creates a Label, trimming whitespace. The title is required.
func NewLabel(title, description string) (Label, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return Label{}, ErrInvalidLabel
	}
	return Label{title: title, description: strings.TrimSpace(description)}, nil
}

// Title returns the short title.
func (l Label) Title() string { return l.title }

// Description returns the one-line description.
func (l Label) Description() string { return l.description }

// Cluster is a labeled group of a user's resources.
type Cluster struct {
	id          int
	label       Label
	resourceIDs []string
	icon        string
	color       string
}

// New creates a Cluster.
func New(id int, label Label, resourceIDs []string, icon, color string) Cluster {
	return Cluster{
		id:          id,
		label:       label,
		resourceIDs: slices.Clone(resourceIDs),
		icon:        icon,
		color:       color,
	}
}

// ID returns the k-means cluster index.
func (c Cluster) ID() int { return c.id }

// Title returns the cluster title.
func (c Cluster) Title() string { return c.label.title }

// Description returns the cluster description.
func (c Cluster) Description() string { return c.label.description }

// Count returns the number of member resources.
func (c Cluster) Count() int { return len(c.resourceIDs) }

// ResourceIDs returns the member resource IDs.
func (c Cluster) ResourceIDs() []string { return slices.Clone(c.resourceIDs) }

// Icon returns the display icon name.
func (c Cluster) Icon() string { return c.icon }

// Color returns the display color as a hex string.
func (c Cluster) Color() string { return c.color }

// Default display palette.
var (
	DefaultIcons  = []string{"BookOpen", "Code", "Lightbulb", "GraduationCap"}
	DefaultColors = []string{"#3b82f6", "#10b981", "#f59e0b", "#8b5cf6"}
)

// Palette picks icons and colors by cluster index.
type Palette struct {
	icons  []string
	colors []string
}

// NewPalette creates a Palette. Empty lists fall back to the defaults.
func NewPalette(icons, colors []string) Palette {
	if len(icons) == 0 {
		icons = DefaultIcons
	}
	if len(colors) == 0 {
		colors = DefaultColors
	}
	return Palette{icons: slices.Clone(icons), colors: slices.Clone(colors)}
}

// DefaultPalette returns the built-in palette.
func DefaultPalette() Palette {
	return NewPalette(nil, nil)
}

// Icon returns the icon for cluster index i.
func (p Palette) Icon(i int) string {
	if len(p.icons) == 0 {
		return DefaultIcons[i%len(DefaultIcons)]
	}
	return p.icons[i%len(p.icons)]
}

// Color returns the color for cluster index i.
func (p Palette) Color(i int) string {
	if len(p.colors) == 0 {
		return DefaultColors[i%len(DefaultColors)]
	}
	return p.colors[i%len(p.colors)]
}

// TopTags returns the n most frequent tags across tagSets, most frequent
// first, with ties broken alphabetically.
func TopTags(tagSets [][]string, n int) []string {
	counts := map[string]int{}
	for _, tags := range tagSets {
		for _, t := range tags {
			counts[t]++
		}
	}
	tags := make([]string, 0, len(counts))
	for t := range counts {
		tags = append(tags, t)
	}
	sort.Slice(tags, func(i, j int) bool {
		if counts[tags[i]] != counts[tags[j]] {
			return counts[tags[i]] > counts[tags[j]]
		}
		return tags[i] < tags[j]
	})
	if n < len(tags) {
		tags = tags[:n]
	}
	return tags
}
