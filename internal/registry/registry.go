package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Default signal weights applied when a brand omits score_weights
// (or individual keys within it).
const (
	DefaultPatternWeight = 0.5
	DefaultSenderWeight  = 0.3
	DefaultSubjectWeight = 0.2
)

const defaultPriority = 1

// Brand is one resolved entry from the registry file. Pattern regexps are
// compiled once at load; entries that fail to compile are dropped for that
// brand only.
type Brand struct {
	Name            string
	Category        string
	Patterns        []string
	SenderDomains   []string
	SubjectContains []string
	PatternWeight   float64
	SenderWeight    float64
	SubjectWeight   float64
	Priority        int

	regexps []*regexp.Regexp
}

// MatchesText reports whether any of the brand's compiled patterns matches.
// Matching is case-insensitive; at most one pattern counts per brand.
func (b *Brand) MatchesText(text string) bool {
	for _, re := range b.regexps {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// MatchesSender reports whether any sender_domains entry is a
// case-insensitive substring of the sender address.
func (b *Brand) MatchesSender(sender string) bool {
	lower := strings.ToLower(sender)
	for _, d := range b.SenderDomains {
		if strings.Contains(lower, strings.ToLower(d)) {
			return true
		}
	}
	return false
}

// MatchesSubject reports whether any subject_contains entry is a
// case-insensitive substring of the subject.
func (b *Brand) MatchesSubject(subject string) bool {
	lower := strings.ToLower(subject)
	for _, s := range b.SubjectContains {
		if strings.Contains(lower, strings.ToLower(s)) {
			return true
		}
	}
	return false
}

// Registry is the immutable brand database. It is loaded once and safe for
// concurrent reads.
type Registry struct {
	brands map[string]*Brand
	names  []string
}

type rawBrand struct {
	Category        string             `yaml:"category"`
	Patterns        []string           `yaml:"patterns,omitempty"`
	SenderDomains   []string           `yaml:"sender_domains,omitempty"`
	SubjectContains []string           `yaml:"subject_contains,omitempty"`
	ScoreWeights    map[string]float64 `yaml:"score_weights,omitempty"`
	Priority        *int               `yaml:"priority,omitempty"`
}

type registryFile struct {
	Brands map[string]rawBrand `yaml:"brands"`
}

func weightOr(m map[string]float64, key string, fallback float64) float64 {
	if w, ok := m[key]; ok {
		return w
	}
	return fallback
}

func resolve(name string, raw rawBrand) (*Brand, error) {
	if raw.Category == "" {
		return nil, fmt.Errorf("brand %q: category is required", name)
	}

	b := &Brand{
		Name:            name,
		Category:        raw.Category,
		Patterns:        raw.Patterns,
		SenderDomains:   raw.SenderDomains,
		SubjectContains: raw.SubjectContains,
		PatternWeight:   weightOr(raw.ScoreWeights, "pattern", DefaultPatternWeight),
		SenderWeight:    weightOr(raw.ScoreWeights, "sender", DefaultSenderWeight),
		SubjectWeight:   weightOr(raw.ScoreWeights, "subject", DefaultSubjectWeight),
		Priority:        defaultPriority,
	}
	if raw.Priority != nil {
		b.Priority = *raw.Priority
	}

	for _, p := range raw.Patterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			// Bad patterns are skipped, not fatal; the brand's other
			// patterns still apply.
			continue
		}
		b.regexps = append(b.regexps, re)
	}
	return b, nil
}

func build(raws map[string]rawBrand) (*Registry, error) {
	r := &Registry{brands: make(map[string]*Brand, len(raws))}
	for name, raw := range raws {
		b, err := resolve(name, raw)
		if err != nil {
			return nil, err
		}
		r.brands[name] = b
		r.names = append(r.names, name)
	}
	sort.Strings(r.names)
	return r, nil
}

// LoadFromFile reads a YAML brand registry from path.
func LoadFromFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read brand registry: %w", err)
	}

	var file registryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse brand registry: %w", err)
	}
	if len(file.Brands) == 0 {
		return nil, fmt.Errorf("brand registry %s contains no brands", path)
	}
	return build(file.Brands)
}

// LoadFromDir merges every .yaml/.yml file in dir into one registry.
// Duplicate brand names across files are an error.
func LoadFromDir(dir string) (*Registry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read registry directory: %w", err)
	}

	merged := make(map[string]rawBrand)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		var file registryFile
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", name, err)
		}
		for brand, raw := range file.Brands {
			if _, ok := merged[brand]; ok {
				return nil, fmt.Errorf("brand %q defined in more than one registry file", brand)
			}
			merged[brand] = raw
		}
	}

	if len(merged) == 0 {
		return nil, fmt.Errorf("registry directory %s contains no brands", dir)
	}
	return build(merged)
}

// Names returns all brand names in sorted order. Iterating the registry in
// this order makes brand selection deterministic regardless of file layout.
func (r *Registry) Names() []string {
	return r.names
}

// Get returns the brand with the given name, or nil.
func (r *Registry) Get(name string) *Brand {
	return r.brands[name]
}

// Len returns the number of brands in the registry.
func (r *Registry) Len() int {
	return len(r.brands)
}
