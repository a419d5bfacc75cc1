package feed

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

type TermGroup struct {
	Aliases []string `yaml:"aliases"`
	Brands  []string `yaml:"brands"`
}

// Terms is the GLP-1 vocabulary used for relevance scoring and for
// expanding search queries.
type Terms struct {
	Weights     map[string]float64   `yaml:"weights"`
	Drugs       map[string]TermGroup `yaml:"drugs"`
	Indications map[string]TermGroup `yaml:"indications"`
	DrugClasses map[string]TermGroup `yaml:"drug_classes"`
	Companies   map[string]TermGroup `yaml:"companies"`
	Regulatory  []string             `yaml:"regulatory"`
}

var defaultWeights = map[string]float64{
	"indication": 3,
	"drug_class": 3,
	"drug_name":  4,
	"brand_name": 4,
	"company":    1,
	"regulatory": 2,
}

func DefaultTerms() *Terms {
	return &Terms{
		Weights: defaultWeights,
		Drugs: map[string]TermGroup{
			"semaglutide": {Aliases: []string{"semaglutide"}, Brands: []string{"Ozempic", "Wegovy", "Rybelsus"}},
			"tirzepatide": {Aliases: []string{"tirzepatide"}, Brands: []string{"Mounjaro", "Zepbound"}},
			"liraglutide": {Aliases: []string{"liraglutide"}, Brands: []string{"Victoza", "Saxenda"}},
			"dulaglutide": {Aliases: []string{"dulaglutide"}, Brands: []string{"Trulicity"}},
			"exenatide":   {Aliases: []string{"exenatide"}, Brands: []string{"Byetta", "Bydureon"}},
		},
		Indications: map[string]TermGroup{
			"obesity":         {Aliases: []string{"obesity", "weight management", "weight loss", "chronic weight"}},
			"type_2_diabetes": {Aliases: []string{"type 2 diabetes", "t2d", "diabetes mellitus"}},
			"cardiovascular":  {Aliases: []string{"cardiovascular risk", "mace"}},
		},
		DrugClasses: map[string]TermGroup{
			"glp1": {Aliases: []string{"glp-1", "glp1", "glucagon-like peptide", "incretin"}},
		},
		Companies: map[string]TermGroup{
			"novo_nordisk": {Aliases: []string{"novo nordisk"}},
			"eli_lilly":    {Aliases: []string{"eli lilly", "lilly"}},
		},
		Regulatory: []string{"warning letter", "approval", "approves", "shortage", "recall", "compounded"},
	}
}

// LoadTerms reads a terms file. A missing file yields DefaultTerms.
func LoadTerms(path string) (*Terms, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			slog.Debug("Terms file not found, using built-in terms", "path", path)
			return DefaultTerms(), nil
		}
		return nil, fmt.Errorf("failed to read terms file: %w", err)
	}

	var terms Terms
	if err := yaml.Unmarshal(data, &terms); err != nil {
		return nil, fmt.Errorf("failed to parse terms YAML: %w", err)
	}

	if terms.Weights == nil {
		terms.Weights = make(map[string]float64, len(defaultWeights))
	}
	for k, v := range defaultWeights {
		if _, ok := terms.Weights[k]; !ok {
			terms.Weights[k] = v
		}
	}

	return &terms, nil
}

// Expand returns every alias and brand of the drug or indication groups the
// query names. Unknown queries expand to themselves.
func (t *Terms) Expand(query string) []string {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	var out []string
	for _, groups := range []map[string]TermGroup{t.Drugs, t.Indications} {
		for name, g := range groups {
			if !g.names(name).contains(query) {
				continue
			}
			for _, n := range g.names(name) {
				if !slices.ContainsFunc(out, func(s string) bool { return strings.EqualFold(s, n) }) {
					out = append(out, n)
				}
			}
		}
	}

	if len(out) == 0 {
		return []string{query}
	}
	slices.Sort(out)
	return out
}

type nameList []string

func (nl nameList) contains(s string) bool {
	return slices.ContainsFunc(nl, func(n string) bool { return strings.EqualFold(n, s) })
}

func (g TermGroup) names(key string) nameList {
	names := nameList{strings.ReplaceAll(key, "_", " ")}
	names = append(names, g.Aliases...)
	names = append(names, g.Brands...)
	return names
}
