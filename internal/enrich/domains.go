package enrich

import (
	_ "embed"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/cases"
	"gopkg.in/yaml.v3"
)

//go:embed domains.yaml
var defaultDomainsYAML []byte

var fold = cases.Fold()

// Domains maps institution names to email domains.
type Domains struct {
	byName map[string]string
}

// ParseDomains reads a table with a top-level "domains" mapping.
func ParseDomains(data []byte) (*Domains, error) {
	var wrapper struct {
		Domains map[string]string `yaml:"domains"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, eris.Wrap(err, "enrich: parse domains")
	}
	d := &Domains{byName: make(map[string]string, len(wrapper.Domains))}
	for name, domain := range wrapper.Domains {
		d.Add(name, domain)
	}
	return d, nil
}

// LoadDomains reads a domains table from a YAML file.
func LoadDomains(path string) (*Domains, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "enrich: read domains %s", path)
	}
	return ParseDomains(data)
}

// DefaultDomains returns the built-in table.
func DefaultDomains() *Domains {
	d, err := ParseDomains(defaultDomainsYAML)
	if err != nil {
		panic(err)
	}
	return d
}

// Add registers or replaces one entry.
func (d *Domains) Add(name, domain string) {
	name, domain = key(name), strings.ToLower(strings.TrimSpace(domain))
	if name == "" || domain == "" {
		return
	}
	d.byName[name] = domain
}

// Merge copies every entry of other into d.
func (d *Domains) Merge(other *Domains) {
	if other == nil {
		return
	}
	for k, v := range other.byName {
		d.byName[k] = v
	}
}

// Lookup returns the domain for an institution name, or "".
func (d *Domains) Lookup(name string) string {
	if d == nil {
		return ""
	}
	return d.byName[key(name)]
}

// Len returns the number of entries.
func (d *Domains) Len() int {
	if d == nil {
		return 0
	}
	return len(d.byName)
}

func key(name string) string {
	return fold.String(strings.Join(strings.Fields(name), " "))
}
