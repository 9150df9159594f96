package descriptor

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"

	"pddlenv/internal/pddl"
)

//go:embed domains
var embeddedDomains embed.FS

// Embedded returns the built-in domain called name.
func Embedded(name string) (*DomainSpec, error) {
	data, err := embeddedDomains.ReadFile(path.Join("domains", name+".yaml"))
	if err != nil {
		return nil, fmt.Errorf("no embedded domain %q: %w", name, pddl.ErrUnknownName)
	}
	return DecodeDomain(data)
}

// EmbeddedNames lists the built-in domains.
func EmbeddedNames() []string {
	entries, _ := fs.ReadDir(embeddedDomains, "domains")
	var names []string
	for _, e := range entries {
		if n, ok := strings.CutSuffix(e.Name(), ".yaml"); ok {
			names = append(names, n)
		}
	}
	slices.Sort(names)
	return names
}

// Blocks builds the embedded blocks world domain.
func Blocks() (*pddl.Domain, error) {
	spec, err := Embedded("blocks")
	if err != nil {
		return nil, err
	}
	return spec.Build()
}
