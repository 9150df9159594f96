// Package descriptor loads planning domains and problems from structured
// YAML documents. It does not parse PDDL text: a document is already a
// decoded description of types, predicates, actions, objects and literals.
package descriptor

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// RootType is the implicit ancestor of every declared type.
const RootType = "object"

// Document is a problem file. The domain is given inline or by reference
// to an embedded domain name or a YAML file relative to the document.
type Document struct {
	Domain    *DomainSpec `yaml:"domain,omitempty"`
	DomainRef string      `yaml:"domain_ref,omitempty"`
	Problem   ProblemSpec `yaml:"problem"`

	// Solution, when known, is the length of a shortest plan. -1 marks an
	// unsolvable problem. It is only used by tests and the CLI.
	Solution *int `yaml:"solution,omitempty"`
}

// DomainSpec describes a domain.
type DomainSpec struct {
	Name       string          `yaml:"name"`
	Types      []TypeSpec      `yaml:"types,omitempty"`
	Constants  []ObjectSpec    `yaml:"constants,omitempty"`
	Predicates []PredicateSpec `yaml:"predicates,omitempty"`
	Actions    []ActionSpec    `yaml:"actions,omitempty"`
}

// TypeSpec declares a type. An empty parent means RootType.
type TypeSpec struct {
	Name   string `yaml:"name"`
	Parent string `yaml:"parent,omitempty"`
}

// TypeRef names one type or a union of types. In YAML it is either a
// scalar or a sequence of scalars.
type TypeRef []string

// UnmarshalYAML accepts "block" as well as [block, table].
func (r *TypeRef) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*r = TypeRef{node.Value}
		return nil
	case yaml.SequenceNode:
		var names []string
		if err := node.Decode(&names); err != nil {
			return err
		}
		*r = names
		return nil
	default:
		return fmt.Errorf("line %d: type must be a name or a list of names", node.Line)
	}
}

// PredicateSpec declares a predicate with one type reference per argument.
type PredicateSpec struct {
	Name   string    `yaml:"name"`
	Params []TypeRef `yaml:"params,omitempty"`
}

// ParamSpec is an action variable. An empty type accepts any object.
type ParamSpec struct {
	Name string  `yaml:"name"`
	Type TypeRef `yaml:"type,omitempty"`
}

// LiteralSpec is a predicate name followed by its arguments, written as a
// flow sequence: [on, ?x, ?y].
type LiteralSpec []string

func (l LiteralSpec) String() string {
	return "(" + strings.Join(l, " ") + ")"
}

// ActionSpec declares a STRIPS action schema.
type ActionSpec struct {
	Name   string        `yaml:"name"`
	Params []ParamSpec   `yaml:"params,omitempty"`
	Pre    []LiteralSpec `yaml:"pre,omitempty"`
	Add    []LiteralSpec `yaml:"add,omitempty"`
	Del    []LiteralSpec `yaml:"del,omitempty"`
}

// ObjectSpec declares an object or constant.
type ObjectSpec struct {
	Name string `yaml:"name"`
	Type string `yaml:"type,omitempty"`
}

// ProblemSpec describes a problem instance.
type ProblemSpec struct {
	Name    string        `yaml:"name"`
	Objects []ObjectSpec  `yaml:"objects,omitempty"`
	Init    []LiteralSpec `yaml:"init,omitempty"`
	Goal    []LiteralSpec `yaml:"goal"`
}

// Decode parses a document.
func Decode(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	return &doc, nil
}

// DecodeDomain parses a standalone domain.
func DecodeDomain(data []byte) (*DomainSpec, error) {
	var spec DomainSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("failed to parse domain: %w", err)
	}
	return &spec, nil
}

// ReadFile reads a document and resolves its domain reference.
func ReadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	doc, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if doc.Domain == nil {
		spec, err := resolveDomain(doc.DomainRef, filepath.Dir(path))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		doc.Domain = spec
	}
	return doc, nil
}

func resolveDomain(ref, dir string) (*DomainSpec, error) {
	if ref == "" {
		return nil, fmt.Errorf("document has neither domain nor domain_ref")
	}
	if spec, err := Embedded(ref); err == nil {
		return spec, nil
	}
	path := ref
	if !filepath.IsAbs(path) {
		path = filepath.Join(dir, ref)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("domain %q is neither embedded nor readable: %w", ref, err)
	}
	return DecodeDomain(data)
}
