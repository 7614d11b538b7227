// Package setup implements the interactive configure wizard and the product
// catalog it picks from.
package setup

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultCatalogPath is the catalog file shipped next to the binary.
const DefaultCatalogPath = "products.json"

var (
	// ErrCatalogNotFound indicates the catalog file does not exist
	ErrCatalogNotFound = errors.New("product catalog not found")

	// ErrInvalidCatalog indicates the catalog is not a nested object of strings
	ErrInvalidCatalog = errors.New("invalid product catalog")
)

// Catalog is the product menu: type -> classification -> part number -> title.
// Entries keep their file order so menus are numbered as written.
type Catalog struct {
	Types []ProductType
}

type ProductType struct {
	Name            string
	Classifications []Classification
}

type Classification struct {
	Name   string
	Models []Model
}

// Model is one orderable part.
type Model struct {
	PartNumber string
	Title      string
}

// LoadCatalog reads a JSON (or YAML) catalog file.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrCatalogNotFound, path)
		}
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes catalog data. JSON is parsed through the YAML decoder,
// which keeps object key order.
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	if len(c.Types) == 0 {
		return nil, fmt.Errorf("%w: no product types", ErrInvalidCatalog)
	}
	return &c, nil
}

func (c *Catalog) UnmarshalYAML(node *yaml.Node) error {
	return eachPair(node, func(name string, value *yaml.Node) error {
		t := ProductType{Name: name}
		err := eachPair(value, func(name string, value *yaml.Node) error {
			cl := Classification{Name: name}
			err := eachPair(value, func(part string, value *yaml.Node) error {
				var title string
				if err := value.Decode(&title); err != nil {
					return fmt.Errorf("part %s: %w", part, err)
				}
				cl.Models = append(cl.Models, Model{PartNumber: part, Title: title})
				return nil
			})
			t.Classifications = append(t.Classifications, cl)
			return err
		})
		c.Types = append(c.Types, t)
		return err
	})
}

func eachPair(node *yaml.Node, fn func(key string, value *yaml.Node) error) error {
	if node.Kind == yaml.DocumentNode && len(node.Content) == 1 {
		node = node.Content[0]
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: expected an object", node.Line)
	}
	if len(node.Content) == 0 {
		return fmt.Errorf("line %d: empty object", node.Line)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if err := fn(node.Content[i].Value, node.Content[i+1]); err != nil {
			return err
		}
	}
	return nil
}
