// Package catalog holds the immutable course listing senders choose from.
package catalog

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

var (
	// ErrEmptyCatalog is returned when a catalog file contains no courses.
	ErrEmptyCatalog = errors.New("catalog: no courses defined")

	// ErrDuplicateCode is returned when two courses share a code.
	ErrDuplicateCode = errors.New("catalog: duplicate course code")
)

// Course describes one offering. Timing is optional; some deployments
// publish batch timings and some do not.
type Course struct {
	Code   string `yaml:"code" json:"code"`
	Name   string `yaml:"name" json:"name"`
	Fee    string `yaml:"fee" json:"fee"`
	Timing string `yaml:"timing,omitempty" json:"timing,omitempty"`
}

// Catalog is an immutable code -> Course lookup. Build it once at startup;
// it is safe for concurrent readers.
type Catalog struct {
	byCode map[string]Course
	codes  []string
}

// New validates the given courses and builds a catalog.
func New(courses []Course) (*Catalog, error) {
	if len(courses) == 0 {
		return nil, ErrEmptyCatalog
	}
	byCode := make(map[string]Course, len(courses))
	codes := make([]string, 0, len(courses))
	for _, c := range courses {
		if c.Code == "" {
			return nil, fmt.Errorf("catalog: course %q has no code", c.Name)
		}
		if c.Name == "" || c.Fee == "" {
			return nil, fmt.Errorf("catalog: course %q requires name and fee", c.Code)
		}
		if _, exists := byCode[c.Code]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateCode, c.Code)
		}
		byCode[c.Code] = c
		codes = append(codes, c.Code)
	}
	sort.Strings(codes)
	return &Catalog{byCode: byCode, codes: codes}, nil
}

// LoadFile reads a YAML catalog of the form:
//
//	courses:
//	  - code: "1"
//	    name: CA Foundation
//	    fee: ₹25,000
//	    timing: 7AM-10AM, 6PM-9PM
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	var doc struct {
		Courses []Course `yaml:"courses"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("catalog: parse %s: %w", path, err)
	}
	return New(doc.Courses)
}

// Default returns the built-in commerce coaching catalog.
func Default() *Catalog {
	cat, err := New([]Course{
		{Code: "1", Name: "CA Foundation", Fee: "₹25,000", Timing: "7AM-10AM, 6PM-9PM"},
		{Code: "2", Name: "CA Intermediate", Fee: "₹35,000", Timing: "6AM-9AM, 5PM-8PM"},
		{Code: "3", Name: "CMA Foundation", Fee: "₹22,000", Timing: "8AM-11AM, 4PM-7PM"},
		{Code: "4", Name: "Class 11th Commerce", Fee: "₹18,000", Timing: "9AM-12PM"},
		{Code: "5", Name: "Class 12th Commerce", Fee: "₹20,000", Timing: "3PM-6PM"},
	})
	if err != nil {
		panic(err)
	}
	return cat
}

// Get looks up a course by its code.
func (c *Catalog) Get(code string) (Course, bool) {
	course, ok := c.byCode[code]
	return course, ok
}

// Codes returns all course codes in sorted order.
func (c *Catalog) Codes() []string {
	out := make([]string, len(c.codes))
	copy(out, c.codes)
	return out
}

// Len reports how many courses the catalog holds.
func (c *Catalog) Len() int {
	return len(c.byCode)
}
