package service

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/gosimple/slug"
)

const (
	// SurrogateColumn orders rows and joins staged values back to their row.
	// It is never part of a user visible view.
	SurrogateColumn = "id"

	workingCopySuffix = "_copy"
	maxIdentifierLen  = 63
)

var identifierRegexp = regexp.MustCompile(`^[a-z_][a-z0-9_]{0,62}$`)

// NormalizeIdentifier turns a free form header or file name into a lowercase
// identifier with words joined by underscores. The result may still be
// invalid, for example when the input has no letters or digits at all.
func NormalizeIdentifier(name string) string {
	s := strings.ReplaceAll(slug.Make(name), "-", "_")

	if s != "" && s[0] >= '0' && s[0] <= '9' {
		s = "_" + s
	}

	if len(s) > maxIdentifierLen {
		s = strings.TrimRight(s[:maxIdentifierLen], "_")
	}

	return s
}

// ValidateIdentifier reports whether name can be quoted into a statement
// as a table or column name.
func ValidateIdentifier(name string) error {
	if !identifierRegexp.MatchString(name) {
		return fmt.Errorf("invalid identifier %q: must match %s", name, identifierRegexp.String())
	}

	return nil
}

// WorkingCopyName is the name of the mirror table the user edits.
func WorkingCopyName(dataset string) string {
	return dataset + workingCopySuffix
}

// ValidateDatasetName checks that both the canonical table and its working
// copy have valid names.
func ValidateDatasetName(name string) error {
	if err := ValidateIdentifier(name); err != nil {
		return err
	}

	if err := ValidateIdentifier(WorkingCopyName(name)); err != nil {
		return fmt.Errorf("dataset name %q is too long", name)
	}

	return nil
}

// UniqueColumnNames normalizes headers and makes them unique within the
// table. Empty headers become column_<n>, and a header that collides with
// the surrogate column is renamed source_id.
func UniqueColumnNames(headers []string) []string {
	seen := map[string]int{SurrogateColumn: 1}
	names := make([]string, len(headers))

	for i, h := range headers {
		name := NormalizeIdentifier(h)
		if name == "" {
			name = fmt.Sprintf("column_%d", i+1)
		}

		if name == SurrogateColumn {
			name = "source_id"
		}

		base := name
		for seen[name] > 0 {
			seen[base]++
			name = fmt.Sprintf("%s_%d", base, seen[base])
		}

		seen[name] = 1
		names[i] = name
	}

	return names
}
