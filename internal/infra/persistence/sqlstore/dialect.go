// Package sqlstore implements the recipe book store on database/sql. The
// sqlite and postgres packages supply a Dialect with their placeholder style,
// constraint classifier and embedded schema.
package sqlstore

import (
	"io/fs"
	"strconv"
	"strings"

	"recipekeeper/pkg/domain"
)

// Placeholder selects the bind variable style of a driver.
type Placeholder int

const (
	// Question binds positional "?" markers (SQLite).
	Question Placeholder = iota
	// Dollar binds numbered "$1" markers (PostgreSQL).
	Dollar
)

// Dialect describes the driver-specific parts of a relational backend.
type Dialect struct {
	Name        string
	Placeholder Placeholder
	// Classify converts a driver error into a typed constraint error. It
	// returns nil for errors that are not integrity violations.
	Classify func(err error) *domain.ConstraintError
	// Migrations holds *.sql files applied in lexical order.
	Migrations fs.FS
	// FoldTitle returns the ORDER BY expression that case-folds column. It
	// must agree with domain.CompareTitles. Nil means lower(column).
	FoldTitle func(column string) string
}

// Rebind rewrites "?" markers into the dialect's placeholder style. Queries in
// this package never contain literal question marks.
func (d Dialect) Rebind(query string) string {
	if d.Placeholder != Dollar {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (d Dialect) classify(err error) error {
	if err == nil || d.Classify == nil {
		return err
	}
	if ce := d.Classify(err); ce != nil {
		return ce
	}
	return err
}

func (d Dialect) foldTitle(column string) string {
	if d.FoldTitle == nil {
		return "lower(" + column + ")"
	}
	return d.FoldTitle(column)
}
