package database

import (
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yukikurage/case-billing-api/internal/utils"
)

// Paginate applies pagination to a GORM query
func Paginate(params utils.PaginationParams) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(params.Offset).Limit(params.Limit)
	}
}

// ForOrganization restricts a query to rows owned by organizationID.
// table qualifies the column when the query joins other tenant tables.
func ForOrganization(table string, organizationID uint64) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		column := "organization_id"
		if table != "" {
			column = table + ".organization_id"
		}
		return db.Where(column+" = ?", organizationID)
	}
}

// ForUpdate locks the selected rows until the transaction ends.
// sqlite has no row locks and serializes writers, so the clause is skipped there.
func ForUpdate(db *gorm.DB) *gorm.DB {
	if db.Dialector.Name() == "sqlite" {
		return db
	}
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}

// likeEscaper escapes LIKE wildcards with '!', which every supported driver
// accepts in an ESCAPE clause without string-literal quoting differences.
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// LikeEscape is the ESCAPE clause to append after a LIKE built with ContainsPattern or PrefixPattern.
const LikeEscape = " ESCAPE '!'"

// ContainsPattern matches term anywhere, case-folded to lower case.
func ContainsPattern(term string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(term)) + "%"
}

// PrefixPattern matches values starting with term.
func PrefixPattern(term string) string {
	return likeEscaper.Replace(term) + "%"
}
