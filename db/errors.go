package db

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

const (
	// pgUniqueViolation is the SQLSTATE for unique_violation.
	pgUniqueViolation = "23505"
	// mysqlDupEntry is ER_DUP_ENTRY.
	mysqlDupEntry = 1062
)

// uniqueMessages are the driver messages for duplicate keys that reach us
// untranslated, e.g. wrapped by a raw Exec.
var uniqueMessages = []string{
	"UNIQUE constraint failed",
	"Error 1062",
	"duplicate key value violates unique constraint",
}

// IsUniqueViolation detects duplicate-key errors from every supported driver.
// sqlite and mysql are translated by gorm (TranslateError); lib/pq errors are
// not, so they are matched on their SQLSTATE.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pgUniqueViolation
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlDupEntry
	}
	msg := err.Error()
	for _, m := range uniqueMessages {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}
