package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestIsUniqueViolation(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"gorm translated", fmt.Errorf("insert: %w", gorm.ErrDuplicatedKey), true},
		{"pq unique", &pq.Error{Code: "23505"}, true},
		{"pq fk", &pq.Error{Code: "23503", Message: "violates foreign key"}, false},
		{"sqlite text", errors.New("UNIQUE constraint failed: campaigns.invite_code"), true},
		{"mysql text", errors.New("Error 1062: Duplicate entry 'QST-AAAA'"), true},
		{"mysql dup", &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}, true},
		{"mysql table exists", &mysql.MySQLError{Number: 1050, Message: "Table 'users' already exists"}, false},
		{"pq text", errors.New(`ERROR: duplicate key value violates unique constraint "idx_x" (SQLSTATE 23505)`), true},
		{"table exists", errors.New("table users already exists"), false},
		{"unique in name", errors.New("no such column: unique_code"), false},
		{"duplicate word", errors.New("duplicate column name: email"), false},
		{"other", gorm.ErrRecordNotFound, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsUniqueViolation(tc.err))
		})
	}
}
