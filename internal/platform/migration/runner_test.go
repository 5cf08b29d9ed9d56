// Copyright (c) 2026 Atelier. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package migration

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConvertToPgx5DSN(t *testing.T) {
	tests := []struct {
		name string
		dsn  string
		want string
	}{
		{"postgres_scheme", "postgres://u:p@db:5432/atelier", "pgx5://u:p@db:5432/atelier"},
		{"postgresql_scheme", "postgresql://u:p@db/atelier?sslmode=disable", "pgx5://u:p@db/atelier?sslmode=disable"},
		{"already_pgx5", "pgx5://db/atelier", "pgx5://db/atelier"},
		{"keyword_dsn_untouched", "host=db dbname=atelier", "host=db dbname=atelier"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, convertToPgx5DSN(tt.dsn))
		})
	}
}

func TestRunner_DownRejectsNonPositiveSteps(t *testing.T) {
	runner := NewRunner("postgres://db/atelier", "./data/migrations", nil)
	assert.Error(t, runner.Down(0))
	assert.Error(t, runner.Down(-1))
}
