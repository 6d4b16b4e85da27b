package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDSN(t *testing.T) {
	assert.Equal(t,
		`host=db port=5432 user=app password='s3cr\'et' dbname=members sslmode=disable`,
		DSN("db", "5432", "app", "s3cr'et", "members", ""),
	)
}
