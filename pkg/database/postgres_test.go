package database

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/juanketo/BBMApp-sub000/pkg/config"
)

func TestDSN(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{
		Host:     "db",
		Port:     5432,
		User:     "bbm",
		Password: "s3cr3t",
		Name:     "bbm",
		SSLMode:  "disable",
	})
	assert.Equal(t, "host=db port=5432 user=bbm password=s3cr3t dbname=bbm sslmode=disable application_name=bbm-api connect_timeout=5", dsn)
}

func TestDSNQuotesAwkwardPasswords(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{Host: "db", Port: 5432, User: "bbm", Password: `it's a \pass`, Name: "bbm"})
	assert.Contains(t, dsn, `password='it\'s a \\pass'`)
	assert.NotContains(t, dsn, "sslmode")
}
