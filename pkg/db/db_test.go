package db

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"cpwidget/pkg/config"
	"cpwidget/pkg/logger"
)

func TestRedactDSN(t *testing.T) {
	assert.Equal(t, "***@db:5432/cp", redactDSN("postgres://u:secret@db:5432/cp"))
	assert.Equal(t, "db:5432/cp", redactDSN("db:5432/cp"))
}

func TestUnsetURLsYieldNil(t *testing.T) {
	log := logger.Nop()
	assert.Nil(t, MustConnect(config.Config{}, log))
	assert.Nil(t, MustRedis(config.Config{}, log))
}
