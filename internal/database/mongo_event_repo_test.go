package database

import (
	"testing"

	"modrelay-bot/internal/database/models"

	"github.com/stretchr/testify/assert"
)

func TestStartupEventKind(t *testing.T) {
	t.Run("FirstBootIsStart", func(t *testing.T) {
		assert.Equal(t, models.EventStart, startupEventKind(0))
	})

	t.Run("LaterBootsAreRestarts", func(t *testing.T) {
		assert.Equal(t, models.EventRestart, startupEventKind(1))
		assert.Equal(t, models.EventRestart, startupEventKind(42))
	})
}
