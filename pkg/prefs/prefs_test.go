package prefs

import (
	"testing"

	"github.com/HarveyDWilliams/PlusWordChatbot/pkg/puzzletime"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReminderDocConversion(t *testing.T) {
	doc := reminderDoc{PlayerID: "447000000001", Enabled: true, Time: "09:30"}
	cfg, err := doc.toConfig()
	require.NoError(t, err)
	assert.Equal(t, "447000000001", cfg.PlayerID)
	assert.True(t, cfg.Enabled)
	assert.Equal(t, puzzletime.Clock{Hour: 9, Minute: 30}, cfg.TimeOfDay)
}

func TestReminderDocCorruptTime(t *testing.T) {
	doc := reminderDoc{PlayerID: "447000000001", Enabled: true, Time: "25:99"}
	_, err := doc.toConfig()
	assert.Error(t, err)
}
