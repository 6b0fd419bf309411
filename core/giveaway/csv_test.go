package giveaway_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iypan/shiksha/core/giveaway"
)

func TestParseCSV(t *testing.T) {
	t.Run("columns matched by alias", func(t *testing.T) {
		in := "Name,Card,Place,Email,Phone\n" +
			"Meena,EduPass,Chennai,meena@test.test,9800000001\n" +
			"Ravi,ScholarPass,Madurai,,\n"

		proposed, rowErrors, err := giveaway.ParseCSV(strings.NewReader(in))
		require.NoError(t, err)
		assert.Empty(t, rowErrors)
		require.Len(t, proposed, 2)
		assert.Equal(t, "Meena", proposed[0].DisplayName)
		assert.Equal(t, "EduPass", proposed[0].CardLabel)
		assert.Equal(t, "Chennai", proposed[0].Locality)
		assert.Equal(t, "meena@test.test", proposed[0].ContactEmail)
		assert.Equal(t, "Ravi", proposed[1].DisplayName)
		assert.Empty(t, proposed[1].ContactEmail)
	})

	t.Run("BOM on the first header is stripped", func(t *testing.T) {
		in := "\ufeffname,email\nMeena,meena@test.test\n"

		proposed, rowErrors, err := giveaway.ParseCSV(strings.NewReader(in))
		require.NoError(t, err)
		assert.Empty(t, rowErrors)
		require.Len(t, proposed, 1)
		assert.Equal(t, "Meena", proposed[0].DisplayName)
	})

	t.Run("bad rows reported and skipped", func(t *testing.T) {
		in := "name,email\n" +
			",missing-name@test.test\n" + // fails validation
			"Ravi,not-an-email\n" + // fails validation
			"Meena,meena@test.test\n"

		proposed, rowErrors, err := giveaway.ParseCSV(strings.NewReader(in))
		require.NoError(t, err)
		require.Len(t, proposed, 1)
		assert.Equal(t, "Meena", proposed[0].DisplayName)
		require.Len(t, rowErrors, 2)
		assert.Equal(t, 2, rowErrors[0].Line)
		assert.Equal(t, 3, rowErrors[1].Line)
	})

	t.Run("unrecognized header fails the file", func(t *testing.T) {
		in := "foo,bar\n1,2\n"

		_, _, err := giveaway.ParseCSV(strings.NewReader(in))
		assert.Error(t, err)
	})

	t.Run("default status applied", func(t *testing.T) {
		in := "name,status\nMeena,\nRavi,PENDING\n"

		proposed, rowErrors, err := giveaway.ParseCSV(strings.NewReader(in))
		require.NoError(t, err)
		assert.Empty(t, rowErrors)
		require.Len(t, proposed, 2)
		assert.Equal(t, giveaway.StatusSuccess, proposed[0].Status)
		assert.Equal(t, giveaway.StatusPending, proposed[1].Status)
	})
}
