package safety

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	t.Run("clean select passes", func(t *testing.T) {
		assert.Empty(t, Classify("SELECT gender, COUNT(*) FROM patients GROUP BY gender;"))
	})

	t.Run("drop statement is flagged", func(t *testing.T) {
		assert.Equal(t, []string{"DROP"}, Classify("DROP TABLE patients;"))
	})

	t.Run("match is case-insensitive", func(t *testing.T) {
		assert.Equal(t, []string{"DELETE"}, Classify("delete from visits where id = 1"))
	})

	t.Run("substring inside a literal is still blocked", func(t *testing.T) {
		// The gate is a substring check, so the word "updated" inside a
		// string literal trips it. Expected conservative behavior.
		assert.Equal(t, []string{"UPDATE"}, Classify("select * from t where note='updated'"))
	})

	t.Run("multiple tokens reported in vocabulary order", func(t *testing.T) {
		matched := Classify("CREATE TABLE x AS SELECT 1; DROP TABLE x;")
		assert.Equal(t, []string{"DROP", "CREATE"}, matched)
	})

	t.Run("truncate is flagged", func(t *testing.T) {
		assert.Equal(t, []string{"TRUNCATE"}, Classify("TRUNCATE visits"))
	})

	t.Run("empty input passes", func(t *testing.T) {
		assert.Empty(t, Classify(""))
	})
}

func TestIsSafe(t *testing.T) {
	assert.True(t, IsSafe("SELECT 1;"))
	assert.False(t, IsSafe("INSERT INTO t VALUES (1);"))
}
