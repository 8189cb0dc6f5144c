package roster_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/triangle-practice/internal/roster"
)

func TestDefault(t *testing.T) {
	r := roster.Default()
	assert.Equal(t, []string{"Englade", "Russell", "Miller", "Massengill", "Clark"}, r.Teachers())
	assert.True(t, r.HasTeacher("Miller"))
	assert.False(t, r.HasTeacher("miller"))
	assert.True(t, r.Has("Englade", "Genesis V"))
	assert.False(t, r.Has("Englade", "Nobody"))
	assert.False(t, r.Has("Nobody", "Eduardo"))
	assert.NotEmpty(t, r.Students("Clark"))
	assert.Nil(t, r.Students("Nobody"))
}

func TestStudents_ReturnsCopy(t *testing.T) {
	r, err := roster.New([]roster.Class{{Teacher: "T", Students: []string{"a", "b"}}})
	require.NoError(t, err)
	s := r.Students("T")
	s[0] = "zzz"
	assert.Equal(t, []string{"a", "b"}, r.Students("T"))
}

func TestLoad_Errors(t *testing.T) {
	_, err := roster.Load(strings.NewReader(`[{"teacher":"","students":[]}]`))
	assert.Error(t, err)
	_, err = roster.Load(strings.NewReader(`[{"teacher":"A"},{"teacher":"A"}]`))
	assert.Error(t, err)
	_, err = roster.Load(strings.NewReader(`{`))
	assert.Error(t, err)
}
