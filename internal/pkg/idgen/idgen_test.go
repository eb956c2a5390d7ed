package idgen_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/KirkDiggler/expedition-api/internal/pkg/idgen"
)

func TestUUIDGeneratorPrefix(t *testing.T) {
	gen := idgen.NewUUID("run")

	id := gen.Generate()
	assert.True(t, strings.HasPrefix(id, "run_"), "id %q should start with run_", id)
	assert.False(t, strings.Contains(id, "__"), "id %q should join prefix with a single underscore", id)
	assert.NotEqual(t, id, gen.Generate())
}

func TestUUIDGeneratorNoPrefix(t *testing.T) {
	id := idgen.NewUUID("").Generate()
	assert.NotContains(t, id, "_")
}

func TestSequentialGenerator(t *testing.T) {
	gen := idgen.NewSequential("job")

	assert.Equal(t, "job_1", gen.Generate())
	assert.Equal(t, "job_2", gen.Generate())
}
