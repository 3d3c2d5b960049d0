package producer

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hashback/hashback/internal/domain"
)

func TestMockProducer_RecordsSpecs(t *testing.T) {
	m := &MockProducer{}
	dir := t.TempDir()

	spec := domain.ArtifactSpec{Name: "www", Kind: domain.SourceDirectory}
	artifact, err := m.Produce(context.Background(), spec, dir)
	require.NoError(t, err)

	assert.FileExists(t, artifact.LocalPath)
	require.Len(t, m.ProducedSpecs(), 1)
	assert.Equal(t, "www", m.ProducedSpecs()[0].Name)
	assert.Equal(t, 1, m.ProduceCount())
}

func TestMockProducer_ConcurrentProduce(t *testing.T) {
	// The orchestrator drives one producer from several workers at once;
	// the mock must record calls without racing.
	m := &MockProducer{}
	dir := t.TempDir()

	const n = 5
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		i := i
		go func() {
			defer wg.Done()
			spec := domain.ArtifactSpec{
				Name: fmt.Sprintf("spec-%d", i),
				Kind: domain.SourceDirectory,
			}
			_, errs[i] = m.Produce(context.Background(), spec, dir)
		}()
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, n, m.ProduceCount())

	seen := make(map[string]bool)
	for _, spec := range m.ProducedSpecs() {
		seen[spec.Name] = true
	}
	assert.Len(t, seen, n)
}
