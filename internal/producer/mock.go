package producer

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/hashback/hashback/internal/domain"
)

// MockProducer is a mock implementation of domain.Producer for testing.
// It is safe for concurrent use, matching how the orchestrator's worker
// pool calls producers.
type MockProducer struct {
	ProduceFunc func(ctx context.Context, spec domain.ArtifactSpec, destDir string) (domain.Artifact, error)

	// Content, when ProduceFunc is nil, is written to the produced file.
	// Defaults to the spec name so distinct specs produce distinct bytes.
	Content []byte

	mu sync.Mutex
	// produced stores the specs this mock has produced artifacts for.
	produced []domain.ArtifactSpec
}

// Produce calls the mock ProduceFunc, or writes a small real file so the
// orchestrator's fingerprint and cleanup paths run against actual disk I/O.
func (m *MockProducer) Produce(ctx context.Context, spec domain.ArtifactSpec, destDir string) (domain.Artifact, error) {
	m.mu.Lock()
	m.produced = append(m.produced, spec)
	m.mu.Unlock()

	if m.ProduceFunc != nil {
		return m.ProduceFunc(ctx, spec, destDir)
	}

	content := m.Content
	if content == nil {
		content = []byte(spec.Name)
	}

	path := filepath.Join(destDir, spec.Name+".mock")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		return domain.Artifact{}, err
	}

	return domain.Artifact{
		Name:      spec.Name,
		LocalPath: path,
		SizeBytes: int64(len(content)),
	}, nil
}

// ProducedSpecs returns a copy of the specs produced so far.
func (m *MockProducer) ProducedSpecs() []domain.ArtifactSpec {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.ArtifactSpec(nil), m.produced...)
}

// ProduceCount returns the number of Produce calls recorded.
func (m *MockProducer) ProduceCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.produced)
}

// Ensure MockProducer implements domain.Producer.
var _ domain.Producer = (*MockProducer)(nil)
