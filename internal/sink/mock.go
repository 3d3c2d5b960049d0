package sink

import (
	"context"
	"sync"

	"github.com/hashback/hashback/internal/domain"
)

// MockSink is a mock implementation of domain.RemoteSink for testing.
type MockSink struct {
	EnsureContainerFunc func(ctx context.Context, name, parentID string) (string, error)
	UploadFunc          func(ctx context.Context, artifact domain.Artifact, containerID string) (domain.RemoteFileRef, error)
	ValidateFunc        func(ctx context.Context) error

	mu sync.Mutex
	// Uploads stores the artifacts uploaded, in call order.
	Uploads []domain.Artifact
	// Containers stores the container names ensured.
	Containers []string
}

// EnsureContainer calls the mock EnsureContainerFunc, or returns a
// deterministic prefix.
func (m *MockSink) EnsureContainer(ctx context.Context, name, parentID string) (string, error) {
	m.mu.Lock()
	m.Containers = append(m.Containers, name)
	m.mu.Unlock()
	if m.EnsureContainerFunc != nil {
		return m.EnsureContainerFunc(ctx, name, parentID)
	}
	return containerKey(parentID, name), nil
}

// Upload calls the mock UploadFunc and records the artifact.
func (m *MockSink) Upload(ctx context.Context, artifact domain.Artifact, containerID string) (domain.RemoteFileRef, error) {
	if m.UploadFunc != nil {
		ref, err := m.UploadFunc(ctx, artifact, containerID)
		if err != nil {
			return ref, err
		}
		m.mu.Lock()
		m.Uploads = append(m.Uploads, artifact)
		m.mu.Unlock()
		return ref, nil
	}
	m.mu.Lock()
	m.Uploads = append(m.Uploads, artifact)
	m.mu.Unlock()
	return domain.RemoteFileRef{
		RemoteID:    "mock-" + artifact.Name,
		Name:        artifact.Name,
		ContainerID: containerID,
	}, nil
}

// Validate calls the mock ValidateFunc.
func (m *MockSink) Validate(ctx context.Context) error {
	if m.ValidateFunc != nil {
		return m.ValidateFunc(ctx)
	}
	return nil
}

// UploadCount returns the number of recorded uploads.
func (m *MockSink) UploadCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Uploads)
}

// Ensure MockSink implements domain.RemoteSink.
var _ domain.RemoteSink = (*MockSink)(nil)
