package mock

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"github.com/succinctlab/rmmt/pkg/bitarray"
)

// MockLoader is a mock implementation of the loader.Loader interface.
type MockLoader struct {
	mock.Mock
}

// Load mocks the Load method.
func (m *MockLoader) Load(ctx context.Context, r io.Reader) (*bitarray.BitArray, error) {
	args := m.Called(ctx, r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*bitarray.BitArray), args.Error(1)
}

// LoadFile mocks the LoadFile method.
func (m *MockLoader) LoadFile(ctx context.Context, path string) (*bitarray.BitArray, error) {
	args := m.Called(ctx, path)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*bitarray.BitArray), args.Error(1)
}

// ExpectLoad sets up an expectation for Load.
func (m *MockLoader) ExpectLoad(result *bitarray.BitArray, err error) *mock.Call {
	return m.On("Load", mock.Anything, mock.Anything).Return(result, err)
}

// ExpectLoadFile sets up an expectation for LoadFile.
func (m *MockLoader) ExpectLoadFile(path string, result *bitarray.BitArray, err error) *mock.Call {
	return m.On("LoadFile", mock.Anything, path).Return(result, err)
}
