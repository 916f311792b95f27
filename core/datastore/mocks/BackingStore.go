package mocks

import (
	"github.com/stretchr/testify/mock"

	"github.com/tyGavinZJU/miningbot-sub001/core/datastore"
)

// BackingStore is a mock type for the BackingStore type
type BackingStore struct {
	mock.Mock
}

// Begin provides a mock function with given fields: current, next
func (_m *BackingStore) Begin(current datastore.BlockID, next datastore.BlockID) error {
	ret := _m.Called(current, next)
	return ret.Error(0)
}

// CommitVersion provides a mock function with given fields:
func (_m *BackingStore) CommitVersion() ([]byte, error) {
	ret := _m.Called()
	var r0 []byte
	if rf, ok := ret.Get(0).(func() []byte); ok {
		r0 = rf()
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).([]byte)
	}
	return r0, ret.Error(1)
}

// Delete provides a mock function with given fields: key
func (_m *BackingStore) Delete(key []byte) error {
	ret := _m.Called(key)
	return ret.Error(0)
}

// Get provides a mock function with given fields: key
func (_m *BackingStore) Get(key []byte) ([]byte, bool, error) {
	ret := _m.Called(key)
	var r0 []byte
	if rf, ok := ret.Get(0).(func([]byte) []byte); ok {
		r0 = rf(key)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).([]byte)
	}
	return r0, ret.Bool(1), ret.Error(2)
}

// GetBlockIDAtHeight provides a mock function with given fields: height
func (_m *BackingStore) GetBlockIDAtHeight(height uint64) (datastore.BlockID, bool, error) {
	ret := _m.Called(height)
	var r0 datastore.BlockID
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(datastore.BlockID)
	}
	return r0, ret.Bool(1), ret.Error(2)
}

// GetCurrentBlockHeight provides a mock function with given fields:
func (_m *BackingStore) GetCurrentBlockHeight() (uint64, error) {
	ret := _m.Called()
	var r0 uint64
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(uint64)
	}
	return r0, ret.Error(1)
}

// GetVersionRoot provides a mock function with given fields: id
func (_m *BackingStore) GetVersionRoot(id datastore.BlockID) ([]byte, error) {
	ret := _m.Called(id)
	var r0 []byte
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]byte)
	}
	return r0, ret.Error(1)
}

// OpenVersion provides a mock function with given fields:
func (_m *BackingStore) OpenVersion() (datastore.BlockID, bool) {
	ret := _m.Called()
	var r0 datastore.BlockID
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(datastore.BlockID)
	}
	return r0, ret.Bool(1)
}

// Put provides a mock function with given fields: key, value
func (_m *BackingStore) Put(key []byte, value []byte) error {
	ret := _m.Called(key, value)
	return ret.Error(0)
}

// RollbackVersion provides a mock function with given fields:
func (_m *BackingStore) RollbackVersion() error {
	ret := _m.Called()
	return ret.Error(0)
}

// NewBackingStore creates a new instance of BackingStore. It also registers a
// cleanup function to assert the mocks expectations.
func NewBackingStore(t interface {
	mock.TestingT
	Cleanup(func())
}) *BackingStore {
	m := &BackingStore{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

var _ datastore.BackingStore = (*BackingStore)(nil)
