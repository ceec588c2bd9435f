// Package ugrid reads and writes UGrid mesh topologies through the integer
// exit-code call surface of a UGrid library. Buffers handed to the library
// are allocated with exact sizes, released exactly once and never leaked
// when a call fails half way.
package ugrid

import (
	"unsafe"

	"github.com/23skdu/ugrid/internal/topology"
	"github.com/23skdu/ugrid/internal/ugridapi"
)

// Library is the UGrid native call surface. Every call returns 0 on success
// and a non-zero exit code on failure, with the message available through
// ErrorGet.
type Library interface {
	ErrorGet(message []byte) int32
	NameGetLength(length *int32) int32
	NameGetLongLength(length *int32) int32

	FileOpen(path []byte, mode int32, fileID *int32) int32
	FileClose(fileID int32) int32
	TopologyGetCount(fileID int32, kind topology.Kind, count *int32) int32

	Mesh1DDef(fileID int32, m *topology.Mesh1D, topologyID *int32) int32
	Mesh1DPut(fileID, topologyID int32, m *topology.Mesh1D) int32
	Mesh1DInq(fileID, topologyID int32, m *topology.Mesh1D) int32
	Mesh1DGet(fileID, topologyID int32, m *topology.Mesh1D) int32

	Mesh2DDef(fileID int32, m *topology.Mesh2D, topologyID *int32) int32
	Mesh2DPut(fileID, topologyID int32, m *topology.Mesh2D) int32
	Mesh2DInq(fileID, topologyID int32, m *topology.Mesh2D) int32
	Mesh2DGet(fileID, topologyID int32, m *topology.Mesh2D) int32

	ContactsDef(fileID int32, c *topology.Contacts, topologyID *int32) int32
	ContactsPut(fileID, topologyID int32, c *topology.Contacts) int32
	ContactsInq(fileID, topologyID int32, c *topology.Contacts) int32
	ContactsGet(fileID, topologyID int32, c *topology.Contacts) int32

	Network1DDef(fileID int32, n *topology.Network1D, topologyID *int32) int32
	Network1DPut(fileID, topologyID int32, n *topology.Network1D) int32
	Network1DInq(fileID, topologyID int32, n *topology.Network1D) int32
	Network1DGet(fileID, topologyID int32, n *topology.Network1D) int32

	VariableCountDimensions(fileID int32, name []byte, count *int32) int32
	VariableGetDataDimensions(fileID int32, name []byte, dims []int32) int32
	VariableGetDataInt(fileID int32, name []byte, data unsafe.Pointer) int32
	VariableGetDataDouble(fileID int32, name []byte, data unsafe.Pointer) int32
	VariableGetDataChar(fileID int32, name []byte, data unsafe.Pointer) int32
	VariableCountAttributes(fileID int32, name []byte, count *int32) int32
	VariableGetAttributesNames(fileID int32, name []byte, names []byte) int32
	VariableGetAttributesValues(fileID int32, name []byte, values []byte) int32

	VariableIntDefine(fileID int32, name []byte) int32
	AttributeIntDefine(fileID int32, varName, attName []byte, values []int32, numValues int32) int32
	AttributeDoubleDefine(fileID int32, varName, attName []byte, values []float64, numValues int32) int32
	AttributeCharDefine(fileID int32, varName, attName []byte, values []byte, numValues int32) int32
	AttributeGlobalCharDefine(fileID int32, attName []byte, values []byte, numValues int32) int32
	AttributeGlobalCharGet(fileID int32, attName []byte, value []byte) int32
}

var _ Library = (*ugridapi.Library)(nil)

// TopologyKind identifies one of the four topology kinds.
type TopologyKind = topology.Kind

const (
	Network1DKind = topology.Network1DKind
	Mesh1DKind    = topology.Mesh1DKind
	Mesh2DKind    = topology.Mesh2DKind
	ContactsKind  = topology.ContactsKind
)

// BufferSet is the group of native buffers backing one topology read from a
// file.
type BufferSet = topology.BufferSet

// File modes of the native library.
const (
	modeRead    = ugridapi.ModeRead
	modeReplace = ugridapi.ModeReplace
)

// errorBufferSize is the size of the native last-error buffer.
const errorBufferSize = ugridapi.ErrorBufferSize
