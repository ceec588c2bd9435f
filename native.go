package ugrid

import (
	"fmt"

	"github.com/23skdu/ugrid/internal/topology"
)

func opName(verb string, kind topology.Kind) string {
	return "ug_" + kind.String() + "_" + verb
}

func (s *session) count(kind topology.Kind) (int, error) {
	var n int32
	err := s.invoke("ug_topology_get_count", func() int32 {
		return s.lib.TopologyGetCount(s.fileID, kind, &n)
	})
	return int(n), err
}

func (s *session) define(rec topology.Record) (int, error) {
	var id int32
	err := s.invoke(opName("def", rec.Kind()), func() int32 {
		switch r := rec.(type) {
		case *topology.Mesh1D:
			return s.lib.Mesh1DDef(s.fileID, r, &id)
		case *topology.Mesh2D:
			return s.lib.Mesh2DDef(s.fileID, r, &id)
		case *topology.Contacts:
			return s.lib.ContactsDef(s.fileID, r, &id)
		case *topology.Network1D:
			return s.lib.Network1DDef(s.fileID, r, &id)
		}
		panic(fmt.Sprintf("unsupported record %T", rec))
	})
	return int(id), err
}

func (s *session) put(id int, rec topology.Record) error {
	return s.invoke(opName("put", rec.Kind()), func() int32 {
		switch r := rec.(type) {
		case *topology.Mesh1D:
			return s.lib.Mesh1DPut(s.fileID, int32(id), r)
		case *topology.Mesh2D:
			return s.lib.Mesh2DPut(s.fileID, int32(id), r)
		case *topology.Contacts:
			return s.lib.ContactsPut(s.fileID, int32(id), r)
		case *topology.Network1D:
			return s.lib.Network1DPut(s.fileID, int32(id), r)
		}
		panic(fmt.Sprintf("unsupported record %T", rec))
	})
}

func (s *session) inquire(id int, rec topology.Record) error {
	return s.invoke(opName("inq", rec.Kind()), func() int32 {
		switch r := rec.(type) {
		case *topology.Mesh1D:
			return s.lib.Mesh1DInq(s.fileID, int32(id), r)
		case *topology.Mesh2D:
			return s.lib.Mesh2DInq(s.fileID, int32(id), r)
		case *topology.Contacts:
			return s.lib.ContactsInq(s.fileID, int32(id), r)
		case *topology.Network1D:
			return s.lib.Network1DInq(s.fileID, int32(id), r)
		}
		panic(fmt.Sprintf("unsupported record %T", rec))
	})
}

func (s *session) get(id int, rec topology.Record) error {
	return s.invoke(opName("get", rec.Kind()), func() int32 {
		switch r := rec.(type) {
		case *topology.Mesh1D:
			return s.lib.Mesh1DGet(s.fileID, int32(id), r)
		case *topology.Mesh2D:
			return s.lib.Mesh2DGet(s.fileID, int32(id), r)
		case *topology.Contacts:
			return s.lib.ContactsGet(s.fileID, int32(id), r)
		case *topology.Network1D:
			return s.lib.Network1DGet(s.fileID, int32(id), r)
		}
		panic(fmt.Sprintf("unsupported record %T", rec))
	})
}
