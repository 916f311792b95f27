package util

import (
	"encoding/binary"
	"io"
)

// Sequence - a monotonically increasing number a node is tagged with, here the
// height of the version that introduced it.
type Sequence int64

/*OriginTrackerI - tracks the version a node was introduced in */
type OriginTrackerI interface {
	SetOrigin(origin Sequence)
	GetOrigin() Sequence
	Write(w io.Writer) error
	Read(r io.Reader) error
}

/*OriginTracker - implements the OriginTrackerI interface */
type OriginTracker struct {
	Origin Sequence `json:"origin" msgpack:"o"`
}

/*SetOrigin - set the origin */
func (o *OriginTracker) SetOrigin(origin Sequence) {
	o.Origin = origin
}

/*GetOrigin - get the origin */
func (o *OriginTracker) GetOrigin() Sequence {
	return o.Origin
}

func (o *OriginTracker) Write(w io.Writer) error {
	return binary.Write(w, binary.LittleEndian, o.GetOrigin())
}

func (o *OriginTracker) Read(r io.Reader) error {
	return binary.Read(r, binary.LittleEndian, &o.Origin)
}
