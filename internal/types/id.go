// README: Shared identifier and coordinate value objects used across modules.
package types

// ID is a document identifier in the backing store.
type ID string

func (id ID) String() string { return string(id) }

// Point is a WGS84 coordinate.
type Point struct {
	Lat float64
	Lng float64
}
