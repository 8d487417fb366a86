package model

// Dimension is a resolved dimension folder of a world.
type Dimension struct {
	Dir         string
	HasSkyLight bool
}
